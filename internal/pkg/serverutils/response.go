package serverutils

// ApiResponse is the uniform JSON envelope for every endpoint.
type ApiResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
}

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ErrorResponse(message string) errorBody {
	return errorBody{
		Success: false,
		Message: message,
	}
}
