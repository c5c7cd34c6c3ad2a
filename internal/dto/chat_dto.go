package dto

// --- Chat DTOs ---

type AskRequest struct {
	Question       string `json:"question" validate:"required,min=1,max=2000"`
	ConversationId string `json:"conversation_id,omitempty"`
}

type SourceResponse struct {
	Id        int64  `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Board     string `json:"board,omitempty"`
	Author    string `json:"author,omitempty"`
	WrittenAt string `json:"written_at,omitempty"`
}

type AskResponse struct {
	Answer         string           `json:"answer"`
	Blocked        bool             `json:"blocked"`
	ConversationId string           `json:"conversation_id"`
	Attempts       int              `json:"attempts"`
	Sources        []SourceResponse `json:"sources"`
}

type HistoryMessageResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type HistoryResponse struct {
	ConversationId string                   `json:"conversation_id"`
	Messages       []HistoryMessageResponse `json:"messages"`
}
