package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "bare object",
			response: `{"a": 1}`,
			want:     `{"a": 1}`,
		},
		{
			name:     "code fence",
			response: "```json\n{\"a\": 1}\n```",
			want:     `{"a": 1}`,
		},
		{
			name:     "prose around object",
			response: `결과는 다음과 같습니다: {"policy": "PASS"} 감사합니다.`,
			want:     `{"policy": "PASS"}`,
		},
		{
			name:     "nested braces keep outer object",
			response: `x {"a": {"b": 2}} y`,
			want:     `{"a": {"b": 2}}`,
		},
		{
			name:     "no braces returns input",
			response: "그냥 텍스트",
			want:     "그냥 텍스트",
		},
		{
			name:     "reversed braces returns input",
			response: "} malformed {",
			want:     "} malformed {",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.response); got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeStructured(t *testing.T) {
	type verdict struct {
		Policy string `json:"policy"`
	}

	var v verdict
	if err := DecodeStructured("판정: {\"policy\": \"BLOCK\"}", &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Policy != "BLOCK" {
		t.Errorf("policy = %q, want BLOCK", v.Policy)
	}

	if err := DecodeStructured("no json here", &v); err == nil {
		t.Error("expected error for non-JSON input")
	}
}
