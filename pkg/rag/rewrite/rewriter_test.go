package rewrite

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"announce-qa-be/pkg/llm"
	"announce-qa-be/pkg/rag"
)

type stubLogger struct{}

func (stubLogger) Debug(module, message string, details map[string]interface{}) {}
func (stubLogger) Info(module, message string, details map[string]interface{})  {}
func (stubLogger) Warn(module, message string, details map[string]interface{})  {}
func (stubLogger) Error(module, message string, details map[string]interface{}) {}
func (stubLogger) Sync() error                                                  { return nil }

type fakeProvider struct {
	response string
	err      error
}

func (f *fakeProvider) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, nil, options...)
}

func TestRewriteWellFormed(t *testing.T) {
	provider := &fakeProvider{response: `{
		"query": "휴학(휴학신청,휴학기간) 절차 안내",
		"keywords": ["휴학", "휴학신청"],
		"filters": {"departments": ["컴퓨터공학과"], "grades": [2], "tags": ["학사"]}
	}`}
	r := NewRewriter(provider, stubLogger{}, time.Second)

	rw := r.Rewrite(context.Background(), &rag.TurnState{Question: "휴학 어떻게 해?"})
	if rw.Query != "휴학(휴학신청,휴학기간) 절차 안내" {
		t.Errorf("unexpected query %q", rw.Query)
	}
	if !reflect.DeepEqual(rw.Keywords, []string{"휴학", "휴학신청"}) {
		t.Errorf("unexpected keywords %v", rw.Keywords)
	}
	if !reflect.DeepEqual(rw.Filters.Departments, []string{"컴퓨터공학과"}) {
		t.Errorf("unexpected departments %v", rw.Filters.Departments)
	}
	if !reflect.DeepEqual(rw.Filters.Grades, []int{2}) {
		t.Errorf("unexpected grades %v", rw.Filters.Grades)
	}
}

func TestRewriteFallsBackToRawQuestion(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "provider error", err: errors.New("timeout")},
		{name: "not json", response: "재작성된 질의: 휴학 절차"},
		{name: "empty query", response: `{"query": "  ", "keywords": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRewriter(&fakeProvider{response: tt.response, err: tt.err}, stubLogger{}, time.Second)
			rw := r.Rewrite(context.Background(), &rag.TurnState{Question: "휴학 어떻게 해?"})

			if rw.Query != "휴학 어떻게 해?" {
				t.Errorf("fallback query = %q, want raw question", rw.Query)
			}
			if rw.Keywords == nil || len(rw.Keywords) != 0 {
				t.Errorf("fallback keywords must be empty non-nil, got %v", rw.Keywords)
			}
			if !rw.Filters.Empty() {
				t.Errorf("fallback filters must be empty, got %+v", rw.Filters)
			}
		})
	}
}

func TestRewriteDropsInvalidGrades(t *testing.T) {
	provider := &fakeProvider{response: `{
		"query": "장학금 안내",
		"keywords": ["장학금"],
		"filters": {"departments": [], "grades": [0, 2, 5, -1], "tags": []}
	}`}
	r := NewRewriter(provider, stubLogger{}, time.Second)

	rw := r.Rewrite(context.Background(), &rag.TurnState{Question: "장학금?"})
	if !reflect.DeepEqual(rw.Filters.Grades, []int{2}) {
		t.Errorf("grades outside 1..4 must be dropped, got %v", rw.Filters.Grades)
	}
}
