package generate

import (
	"context"
	"errors"
	"strings"
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
	response   string
	err        error
	lastPrompt string
}

func (f *fakeProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	if len(history) > 0 {
		f.lastPrompt = history[len(history)-1].Content
	}
	return f.response, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func TestGenerateIncludesContext(t *testing.T) {
	provider := &fakeProvider{response: "수강신청은 2026-02-10(화)부터입니다."}
	g := NewGenerator(provider, stubLogger{}, time.Second)

	state := &rag.TurnState{
		Question: "수강신청 언제야?",
		Rewrite:  rag.Rewrite{Query: "수강신청 기간", Keywords: []string{"수강신청"}},
		Documents: []rag.Document{
			{Title: "수강신청 안내", Content: "수강신청 기간은 2026-02-10부터입니다.", AnnouncementID: 42},
		},
	}

	answer, err := g.Generate(context.Background(), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "수강신청은 2026-02-10(화)부터입니다." {
		t.Errorf("unexpected answer %q", answer)
	}

	for _, fragment := range []string{"수강신청 언제야?", "수강신청 기간", "Title:[수강신청 안내]", "Doc ID:42"} {
		if !strings.Contains(provider.lastPrompt, fragment) {
			t.Errorf("prompt missing %q", fragment)
		}
	}
}

func TestGenerateErrorIsFatal(t *testing.T) {
	g := NewGenerator(&fakeProvider{err: errors.New("model down")}, stubLogger{}, time.Second)
	if _, err := g.Generate(context.Background(), &rag.TurnState{Question: "q"}); err == nil {
		t.Fatal("generation failure must propagate")
	}
}

func TestFormatContext(t *testing.T) {
	written := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	docs := []rag.Document{
		{
			Title:             "장학금 공지",
			URL:               "http://u/1",
			Content:           "성적우수 장학금 안내",
			AnnouncementID:    7,
			Board:             "장학게시판",
			WrittenAt:         &written,
			Tags:              []string{"장학"},
			TargetDepartments: []string{"컴퓨터공학과"},
			TargetGrades:      []int{2, 3},
		},
		{Content: "제목 없는 본문"},
	}

	out := FormatContext(docs)

	for _, fragment := range []string{
		"Title:[장학금 공지]",
		"URL: http://u/1",
		"Doc ID:7",
		"게시판:장학게시판",
		"작성일:2026-03-02",
		"태그:장학",
		"대상학과:컴퓨터공학과",
		"대상학년:2, 3학년",
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("context missing %q in:\n%s", fragment, out)
		}
	}

	// Missing fields get sentinels, never empty holes.
	if !strings.Contains(out, "Title:[(제목없음)]") {
		t.Error("untitled document must get a placeholder title")
	}
	if !strings.Contains(out, "작성일:미상") {
		t.Error("missing written date must render 미상")
	}
	if !strings.Contains(out, "URL: 없음") {
		t.Error("missing url must render 없음")
	}
}

func TestFormatFilters(t *testing.T) {
	if got := formatFilters(rag.Filters{}); got != "없음" {
		t.Errorf("empty filters = %q, want 없음", got)
	}
	got := formatFilters(rag.Filters{Departments: []string{"국문과"}, Grades: []int{1}})
	if !strings.Contains(got, "국문과") || !strings.Contains(got, "1학년") {
		t.Errorf("unexpected filter rendering %q", got)
	}
}
