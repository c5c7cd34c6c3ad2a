package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"announce-qa-be/pkg/rag"
)

type stubLogger struct{}

func (stubLogger) Debug(module, message string, details map[string]interface{}) {}
func (stubLogger) Info(module, message string, details map[string]interface{})  {}
func (stubLogger) Warn(module, message string, details map[string]interface{})  {}
func (stubLogger) Error(module, message string, details map[string]interface{}) {}
func (stubLogger) Sync() error                                                  { return nil }

type fakeGuard struct {
	verdict rag.GuardVerdict
	calls   int
}

func (f *fakeGuard) Check(_ context.Context, _ *rag.TurnState) rag.GuardVerdict {
	f.calls++
	return f.verdict
}

type fakeRewriter struct {
	rewrite rag.Rewrite
	calls   int
}

func (f *fakeRewriter) Rewrite(_ context.Context, _ *rag.TurnState) rag.Rewrite {
	f.calls++
	return f.rewrite
}

type retrieveCall struct {
	query string
	k     int
}

type fakeRetriever struct {
	docs  []rag.Document
	err   error
	calls []retrieveCall
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, k int, _ rag.Filters) ([]rag.Document, error) {
	f.calls = append(f.calls, retrieveCall{query: query, k: k})
	return f.docs, f.err
}

type fakeGenerator struct {
	answers []string
	err     error
	calls   int
}

func (f *fakeGenerator) Generate(_ context.Context, _ *rag.TurnState) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	answer := f.answers[len(f.answers)-1]
	if f.calls < len(f.answers) {
		answer = f.answers[f.calls]
	}
	f.calls++
	return answer, nil
}

type fakeValidator struct {
	verdicts []rag.Validation
	calls    int
}

func (f *fakeValidator) Validate(_ context.Context, _ *rag.TurnState) rag.Validation {
	verdict := f.verdicts[len(f.verdicts)-1]
	if f.calls < len(f.verdicts) {
		verdict = f.verdicts[f.calls]
	}
	f.calls++
	return verdict
}

func newTestPipeline(g GuardStage, rw RewriteStage, rt RetrieveStage, gen GenerateStage, v ValidateStage) *Pipeline {
	return New(g, rw, rt, gen, v, Config{MaxAttempts: 2, BaseK: 6, KStep: 4, KMax: 20}, stubLogger{})
}

func TestRunBlockedQuestion(t *testing.T) {
	guard := &fakeGuard{verdict: rag.GuardVerdict{Policy: rag.PolicyBlock, Reason: "부적절한 질문"}}
	rewriter := &fakeRewriter{}
	retriever := &fakeRetriever{}
	generator := &fakeGenerator{answers: []string{"should not run"}}
	validator := &fakeValidator{verdicts: []rag.Validation{{Decision: rag.DecisionPass}}}

	p := newTestPipeline(guard, rewriter, retriever, generator, validator)
	res, err := p.Run(context.Background(), "나쁜 질문", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.Blocked {
		t.Error("expected blocked result")
	}
	if res.Answer != RefusalMessage {
		t.Errorf("expected refusal message, got %q", res.Answer)
	}
	if len(res.Documents) != 0 {
		t.Errorf("blocked result must carry no documents, got %d", len(res.Documents))
	}
	if rewriter.calls != 0 || len(retriever.calls) != 0 || generator.calls != 0 || validator.calls != 0 {
		t.Error("no downstream stage may run after a block")
	}
}

func TestRunHappyPathNoRetry(t *testing.T) {
	guard := &fakeGuard{verdict: rag.GuardVerdict{Policy: rag.PolicyPass}}
	rewriter := &fakeRewriter{rewrite: rag.Rewrite{Query: "휴학 신청 기간"}}
	retriever := &fakeRetriever{docs: []rag.Document{{ID: "d1", Content: "휴학 안내"}}}
	generator := &fakeGenerator{answers: []string{"휴학 신청은 3월부터입니다."}}
	validator := &fakeValidator{verdicts: []rag.Validation{{Decision: rag.DecisionPass}}}

	p := newTestPipeline(guard, rewriter, retriever, generator, validator)
	res, err := p.Run(context.Background(), "휴학 언제 해?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Blocked {
		t.Error("unexpected block")
	}
	if res.Answer != "휴학 신청은 3월부터입니다." {
		t.Errorf("unexpected answer %q", res.Answer)
	}
	if res.Attempts != 0 {
		t.Errorf("expected 0 attempts, got %d", res.Attempts)
	}
	if rewriter.calls != 1 {
		t.Errorf("rewriter must run exactly once, ran %d times", rewriter.calls)
	}
	if len(retriever.calls) != 1 || retriever.calls[0].k != 6 {
		t.Errorf("expected one retrieval with k=6, got %+v", retriever.calls)
	}
}

func TestRunRetryMergesHintAndWidensK(t *testing.T) {
	guard := &fakeGuard{verdict: rag.GuardVerdict{Policy: rag.PolicyPass}}
	rewriter := &fakeRewriter{rewrite: rag.Rewrite{Query: "장학금 신청"}}
	retriever := &fakeRetriever{docs: []rag.Document{{ID: "d1"}}}
	generator := &fakeGenerator{answers: []string{"첫 답변", "개선된 답변"}}
	validator := &fakeValidator{verdicts: []rag.Validation{
		{Decision: rag.DecisionRetry, CriticQuery: "국가장학금 신청 기한"},
		{Decision: rag.DecisionPass},
	}}

	p := newTestPipeline(guard, rewriter, retriever, generator, validator)
	res, err := p.Run(context.Background(), "장학금?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", res.Attempts)
	}
	if res.Answer != "개선된 답변" {
		t.Errorf("expected second answer, got %q", res.Answer)
	}
	if rewriter.calls != 1 {
		t.Errorf("rewriter must not be re-invoked on retry, ran %d times", rewriter.calls)
	}
	if len(retriever.calls) != 2 {
		t.Fatalf("expected 2 retrievals, got %d", len(retriever.calls))
	}
	if retriever.calls[0].k != 6 || retriever.calls[1].k != 10 {
		t.Errorf("expected k to widen 6 then 10, got %d then %d", retriever.calls[0].k, retriever.calls[1].k)
	}
	wantQuery := "장학금 신청" + rag.QuerySeparator + "국가장학금 신청 기한"
	if retriever.calls[1].query != wantQuery {
		t.Errorf("retry query = %q, want %q", retriever.calls[1].query, wantQuery)
	}
}

func TestRunBudgetExhaustionReturnsBestEffort(t *testing.T) {
	guard := &fakeGuard{verdict: rag.GuardVerdict{Policy: rag.PolicyPass}}
	rewriter := &fakeRewriter{rewrite: rag.Rewrite{Query: "기숙사"}}
	retriever := &fakeRetriever{docs: []rag.Document{{ID: "d1"}}}
	generator := &fakeGenerator{answers: []string{"답변 1", "답변 2", "답변 3"}}
	validator := &fakeValidator{verdicts: []rag.Validation{
		{Decision: rag.DecisionRetry, CriticQuery: "기숙사 입사 신청"},
		{Decision: rag.DecisionRetry, CriticQuery: "생활관 모집"},
		{Decision: rag.DecisionRetry, CriticQuery: "더 이상 안 씀"},
	}}

	p := newTestPipeline(guard, rewriter, retriever, generator, validator)
	res, err := p.Run(context.Background(), "기숙사?", nil)
	if err != nil {
		t.Fatalf("exhaustion must not be an error: %v", err)
	}

	if res.Attempts != 2 {
		t.Errorf("attempts must stop at MaxAttempts=2, got %d", res.Attempts)
	}
	if res.Answer != "답변 3" {
		t.Errorf("expected last generated answer, got %q", res.Answer)
	}
	if res.Validation == nil || res.Validation.Decision != rag.DecisionRetry {
		t.Error("final failing verdict must be surfaced on the result")
	}
	if generator.calls != 3 {
		t.Errorf("expected 3 generations (1 + 2 retries), got %d", generator.calls)
	}
}

func TestRunRetrievalErrorPropagates(t *testing.T) {
	guard := &fakeGuard{verdict: rag.GuardVerdict{Policy: rag.PolicyPass}}
	rewriter := &fakeRewriter{rewrite: rag.Rewrite{Query: "q"}}
	retriever := &fakeRetriever{err: errors.New("index unreachable")}
	generator := &fakeGenerator{answers: []string{"x"}}
	validator := &fakeValidator{verdicts: []rag.Validation{{Decision: rag.DecisionPass}}}

	p := newTestPipeline(guard, rewriter, retriever, generator, validator)
	if _, err := p.Run(context.Background(), "q", nil); err == nil {
		t.Fatal("expected retrieval error to propagate")
	}
}

func TestRunGenerationErrorPropagates(t *testing.T) {
	guard := &fakeGuard{verdict: rag.GuardVerdict{Policy: rag.PolicyPass}}
	rewriter := &fakeRewriter{rewrite: rag.Rewrite{Query: "q"}}
	retriever := &fakeRetriever{}
	generator := &fakeGenerator{err: errors.New("model unavailable")}
	validator := &fakeValidator{verdicts: []rag.Validation{{Decision: rag.DecisionPass}}}

	p := newTestPipeline(guard, rewriter, retriever, generator, validator)
	if _, err := p.Run(context.Background(), "q", nil); err == nil {
		t.Fatal("expected generation error to propagate")
	}
	if validator.calls != 0 {
		t.Error("validator must not run after a generation failure")
	}
}

func TestRunRetryWithEmptyHintKeepsQuery(t *testing.T) {
	guard := &fakeGuard{verdict: rag.GuardVerdict{Policy: rag.PolicyPass}}
	rewriter := &fakeRewriter{rewrite: rag.Rewrite{Query: "수강신청"}}
	retriever := &fakeRetriever{}
	generator := &fakeGenerator{answers: []string{"a", "b"}}
	validator := &fakeValidator{verdicts: []rag.Validation{
		{Decision: rag.DecisionRetry, CriticQuery: ""},
		{Decision: rag.DecisionPass},
	}}

	p := newTestPipeline(guard, rewriter, retriever, generator, validator)
	if _, err := p.Run(context.Background(), "수강신청?", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(retriever.calls) != 2 {
		t.Fatalf("expected 2 retrievals, got %d", len(retriever.calls))
	}
	if retriever.calls[1].query != "수강신청" {
		t.Errorf("empty hint must leave query untouched, got %q", retriever.calls[1].query)
	}
}

func TestKForAttempt(t *testing.T) {
	p := newTestPipeline(nil, nil, nil, nil, nil)

	tests := []struct {
		attempt int
		want    int
	}{
		{0, 6},
		{1, 10},
		{2, 14},
		{3, 18},
		{4, 20}, // capped
		{10, 20},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := p.KForAttempt(tt.attempt); got != tt.want {
				t.Errorf("KForAttempt(%d) = %d, want %d", tt.attempt, got, tt.want)
			}
		})
	}
}
