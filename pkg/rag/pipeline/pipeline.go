package pipeline

import (
	"context"

	"announce-qa-be/internal/pkg/logger"
	"announce-qa-be/pkg/llm"
	"announce-qa-be/pkg/rag"
)

// RefusalMessage is the fixed response for blocked questions. Sources are
// always suppressed alongside it.
const RefusalMessage = "죄송합니다. 해당 질문에는 답변드릴 수 없어요. 대학 공지사항과 관련된 질문을 해주세요."

// Stage contracts. The orchestrator only sees these, so the retry state
// machine is testable without any model or index behind it.
type GuardStage interface {
	Check(ctx context.Context, state *rag.TurnState) rag.GuardVerdict
}

type RewriteStage interface {
	Rewrite(ctx context.Context, state *rag.TurnState) rag.Rewrite
}

type RetrieveStage interface {
	Retrieve(ctx context.Context, query string, k int, filters rag.Filters) ([]rag.Document, error)
}

type GenerateStage interface {
	Generate(ctx context.Context, state *rag.TurnState) (string, error)
}

type ValidateStage interface {
	Validate(ctx context.Context, state *rag.TurnState) rag.Validation
}

// Config bounds the retry loop and sizes retrieval per attempt.
type Config struct {
	MaxAttempts int
	BaseK       int
	KStep       int
	KMax        int
}

// nodeState enumerates the control-flow graph explicitly; bounding Attempt
// makes termination and the maximum call count provable.
type nodeState int

const (
	nodeGuard nodeState = iota
	nodeRewrite
	nodeRetrieve
	nodeGenerate
	nodeValidate
	nodeEndBlocked
	nodeEndComplete
)

// Result is what one turn execution yields.
type Result struct {
	Answer     string
	Blocked    bool
	Documents  []rag.Document
	Guard      *rag.GuardVerdict
	Validation *rag.Validation
	Attempts   int
}

// Pipeline wires the five stages into a directed graph with one feedback
// cycle: GUARD → REWRITE → RETRIEVE → GENERATE → VALIDATE → {loop | END}.
type Pipeline struct {
	guard     GuardStage
	rewriter  RewriteStage
	retriever RetrieveStage
	generator GenerateStage
	validator ValidateStage
	cfg       Config
	logger    logger.ILogger
}

func New(
	guard GuardStage,
	rewriter RewriteStage,
	retriever RetrieveStage,
	generator GenerateStage,
	validator ValidateStage,
	cfg Config,
	log logger.ILogger,
) *Pipeline {
	return &Pipeline{
		guard:     guard,
		rewriter:  rewriter,
		retriever: retriever,
		generator: generator,
		validator: validator,
		cfg:       cfg,
		logger:    log,
	}
}

// KForAttempt widens retrieval with each retry: repeated failures are met
// with broader search, not identical search. Monotonically non-decreasing,
// capped at KMax.
func (p *Pipeline) KForAttempt(attempt int) int {
	k := p.cfg.BaseK + attempt*p.cfg.KStep
	if k > p.cfg.KMax {
		return p.cfg.KMax
	}
	return k
}

// Run executes one conversation turn. Only generation failures and an
// unreachable index return an error; every other stage falls back per its
// own failure policy. Budget exhaustion is not an error: the last answer is
// returned with its (possibly still failing) validation verdict attached.
func (p *Pipeline) Run(ctx context.Context, question string, history []llm.Message) (*Result, error) {
	st := &rag.TurnState{
		Question: question,
		History:  history,
	}

	node := nodeGuard
	for {
		switch node {
		case nodeGuard:
			verdict := p.guard.Check(ctx, st)
			st.Guard = &verdict
			if verdict.Policy == rag.PolicyBlock {
				p.logger.Info("PIPELINE", "Question blocked by guardrail", map[string]interface{}{"reason": verdict.Reason})
				node = nodeEndBlocked
			} else {
				node = nodeRewrite
			}

		case nodeRewrite:
			if st.Attempt == 0 {
				st.Rewrite = p.rewriter.Rewrite(ctx, st)
			} else if hint := st.Validation.CriticQuery; hint != "" {
				// Retries concatenate the corrective hint instead of
				// re-invoking the rewriter, so retrieval broadens
				// rather than narrows.
				st.Rewrite.Query = st.Rewrite.Query + rag.QuerySeparator + hint
			}
			node = nodeRetrieve

		case nodeRetrieve:
			k := p.KForAttempt(st.Attempt)
			docs, err := p.retriever.Retrieve(ctx, st.Rewrite.Query, k, st.Rewrite.Filters)
			if err != nil {
				return nil, err
			}
			st.Documents = docs
			node = nodeGenerate

		case nodeGenerate:
			answer, err := p.generator.Generate(ctx, st)
			if err != nil {
				return nil, err
			}
			st.Answer = answer
			node = nodeValidate

		case nodeValidate:
			verdict := p.validator.Validate(ctx, st)
			st.Validation = &verdict
			if verdict.Decision == rag.DecisionRetry && st.Attempt < p.cfg.MaxAttempts {
				st.Attempt++
				p.logger.Info("PIPELINE", "Validation requested retry", map[string]interface{}{
					"attempt": st.Attempt,
					"hint":    verdict.CriticQuery,
				})
				node = nodeRewrite
			} else {
				node = nodeEndComplete
			}

		case nodeEndBlocked:
			return &Result{
				Answer:  RefusalMessage,
				Blocked: true,
				Guard:   st.Guard,
			}, nil

		case nodeEndComplete:
			return &Result{
				Answer:     st.Answer,
				Documents:  st.Documents,
				Guard:      st.Guard,
				Validation: st.Validation,
				Attempts:   st.Attempt,
			}, nil
		}
	}
}
