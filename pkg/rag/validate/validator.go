package validate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"announce-qa-be/internal/pkg/logger"
	"announce-qa-be/pkg/llm"
	"announce-qa-be/pkg/rag"
)

const validateSystemPrompt = `당신은 공지사항 RAG의 품질 검증기입니다.
반드시 아래 JSON 하나만 반환하세요.
스키마:
{
  "decision": "PASS" | "RETRY",
  "reason": "간단한 한국어 설명",
  "critic_query": "재시도 시 개선된 검색 질의 제안(없으면 빈 문자열)"
}

판단 기준(하나라도 충족 못하면 RETRY 권장):
- 답변이 질문에 직접적으로 응답하는가?
- 답변의 구체적인 내용이 제공된 문서에서 확인 가능한가?
- 표현이 모호하면 모호함을 명시했는가?`

type validateResult struct {
	Decision    string `json:"decision"`
	Reason      string `json:"reason"`
	CriticQuery string `json:"critic_query"`
}

// Validator judges whether the generated answer is adequate; on failure it
// proposes a corrective search hint for the next retry cycle.
type Validator struct {
	provider llm.LLMProvider
	logger   logger.ILogger
	timeout  time.Duration
}

func NewValidator(provider llm.LLMProvider, log logger.ILogger, timeout time.Duration) *Validator {
	return &Validator{
		provider: provider,
		logger:   log,
		timeout:  timeout,
	}
}

// Validate returns the verdict for the current attempt. Classifier failure
// defaults to PASS (fail-open) so a flaky judgment call never causes
// infinite or user-visible retries.
func (v *Validator) Validate(ctx context.Context, state *rag.TurnState) rag.Validation {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	out, err := v.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: validateSystemPrompt},
		{Role: "user", Content: buildUserPrompt(state)},
	}, llm.WithTemperature(0))
	if err != nil {
		v.logger.Warn("VALIDATE", "Validation call failed, defaulting to PASS", map[string]interface{}{"error": err.Error()})
		return rag.Validation{Decision: rag.DecisionPass}
	}

	var result validateResult
	if err := llm.DecodeStructured(out, &result); err != nil {
		v.logger.Warn("VALIDATE", "Validation output unparseable, defaulting to PASS", map[string]interface{}{"error": err.Error()})
		return rag.Validation{Decision: rag.DecisionPass}
	}

	if result.Decision != rag.DecisionRetry {
		result.Decision = rag.DecisionPass
	}

	verdict := rag.Validation{
		Decision:    result.Decision,
		Reason:      result.Reason,
		CriticQuery: result.CriticQuery,
	}
	v.logger.Info("VALIDATE", "Answer validated", map[string]interface{}{
		"decision": verdict.Decision,
		"reason":   verdict.Reason,
		"attempt":  state.Attempt,
	})
	return verdict
}

func buildUserPrompt(state *rag.TurnState) string {
	var sb strings.Builder
	sb.WriteString("원 질문:\n")
	sb.WriteString(state.Question)
	sb.WriteString("\n\n생성된 답변:\n")
	sb.WriteString(state.Answer)
	sb.WriteString("\n\n문서 목록:\n")
	for _, d := range state.Documents {
		sb.WriteString(fmt.Sprintf("- %s\n", d.Content))
	}
	return sb.String()
}
