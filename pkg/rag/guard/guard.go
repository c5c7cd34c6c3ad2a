package guard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"announce-qa-be/internal/pkg/logger"
	"announce-qa-be/pkg/llm"
	"announce-qa-be/pkg/rag"
)

const historyWindow = 6

const guardSystemPrompt = `당신은 대학 Q&A 서비스의 가드레일입니다.
아래 기준으로 판정하세요.
- 대학 공지/규칙/행사 등 대학과 관련 없는 내용, 혐오/폭력 조장, 성인물, 공격적/위법한 요청 → BLOCK
- 단, **이전 대화 맥락(Context)에서 이어지는 질문**이라면, 겉보기에 대학과 무관해 보여도 허용(PASS)하세요. (예: "그거 언제야?", "어디서 해?" 등)
- 그 외 → PASS

반드시 아래 JSON 하나만 반환하세요.
{"policy": "PASS" | "BLOCK", "reason": "간단한 한국어 설명"}`

type guardResult struct {
	Policy string `json:"policy"`
	Reason string `json:"reason"`
}

// Guard classifies a question as acceptable or to-be-blocked, aware of
// recent conversation context. It runs exactly once per turn.
type Guard struct {
	provider llm.LLMProvider
	logger   logger.ILogger
	timeout  time.Duration
}

func NewGuard(provider llm.LLMProvider, log logger.ILogger, timeout time.Duration) *Guard {
	return &Guard{
		provider: provider,
		logger:   log,
		timeout:  timeout,
	}
}

// Check returns the policy verdict for the question. Classifier failures and
// unparseable results default to PASS: blocking legitimate users on a flaky
// judgment call is worse than letting a bad question reach retrieval.
func (g *Guard) Check(ctx context.Context, state *rag.TurnState) rag.GuardVerdict {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := buildUserPrompt(state)
	out, err := g.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: guardSystemPrompt},
		{Role: "user", Content: prompt},
	}, llm.WithTemperature(0))
	if err != nil {
		g.logger.Warn("GUARD", "Guardrail call failed, defaulting to PASS", map[string]interface{}{"error": err.Error()})
		return rag.GuardVerdict{Policy: rag.PolicyPass, Reason: ""}
	}

	var result guardResult
	if err := llm.DecodeStructured(out, &result); err != nil {
		g.logger.Warn("GUARD", "Guardrail output unparseable, defaulting to PASS", map[string]interface{}{"error": err.Error()})
		return rag.GuardVerdict{Policy: rag.PolicyPass, Reason: ""}
	}

	if result.Policy != rag.PolicyBlock {
		result.Policy = rag.PolicyPass
	}
	return rag.GuardVerdict{Policy: result.Policy, Reason: result.Reason}
}

func buildUserPrompt(state *rag.TurnState) string {
	var sb strings.Builder
	sb.WriteString("대화 기록:\n")
	for _, m := range state.HistoryWindow(historyWindow) {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", m.Role, m.Content))
	}
	sb.WriteString("\n사용자 질문:\n")
	sb.WriteString(state.Question)
	return sb.String()
}
