package rewrite

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

const rewriteSystemPrompt = `당신은 대학 공지사항 RAG를 위한 질의 재작성기입니다.
이전 대화와 원 질문을 참고하여 적절한 질의를 재작성하세요.

반드시 아래 JSON 하나만 반환하세요.
{
  "query": "벡터 검색에 적합한 1~2문장 한국어 질의",
  "keywords": ["핵심", "키워드"],
  "filters": {"departments": [], "grades": [], "tags": []}
}`

const rewriteInstructions = `지침:
1. **query**: 의미 보존하면서 불용어 제거, 동의어/변형어를 괄호로 보강 (예: 휴학(휴학신청,휴학기간)). 대명사는 대화 기록을 참고하여 구체적인 명사로 바꾸고, 고유명사/프로그램명은 그대로 유지하세요.
2. **keywords**: 핵심 키워드 추출 (너무 일반적인 단어 제외, 고유명사가 있다면 추출)
3. **filters**: 질문에 **명시적으로 등장한** 값만 넣으세요. departments는 학과명, grades는 1~4 학년, tags는 주제 태그. 없으면 빈 리스트로 두고 절대 추측하지 마세요.`

type rewriteResult struct {
	Query    string `json:"query"`
	Keywords []string `json:"keywords"`
	Filters  struct {
		Departments []string `json:"departments"`
		Grades      []int    `json:"grades"`
		Tags        []string `json:"tags"`
	} `json:"filters"`
}

// Rewriter turns a raw question plus history into a search-optimized query,
// keyword list, and optional structured filters.
type Rewriter struct {
	provider llm.LLMProvider
	logger   logger.ILogger
	timeout  time.Duration
}

func NewRewriter(provider llm.LLMProvider, log logger.ILogger, timeout time.Duration) *Rewriter {
	return &Rewriter{
		provider: provider,
		logger:   log,
		timeout:  timeout,
	}
}

// Rewrite produces the retrieval query for the turn. Malformed structured
// output falls back to the raw question with empty keywords and filters;
// the pipeline must never block on a rewrite failure.
func (r *Rewriter) Rewrite(ctx context.Context, state *rag.TurnState) rag.Rewrite {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: rewriteSystemPrompt},
		{Role: "user", Content: buildUserPrompt(state)},
	}, llm.WithTemperature(0))
	if err != nil {
		r.logger.Warn("REWRITE", "Rewrite call failed, falling back to raw question", map[string]interface{}{"error": err.Error()})
		return fallback(state.Question)
	}

	var result rewriteResult
	if err := llm.DecodeStructured(out, &result); err != nil {
		r.logger.Warn("REWRITE", "Rewrite output unparseable, falling back to raw question", map[string]interface{}{"error": err.Error()})
		return fallback(state.Question)
	}
	if strings.TrimSpace(result.Query) == "" {
		return fallback(state.Question)
	}

	rw := rag.Rewrite{
		Query:    result.Query,
		Keywords: result.Keywords,
		Filters: rag.Filters{
			Departments: result.Filters.Departments,
			Grades:      validGrades(result.Filters.Grades),
			Tags:        result.Filters.Tags,
		},
	}
	if rw.Keywords == nil {
		rw.Keywords = []string{}
	}

	r.logger.Info("REWRITE", "Query rewritten", map[string]interface{}{
		"question": state.Question,
		"query":    rw.Query,
		"keywords": rw.Keywords,
	})
	return rw
}

func fallback(question string) rag.Rewrite {
	return rag.Rewrite{Query: question, Keywords: []string{}}
}

// validGrades drops anything outside the 1..4 range the university uses.
func validGrades(grades []int) []int {
	var out []int
	for _, g := range grades {
		if g >= 1 && g <= 4 {
			out = append(out, g)
		}
	}
	return out
}

func buildUserPrompt(state *rag.TurnState) string {
	var sb strings.Builder
	sb.WriteString("대화 기록:\n")
	for _, m := range state.HistoryWindow(historyWindow) {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", m.Role, m.Content))
	}
	sb.WriteString("\n원 질문:\n")
	sb.WriteString(state.Question)
	sb.WriteString("\n\n")
	sb.WriteString(rewriteInstructions)
	return sb.String()
}
