package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"announce-qa-be/internal/pkg/logger"
	"announce-qa-be/pkg/llm"
	"announce-qa-be/pkg/rag"
)

const historyWindow = 10

const generateSystemPrompt = `당신은 대학교 공지사항 Q&A 도우미입니다.
지침:
- **오직 제공된 '참고할 공지'에 있는 내용만 사용하여 답변하세요.** 외부 지식이나 추측을 사용하지 마세요.
- **"제공된 공지에 따르면", "문서에 의하면" 같은 사족(Meta-talk)은 절대 사용하지 마세요.**
- 문맥에 답이 없으면 "제공된 공지사항 내용으로는 알 수 없습니다."라고 솔직하게 말하세요.
- 날짜/마감일은 'YYYY-MM-DD(요일)'로 명확히 표기하세요.
- 답변에 마크다운 문법 **, ~, 등을 사용하지 마세요.
- 사실에 기반하지 않은 내용은 절대 지어내지 마세요.
- 자연스러운 톤으로 대화하세요.
- 마지막에 추가 정보를 제시하세요.`

// Generator synthesizes a grounded answer from retrieved context, the
// conversation history, and the rewritten query.
type Generator struct {
	provider llm.LLMProvider
	logger   logger.ILogger
	timeout  time.Duration
}

func NewGenerator(provider llm.LLMProvider, log logger.ILogger, timeout time.Duration) *Generator {
	return &Generator{
		provider: provider,
		logger:   log,
		timeout:  timeout,
	}
}

// Generate returns the answer text. A generation failure is fatal to the
// turn: there is no safe substitute for a fabricated answer, so the error
// propagates to the caller.
func (g *Generator) Generate(ctx context.Context, state *rag.TurnState) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	answer, err := g.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: generateSystemPrompt},
		{Role: "user", Content: buildUserPrompt(state)},
	}, llm.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}

	g.logger.Info("GENERATE", "Answer generated", map[string]interface{}{
		"attempt":   state.Attempt,
		"documents": len(state.Documents),
	})
	return answer, nil
}

func buildUserPrompt(state *rag.TurnState) string {
	var sb strings.Builder

	sb.WriteString("이전 대화:\n")
	for _, m := range state.HistoryWindow(historyWindow) {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", m.Role, m.Content))
	}

	sb.WriteString("\n질문: ")
	sb.WriteString(state.Question)
	sb.WriteString("\n\n검색 질의(재작성): ")
	sb.WriteString(state.Rewrite.Query)
	sb.WriteString("\n핵심 키워드: ")
	sb.WriteString(strings.Join(state.Rewrite.Keywords, ", "))
	sb.WriteString("\n적용된 필터: ")
	sb.WriteString(formatFilters(state.Rewrite.Filters))

	sb.WriteString("\n\n참고할 공지:\n")
	sb.WriteString(FormatContext(state.Documents))

	sb.WriteString("\n이 질문에 대해 정확한 답변을 작성하세요.")
	return sb.String()
}

// FormatContext renders retrieved documents as the grounding block of the
// generation prompt, one titled section per passage with its provenance.
func FormatContext(docs []rag.Document) string {
	var sb strings.Builder
	for _, d := range docs {
		info := []string{
			fmt.Sprintf("Doc ID:%d", d.AnnouncementID),
			fmt.Sprintf("게시판:%s", orUnknown(d.Board)),
			fmt.Sprintf("작성일:%s", formatDate(d.WrittenAt)),
		}
		if len(d.Tags) > 0 {
			info = append(info, fmt.Sprintf("태그:%s", strings.Join(d.Tags, ",")))
		}
		if len(d.TargetDepartments) > 0 {
			info = append(info, fmt.Sprintf("대상학과:%s", strings.Join(d.TargetDepartments, ",")))
		}
		if len(d.TargetGrades) > 0 {
			info = append(info, fmt.Sprintf("대상학년:%s학년", joinInts(d.TargetGrades)))
		}

		title := d.Title
		if title == "" {
			title = "(제목없음)"
		}
		sb.WriteString(fmt.Sprintf("Title:[%s]\n", title))
		sb.WriteString(fmt.Sprintf("URL: %s\n", orUnknown(d.URL)))
		sb.WriteString(fmt.Sprintf("Content: %s\n", d.Content))
		sb.WriteString(fmt.Sprintf("Info: %s\n\n", strings.Join(info, " | ")))
	}
	return sb.String()
}

func formatFilters(f rag.Filters) string {
	var parts []string
	if len(f.Departments) > 0 {
		parts = append(parts, fmt.Sprintf("학과: %s", strings.Join(f.Departments, ", ")))
	}
	if len(f.Grades) > 0 {
		parts = append(parts, fmt.Sprintf("학년: %s학년", joinInts(f.Grades)))
	}
	if len(f.Tags) > 0 {
		parts = append(parts, fmt.Sprintf("태그: %s", strings.Join(f.Tags, ", ")))
	}
	if len(parts) == 0 {
		return "없음"
	}
	return strings.Join(parts, ", ")
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%d", x)
	}
	return strings.Join(parts, ", ")
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "미상"
	}
	return t.Format("2006-01-02")
}

func orUnknown(s string) string {
	if s == "" {
		return "없음"
	}
	return s
}
