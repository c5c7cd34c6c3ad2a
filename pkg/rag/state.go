package rag

import (
	"time"

	"announce-qa-be/pkg/llm"
)

// Policy verdicts from the guard stage.
const (
	PolicyPass  = "PASS"
	PolicyBlock = "BLOCK"
)

// Validation decisions from the validator stage.
const (
	DecisionPass  = "PASS"
	DecisionRetry = "RETRY"
)

// QuerySeparator joins corrective hints onto the working query on retries,
// broadening the search instead of replacing it.
const QuerySeparator = " | "

// Filters are structured retrieval constraints extracted from the question.
// Only values explicitly present in the question are ever populated.
type Filters struct {
	Departments []string `json:"departments"`
	Grades      []int    `json:"grades"`
	Tags        []string `json:"tags"`
}

func (f Filters) Empty() bool {
	return len(f.Departments) == 0 && len(f.Grades) == 0 && len(f.Tags) == 0
}

// Rewrite is the latest search-optimized form of the question.
type Rewrite struct {
	Query    string   `json:"query"`
	Keywords []string `json:"keywords"`
	Filters  Filters  `json:"filters"`
}

// GuardVerdict is set once per turn, never retried.
type GuardVerdict struct {
	Policy string `json:"policy"`
	Reason string `json:"reason"`
}

// Validation is the quality verdict for one generation attempt.
type Validation struct {
	Decision    string `json:"decision"`
	Reason      string `json:"reason"`
	CriticQuery string `json:"critic_query"`
}

// Document is a retrieved announcement passage. The pipeline never mutates
// content, only annotates it with a transient relevance score.
type Document struct {
	ID             string
	AnnouncementID int64
	ChunkIndex     int
	Content        string
	Score          float64

	Title     string
	URL       string
	Author    string
	Board     string
	WrittenAt *time.Time

	TargetDepartments []string
	TargetGrades      []int
	Tags              []string
}

// TurnState is the unit of work flowing through one pipeline execution.
// It is owned exclusively by that execution; no concurrent mutation.
type TurnState struct {
	Question string
	History  []llm.Message

	Rewrite   Rewrite
	Documents []Document
	Answer    string

	Guard      *GuardVerdict
	Validation *Validation

	// Attempt is the zero-based retry counter; it is incremented exactly
	// once per RETRY transition and never exceeds the configured maximum.
	Attempt int
}

// HistoryWindow returns at most n of the most recent history entries.
func (s *TurnState) HistoryWindow(n int) []llm.Message {
	if len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}
