package rag

import (
	"time"

	"github.com/google/uuid"
)

// Stage identifies one processing step of the answer pipeline.
type Stage string

const (
	StageAnalyzing  Stage = "ANALYZING"
	StageRetrieving Stage = "RETRIEVING"
	StageGrading    Stage = "GRADING"
	StageRewriting  Stage = "REWRITING"
	StageGenerating Stage = "GENERATING"
	StageVerifying  Stage = "VERIFYING"
	StageComplete   Stage = "COMPLETE"
	StageFailed     Stage = "FAILED"
)

// NextAction is the routing decision a stage hands back to the orchestrator.
// Only typed constants exist, so a stage cannot route somewhere the
// interpreter does not know about.
type NextAction int

const (
	ActionAnalyze NextAction = iota
	ActionRetrieve
	ActionGrade
	ActionRewrite
	ActionGenerate
	ActionVerify
	ActionComplete
	ActionFail
)

func (a NextAction) String() string {
	switch a {
	case ActionAnalyze:
		return "analyze"
	case ActionRetrieve:
		return "retrieve"
	case ActionGrade:
		return "grade"
	case ActionRewrite:
		return "rewrite"
	case ActionGenerate:
		return "generate"
	case ActionVerify:
		return "verify"
	case ActionComplete:
		return "complete"
	case ActionFail:
		return "fail"
	}
	return "unknown"
}

// QueryAnalysis is produced once by the analyze stage and read-only after.
type QueryAnalysis struct {
	Intent              string   `json:"intent"`
	KeyConcepts         []string `json:"key_concepts"`
	ExpectedAnswerShape string   `json:"expected_answer_shape"`
	Complexity          string   `json:"complexity"`
}

// RetrievedDocument is one scored source chunk. IsRelevant and GradeReason
// are filled by the grading stage.
type RetrievedDocument struct {
	SourceID       string  `json:"source_id"`
	SourceTitle    string  `json:"source_title"`
	Content        string  `json:"content"`
	Location       string  `json:"location"`
	RelevanceScore float64 `json:"relevance_score"`
	IsRelevant     bool    `json:"is_relevant"`
	GradeReason    string  `json:"grade_reason,omitempty"`
}

// GenerationResult holds the answer plus the verification verdict. The
// verdict is informational: it never gates completion.
type GenerationResult struct {
	Answer               string   `json:"answer"`
	Confidence           float64  `json:"confidence"`
	SourcesUsed          []string `json:"sources_used"`
	Verified             bool     `json:"verified"`
	HasHallucination     bool     `json:"has_hallucination"`
	HallucinationDetails string   `json:"hallucination_details,omitempty"`
}

// ThinkingStep is one entry in the append-only progress trace.
type ThinkingStep struct {
	Stage   Stage     `json:"stage"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// SessionState is the mutable record threaded through the pipeline. One
// instance per in-flight session; never shared between goroutines.
type SessionState struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
	TenantID  uuid.UUID

	OriginalQuery string
	CurrentQuery  string
	Analysis      *QueryAnalysis

	AllowedDocumentIDs []uuid.UUID

	RetrievedDocuments []RetrievedDocument
	RelevantDocuments  []RetrievedDocument

	RetrievalAttempts int
	IterationCount    int

	Generation *GenerationResult

	IsComplete  bool
	ErrorReason string

	ThinkingSteps []ThinkingStep

	StartedAt   time.Time
	CompletedAt *time.Time
}

// NewSessionState builds the initial state for a fresh session.
// CurrentQuery starts equal to OriginalQuery; it diverges only after a
// rewrite stage has run.
func NewSessionState(sessionID, userID, tenantID uuid.UUID, query string, allowedDocIDs []uuid.UUID) *SessionState {
	return &SessionState{
		SessionID:          sessionID,
		UserID:             userID,
		TenantID:           tenantID,
		OriginalQuery:      query,
		CurrentQuery:       query,
		AllowedDocumentIDs: allowedDocIDs,
		StartedAt:          time.Now().UTC(),
	}
}

// Think appends one trace entry. The trace is append-only.
func (s *SessionState) Think(stage Stage, message string) {
	s.ThinkingSteps = append(s.ThinkingSteps, ThinkingStep{
		Stage:   stage,
		Message: message,
		At:      time.Now().UTC(),
	})
}

// Failed reports whether the session terminated with an error.
func (s *SessionState) Failed() bool {
	return s.IsComplete && s.ErrorReason != ""
}
