package constant

// Session lifecycle statuses as persisted in rag_sessions.status.
const (
	SessionStatusPending    = "pending"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusFailed     = "failed"
	SessionStatusPaused     = "paused"
)

// Session kinds. Answer sessions run the corrective RAG pipeline; question
// sessions run the practice-question generation workflow.
const (
	SessionKindAnswer   = "answer"
	SessionKindQuestion = "question"
)

// Per-question review statuses.
const (
	QuestionStatusPending  = "pending"
	QuestionStatusApproved = "approved"
	QuestionStatusRejected = "rejected"
)

const (
	ChatMessageRoleUser   = "user"
	ChatMessageRoleModel  = "model"
	ChatMessageRoleSystem = "system"
)
