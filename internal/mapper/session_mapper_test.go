package mapper

import (
	"testing"
	"time"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/pkg/rag"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStateStatusMapping(t *testing.T) {
	m := NewSessionMapper()
	now := time.Now().UTC()

	tests := []struct {
		name       string
		mutate     func(s *rag.SessionState)
		wantStatus string
	}{
		{
			name:       "in flight",
			mutate:     func(s *rag.SessionState) {},
			wantStatus: constant.SessionStatusInProgress,
		},
		{
			name: "completed",
			mutate: func(s *rag.SessionState) {
				s.IsComplete = true
				s.CompletedAt = &now
			},
			wantStatus: constant.SessionStatusCompleted,
		},
		{
			name: "failed",
			mutate: func(s *rag.SessionState) {
				s.IsComplete = true
				s.ErrorReason = rag.ErrNoRelevantDocuments.Error()
				s.CompletedAt = &now
			},
			wantStatus: constant.SessionStatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := rag.NewSessionState(uuid.New(), uuid.New(), uuid.New(), "query", nil)
			tt.mutate(state)

			e := m.FromState(state, constant.SessionKindAnswer, rag.DefaultConfig())
			assert.Equal(t, tt.wantStatus, e.Status)
			assert.Equal(t, state.SessionID, e.Id)
			assert.Equal(t, constant.SessionKindAnswer, e.Kind)
		})
	}
}

func TestFromStateLeavesAbsentSnapshotsNil(t *testing.T) {
	m := NewSessionMapper()
	state := rag.NewSessionState(uuid.New(), uuid.New(), uuid.New(), "query", nil)

	e := m.FromState(state, constant.SessionKindAnswer, rag.DefaultConfig())
	assert.Nil(t, e.Analysis)
	assert.Nil(t, e.Generation)

	restored, err := m.ToState(e)
	require.NoError(t, err)
	assert.Nil(t, restored.Analysis)
	assert.Nil(t, restored.Generation)
}

func TestStateSurvivesRoundTrip(t *testing.T) {
	m := NewSessionMapper()

	state := rag.NewSessionState(uuid.New(), uuid.New(), uuid.New(), "What is osmosis?", []uuid.UUID{uuid.New()})
	state.CurrentQuery = "What do the source documents say about What is osmosis?"
	state.RetrievalAttempts = 2
	state.IterationCount = 7
	state.Analysis = &rag.QueryAnalysis{Intent: "conceptual", KeyConcepts: []string{"osmosis"}, Complexity: "simple"}
	state.RelevantDocuments = []rag.RetrievedDocument{
		{SourceID: "doc-1", SourceTitle: "Biology", Content: "...", RelevanceScore: 0.9, IsRelevant: true},
	}
	state.Generation = &rag.GenerationResult{Answer: "Water moves across a membrane.", Confidence: 0.8, Verified: true}
	state.Think(rag.StageComplete, "Answer ready")
	now := time.Now().UTC().Truncate(time.Second)
	state.IsComplete = true
	state.CompletedAt = &now

	restored, err := m.ToState(m.FromState(state, constant.SessionKindAnswer, rag.DefaultConfig()))
	require.NoError(t, err)

	assert.Equal(t, state.SessionID, restored.SessionID)
	assert.Equal(t, state.OriginalQuery, restored.OriginalQuery)
	assert.Equal(t, state.CurrentQuery, restored.CurrentQuery)
	assert.Equal(t, state.RetrievalAttempts, restored.RetrievalAttempts)
	assert.Equal(t, state.IterationCount, restored.IterationCount)
	assert.Equal(t, state.AllowedDocumentIDs, restored.AllowedDocumentIDs)
	assert.True(t, restored.IsComplete)
	require.NotNil(t, restored.Analysis)
	assert.Equal(t, "conceptual", restored.Analysis.Intent)
	require.NotNil(t, restored.Generation)
	assert.Equal(t, state.Generation.Answer, restored.Generation.Answer)
	require.Len(t, restored.RelevantDocuments, 1)
	assert.Equal(t, "doc-1", restored.RelevantDocuments[0].SourceID)
	require.Len(t, restored.ThinkingSteps, 1)
	assert.Equal(t, rag.StageComplete, restored.ThinkingSteps[0].Stage)
}
