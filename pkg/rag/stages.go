package rag

import (
	"context"
	"fmt"
	"strings"

	"ai-tutor-be/pkg/stream"
)

// analyze classifies the original query. Runs once per session.
func (o *Orchestrator) analyze(ctx context.Context, state *SessionState, sink EventSink) (NextAction, error) {
	state.Think(StageAnalyzing, "Analyzing the question")
	sink.Emit(stream.EventThinking, map[string]interface{}{
		"stage":   string(StageAnalyzing),
		"message": "Analyzing the question",
	})

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CapabilityTimeout)
	defer cancel()

	analysis, err := o.generator.Analyze(callCtx, state.OriginalQuery)
	if err != nil {
		return ActionFail, fmt.Errorf("query analysis failed: %w", err)
	}
	state.Analysis = analysis
	state.Think(StageAnalyzing, fmt.Sprintf("Intent: %s (%s)", analysis.Intent, analysis.Complexity))

	sink.Emit(stream.EventObservation, map[string]interface{}{
		"stage":        string(StageAnalyzing),
		"intent":       analysis.Intent,
		"key_concepts": analysis.KeyConcepts,
		"complexity":   analysis.Complexity,
	})
	return ActionRetrieve, nil
}

// retrieve fetches candidate chunks for the current query within the allowed
// document scope. An empty result set is a routing outcome, not an error.
func (o *Orchestrator) retrieve(ctx context.Context, state *SessionState, sink EventSink) (NextAction, error) {
	state.RetrievalAttempts++
	state.Think(StageRetrieving, fmt.Sprintf("Searching sources (attempt %d)", state.RetrievalAttempts))
	sink.Emit(stream.EventSourceRetrieving, map[string]interface{}{
		"query":   state.CurrentQuery,
		"attempt": state.RetrievalAttempts,
	})

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CapabilityTimeout)
	defer cancel()

	docs, err := o.retriever.Retrieve(callCtx, state.CurrentQuery, state.AllowedDocumentIDs, o.cfg.TopK)
	if err != nil {
		return ActionFail, fmt.Errorf("retrieval failed: %w", err)
	}
	state.RetrievedDocuments = docs

	titles := make([]string, 0, len(docs))
	for _, d := range docs {
		titles = append(titles, d.SourceTitle)
	}
	state.Think(StageRetrieving, fmt.Sprintf("Found %d candidate chunks", len(docs)))
	sink.Emit(stream.EventSourceFound, map[string]interface{}{
		"count":   len(docs),
		"sources": titles,
	})
	return ActionGrade, nil
}

// grade applies the relevance predicate and decides the corrective route.
func (o *Orchestrator) grade(state *SessionState, sink EventSink) (NextAction, error) {
	graded := GradeDocuments(state.RetrievedDocuments, o.cfg.RelevanceThreshold)
	state.RetrievedDocuments = graded

	// RelevantDocuments is fully replaced each time; it is a filtered view
	// of the latest retrieval, never an accumulation.
	relevant := make([]RetrievedDocument, 0, len(graded))
	for _, d := range graded {
		if d.IsRelevant {
			relevant = append(relevant, d)
		}
	}
	state.RelevantDocuments = relevant

	state.Think(StageGrading, fmt.Sprintf("%d of %d chunks graded relevant", len(relevant), len(graded)))
	sink.Emit(stream.EventObservation, map[string]interface{}{
		"stage":     string(StageGrading),
		"retrieved": len(graded),
		"relevant":  len(relevant),
		"threshold": o.cfg.RelevanceThreshold,
	})

	if len(relevant) >= o.cfg.MinRelevantDocuments {
		return ActionGenerate, nil
	}
	if state.RetrievalAttempts < o.cfg.MaxRetrievalAttempts && o.cfg.EnableRewrite {
		sink.Emit(stream.EventErrorRetry, map[string]interface{}{
			"message": "No relevant sources yet, rewriting the query",
			"attempt": state.RetrievalAttempts,
		})
		return ActionRewrite, nil
	}
	return ActionFail, ErrNoRelevantDocuments
}

// GradeDocuments applies the relevance predicate to every chunk. It is a pure
// function of its inputs: same documents and threshold, same grades.
func GradeDocuments(docs []RetrievedDocument, threshold float64) []RetrievedDocument {
	graded := make([]RetrievedDocument, len(docs))
	for i, d := range docs {
		d.IsRelevant = d.RelevanceScore >= threshold
		if d.IsRelevant {
			d.GradeReason = fmt.Sprintf("score %.2f meets threshold %.2f", d.RelevanceScore, threshold)
		} else {
			d.GradeReason = fmt.Sprintf("score %.2f below threshold %.2f", d.RelevanceScore, threshold)
		}
		graded[i] = d
	}
	return graded
}

// generate produces the grounded answer from the relevant documents.
func (o *Orchestrator) generate(ctx context.Context, state *SessionState, sink EventSink) (NextAction, error) {
	state.Think(StageGenerating, "Generating the answer")
	sink.Emit(stream.EventGenerationStart, map[string]interface{}{
		"sources": len(state.RelevantDocuments),
	})

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CapabilityTimeout)
	defer cancel()

	result, err := o.generator.Generate(callCtx, state.CurrentQuery, state.RelevantDocuments)
	if err != nil {
		return ActionFail, fmt.Errorf("answer generation failed: %w", err)
	}
	state.Generation = result
	state.Think(StageGenerating, fmt.Sprintf("Answer drafted (%d sources cited)", len(result.SourcesUsed)))

	sink.Emit(stream.EventGenerationComplete, map[string]interface{}{
		"answer":       result.Answer,
		"confidence":   result.Confidence,
		"sources_used": result.SourcesUsed,
	})

	if o.cfg.EnableVerification {
		return ActionVerify, nil
	}
	return ActionComplete, nil
}

// verify runs the hallucination check. The verdict is recorded and surfaced
// but never changes the route: verification always proceeds to COMPLETE.
// Flag-only by current policy; do not add a regenerate path here without a
// product decision.
func (o *Orchestrator) verify(ctx context.Context, state *SessionState, sink EventSink) (NextAction, error) {
	state.Think(StageVerifying, "Checking the answer against its sources")
	sink.Emit(stream.EventValidationStart, map[string]interface{}{
		"sources": len(state.RelevantDocuments),
	})

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CapabilityTimeout)
	defer cancel()

	verdict, err := o.generator.Verify(callCtx, state.Generation.Answer, state.RelevantDocuments)
	if err != nil {
		return ActionFail, fmt.Errorf("answer verification failed: %w", err)
	}
	state.Generation.Verified = true
	state.Generation.HasHallucination = verdict.HasHallucination
	state.Generation.HallucinationDetails = verdict.Details

	msg := "All claims supported by the cited sources"
	if verdict.HasHallucination {
		msg = "Unsupported claims detected: " + verdict.Details
	}
	state.Think(StageVerifying, msg)

	sink.Emit(stream.EventValidationResult, map[string]interface{}{
		"has_hallucination": verdict.HasHallucination,
		"details":           verdict.Details,
	})
	return ActionComplete, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max]) + "..."
}
