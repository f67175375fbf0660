package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/stream"
)

// Orchestrator runs the self-corrective answer pipeline:
//
//	ANALYZING -> RETRIEVING -> GRADING -> { REWRITING -> RETRIEVING | GENERATING }
//	           -> { VERIFYING -> COMPLETE | COMPLETE }, FAILED from anywhere.
//
// The stage set is closed, so routing is a plain switch over NextAction
// rather than a dynamically wired graph. One orchestrator instance is safe
// for concurrent use; each Run call owns its SessionState exclusively.
type Orchestrator struct {
	retriever Retriever
	generator Generator
	store     SessionStore
	cfg       Config
	logger    logger.ILogger
}

func NewOrchestrator(
	retriever Retriever,
	generator Generator,
	store SessionStore,
	cfg Config,
	log logger.ILogger,
) *Orchestrator {
	return &Orchestrator{
		retriever: retriever,
		generator: generator,
		store:     store,
		cfg:       cfg,
		logger:    log,
	}
}

// Run drives the state machine to a terminal state. It always returns a
// state with IsComplete=true: either a successful completion or a failure
// with ErrorReason set. The terminal session-store write happens before Run
// returns, and exactly one terminal event is emitted on the sink, last.
func (o *Orchestrator) Run(ctx context.Context, state *SessionState, sink EventSink) *SessionState {
	if sink == nil {
		sink = NopSink{}
	}
	state.StartedAt = time.Now().UTC()

	action := ActionAnalyze
	for {
		if err := ctx.Err(); err != nil {
			o.fail(state, sink, ErrCancelled)
			return state
		}
		if state.IterationCount >= o.cfg.MaxIterations {
			o.fail(state, sink, ErrIterationLimit)
			return state
		}
		state.IterationCount++

		next, err := o.execute(ctx, action, state, sink)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				err = ErrCancelled
			}
			o.fail(state, sink, err)
			return state
		}

		if next == ActionComplete {
			o.complete(state, sink)
			return state
		}

		// Durable checkpoint after each stage; a failing checkpoint is
		// logged, never fatal mid-flight.
		o.checkpoint(ctx, state)

		action = next
	}
}

func (o *Orchestrator) execute(ctx context.Context, action NextAction, state *SessionState, sink EventSink) (NextAction, error) {
	switch action {
	case ActionAnalyze:
		return o.analyze(ctx, state, sink)
	case ActionRetrieve:
		return o.retrieve(ctx, state, sink)
	case ActionGrade:
		return o.grade(state, sink)
	case ActionRewrite:
		return o.rewrite(state, sink)
	case ActionGenerate:
		return o.generate(ctx, state, sink)
	case ActionVerify:
		return o.verify(ctx, state, sink)
	default:
		return ActionFail, fmt.Errorf("unroutable action %q", action)
	}
}

// checkpoint persists the in-flight state. Mid-flight persistence failures
// must not abort the session.
func (o *Orchestrator) checkpoint(ctx context.Context, state *SessionState) {
	if err := o.store.Update(ctx, state); err != nil {
		o.logger.Warn("RAG", "Session checkpoint failed", map[string]interface{}{
			"session_id": state.SessionID,
			"error":      err.Error(),
		})
	}
}

func (o *Orchestrator) complete(state *SessionState, sink EventSink) {
	now := time.Now().UTC()
	state.IsComplete = true
	state.CompletedAt = &now
	state.Think(StageComplete, "Answer ready")

	// Terminal write first: the store must be durable before the consumer
	// sees the terminal event.
	if err := o.store.Update(context.Background(), state); err != nil {
		o.logger.Error("RAG", "Terminal session write failed", map[string]interface{}{
			"session_id": state.SessionID,
			"error":      err.Error(),
		})
	}

	payload := map[string]interface{}{
		"status":     "completed",
		"iterations": state.IterationCount,
		"attempts":   state.RetrievalAttempts,
	}
	if state.Generation != nil {
		payload["answer"] = state.Generation.Answer
		payload["confidence"] = state.Generation.Confidence
		payload["sources_used"] = state.Generation.SourcesUsed
		payload["has_hallucination"] = state.Generation.HasHallucination
		if state.Generation.HallucinationDetails != "" {
			payload["hallucination_details"] = state.Generation.HallucinationDetails
		}
	}
	sink.Emit(stream.EventDone, payload)
}

func (o *Orchestrator) fail(state *SessionState, sink EventSink, cause error) {
	now := time.Now().UTC()
	state.IsComplete = true
	state.CompletedAt = &now
	state.ErrorReason = cause.Error()
	state.Think(StageFailed, cause.Error())

	if err := o.store.Update(context.Background(), state); err != nil {
		o.logger.Error("RAG", "Terminal session write failed", map[string]interface{}{
			"session_id": state.SessionID,
			"error":      err.Error(),
		})
	}

	// Exactly one error event, then the terminal event, in that order.
	sink.Emit(stream.EventErrorMessage, map[string]interface{}{
		"message": cause.Error(),
	})
	sink.Emit(stream.EventDone, map[string]interface{}{
		"status":     "failed",
		"error":      cause.Error(),
		"iterations": state.IterationCount,
		"attempts":   state.RetrievalAttempts,
	})
}
