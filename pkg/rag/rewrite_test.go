package rag

import (
	"testing"
)

func TestBroadenScope(t *testing.T) {
	tests := []struct {
		name    string
		current string
		want    string
	}{
		{
			name:    "drops narrowing qualifiers",
			current: "explain the basics of mitosis briefly",
			want:    "explain the of mitosis",
		},
		{
			name:    "qualifier with punctuation",
			current: "what is DNA, exactly?",
			want:    "what is DNA,",
		},
		{
			name:    "nothing to drop",
			current: "how does photosynthesis work",
			want:    "how does photosynthesis work",
		},
		{
			name:    "all words are qualifiers",
			current: "basics please",
			want:    "basics please",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := broadenScope(tt.current, tt.current); got != tt.want {
				t.Errorf("broadenScope(%q) = %q, want %q", tt.current, got, tt.want)
			}
		})
	}
}

func TestSubstituteSynonyms(t *testing.T) {
	got := substituteSynonyms("", "explain the difference between mitosis and meiosis")
	want := "describe the distinction between mitosis and meiosis"
	if got != want {
		t.Errorf("substituteSynonyms = %q, want %q", got, want)
	}

	unchanged := "photosynthesis in plants"
	if got := substituteSynonyms("", unchanged); got != unchanged {
		t.Errorf("substituteSynonyms changed a query with no mapped terms: %q", got)
	}
}

func TestReframeAsQuestion(t *testing.T) {
	got := reframeAsQuestion("What is osmosis?", "anything")
	want := "What do the source documents say about What is osmosis?"
	if got != want {
		t.Errorf("reframeAsQuestion = %q, want %q", got, want)
	}
}

func TestRewriteIsDeterministic(t *testing.T) {
	o := NewOrchestrator(nil, nil, NopStore{}, DefaultConfig(), nopTestLogger{})

	run := func() string {
		state := newTestState("explain the basics of mitosis")
		state.RetrievalAttempts = 1
		if next, err := o.rewrite(state, NopSink{}); err != nil || next != ActionRetrieve {
			t.Fatalf("rewrite returned (%v, %v), want (retrieve, nil)", next, err)
		}
		return state.CurrentQuery
	}

	first := run()
	second := run()
	if first != second {
		t.Errorf("same attempt produced different rewrites: %q vs %q", first, second)
	}
	if first == "explain the basics of mitosis" {
		t.Error("rewrite left the query unchanged")
	}
}

func TestRewriteCyclesStrategiesByAttempt(t *testing.T) {
	o := NewOrchestrator(nil, nil, NopStore{}, DefaultConfig(), nopTestLogger{})

	queries := make(map[string]bool)
	for attempt := 1; attempt <= 3; attempt++ {
		state := newTestState("explain the basics of cell division")
		state.RetrievalAttempts = attempt
		if _, err := o.rewrite(state, NopSink{}); err != nil {
			t.Fatalf("rewrite attempt %d: %v", attempt, err)
		}
		queries[state.CurrentQuery] = true
	}

	// Each attempt index selects a different strategy, so three attempts on
	// the same query should yield more than one distinct rewrite.
	if len(queries) < 2 {
		t.Errorf("expected distinct rewrites across attempts, got %v", queries)
	}
}

func TestRewriteFallsBackWhenStrategyIsANoop(t *testing.T) {
	o := NewOrchestrator(nil, nil, NopStore{}, DefaultConfig(), nopTestLogger{})

	// No narrowing qualifiers, so the broaden strategy on attempt 1 has
	// nothing to change and the reframe fallback must kick in.
	state := newTestState("how does photosynthesis work")
	state.RetrievalAttempts = 1
	if _, err := o.rewrite(state, NopSink{}); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	if state.CurrentQuery == state.OriginalQuery {
		t.Errorf("rewrite produced no change: %q", state.CurrentQuery)
	}
}
