package rag

import (
	"fmt"
	"strings"

	"ai-tutor-be/pkg/stream"
)

// rewriteStrategy deterministically reformulates a query. Strategies are
// selected by retrieval attempt index, never randomly, so a rerun with the
// same attempt number produces the same query.
type rewriteStrategy struct {
	name  string
	apply func(original, current string) string
}

var rewriteStrategies = []rewriteStrategy{
	{name: "broaden", apply: broadenScope},
	{name: "synonym", apply: substituteSynonyms},
	{name: "reframe", apply: reframeAsQuestion},
}

// rewrite reformulates the current query and always routes back to retrieval.
func (o *Orchestrator) rewrite(state *SessionState, sink EventSink) (NextAction, error) {
	strategy := rewriteStrategies[(state.RetrievalAttempts-1)%len(rewriteStrategies)]

	rewritten := strategy.apply(state.OriginalQuery, state.CurrentQuery)
	if rewritten == state.CurrentQuery {
		// The strategy had nothing to change; fall back to reframing so the
		// next retrieval still sees a different query.
		rewritten = reframeAsQuestion(state.OriginalQuery, state.CurrentQuery)
	}
	state.CurrentQuery = rewritten

	state.Think(StageRewriting, fmt.Sprintf("Rewrote query using %q strategy", strategy.name))
	sink.Emit(stream.EventAction, map[string]interface{}{
		"stage":    string(StageRewriting),
		"strategy": strategy.name,
		"query":    truncate(rewritten, 200),
	})
	return ActionRetrieve, nil
}

// qualifier tokens that narrow a query without adding searchable content.
var narrowingTokens = map[string]bool{
	"basics":       true,
	"basic":        true,
	"details":      true,
	"specifically": true,
	"exactly":      true,
	"briefly":      true,
	"simple":       true,
	"please":       true,
}

// broadenScope drops narrowing qualifiers so retrieval matches more chunks.
func broadenScope(original, current string) string {
	words := strings.Fields(current)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if narrowingTokens[strings.ToLower(strings.Trim(w, ".,!?"))] {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return current
	}
	return strings.Join(kept, " ")
}

var querySynonyms = map[string]string{
	"basics":     "fundamentals",
	"explain":    "describe",
	"difference": "distinction",
	"use":        "purpose",
	"works":      "functions",
	"means":      "signifies",
	"important":  "significant",
	"overview":   "summary",
	"cause":      "reason",
	"effects":    "consequences",
}

// substituteSynonyms swaps common terms for synonyms to escape vocabulary
// mismatch between the query and the source material.
func substituteSynonyms(original, current string) string {
	words := strings.Fields(current)
	for i, w := range words {
		key := strings.ToLower(strings.Trim(w, ".,!?"))
		if syn, ok := querySynonyms[key]; ok {
			words[i] = syn
		}
	}
	return strings.Join(words, " ")
}

// reframeAsQuestion restates the original query as an explicit question about
// the source material.
func reframeAsQuestion(original, current string) string {
	topic := strings.TrimRight(strings.TrimSpace(original), "?.!")
	return fmt.Sprintf("What do the source documents say about %s?", topic)
}
