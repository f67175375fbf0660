package rag

import (
	"testing"
)

func TestGradeDocuments(t *testing.T) {
	tests := []struct {
		name         string
		scores       []float64
		threshold    float64
		wantRelevant []bool
	}{
		{
			name:         "all above threshold",
			scores:       []float64{0.9, 0.8},
			threshold:    0.7,
			wantRelevant: []bool{true, true},
		},
		{
			name:         "all below threshold",
			scores:       []float64{0.1, 0.69},
			threshold:    0.7,
			wantRelevant: []bool{false, false},
		},
		{
			name:         "score equal to threshold is relevant",
			scores:       []float64{0.7},
			threshold:    0.7,
			wantRelevant: []bool{true},
		},
		{
			name:         "mixed",
			scores:       []float64{0.95, 0.5, 0.7, 0.699},
			threshold:    0.7,
			wantRelevant: []bool{true, false, true, false},
		},
		{
			name:         "empty input",
			scores:       nil,
			threshold:    0.7,
			wantRelevant: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := make([]RetrievedDocument, len(tt.scores))
			for i, s := range tt.scores {
				docs[i] = RetrievedDocument{SourceID: "d", RelevanceScore: s}
			}

			graded := GradeDocuments(docs, tt.threshold)

			if len(graded) != len(docs) {
				t.Fatalf("graded length = %d, want %d", len(graded), len(docs))
			}
			for i, g := range graded {
				if g.IsRelevant != tt.wantRelevant[i] {
					t.Errorf("doc %d IsRelevant = %v (score %.2f), want %v", i, g.IsRelevant, g.RelevanceScore, tt.wantRelevant[i])
				}
				if g.GradeReason == "" {
					t.Errorf("doc %d has empty GradeReason", i)
				}
			}
		})
	}
}

func TestGradeDocumentsDeterministic(t *testing.T) {
	docs := []RetrievedDocument{
		{SourceID: "a", RelevanceScore: 0.8},
		{SourceID: "b", RelevanceScore: 0.3},
	}

	first := GradeDocuments(docs, 0.7)
	second := GradeDocuments(docs, 0.7)

	for i := range first {
		if first[i].IsRelevant != second[i].IsRelevant || first[i].GradeReason != second[i].GradeReason {
			t.Errorf("doc %d graded differently across runs", i)
		}
	}

	// Grading the already-graded slice again must not change anything.
	regraded := GradeDocuments(first, 0.7)
	for i := range first {
		if regraded[i] != first[i] {
			t.Errorf("doc %d changed on regrade: %+v vs %+v", i, regraded[i], first[i])
		}
	}
}

func TestGradeDocumentsDoesNotMutateInput(t *testing.T) {
	docs := []RetrievedDocument{{SourceID: "a", RelevanceScore: 0.9}}

	GradeDocuments(docs, 0.7)

	if docs[0].IsRelevant || docs[0].GradeReason != "" {
		t.Errorf("input slice was mutated: %+v", docs[0])
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	long := "this is a sentence that keeps going well past the limit"
	got := truncate(long, 20)
	if len(got) > 23 {
		t.Errorf("truncate did not shorten: %q", got)
	}
	if got[len(got)-3:] != "..." {
		t.Errorf("truncated string missing ellipsis: %q", got)
	}
}
