package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("short document", 100, 20)
	if len(chunks) != 1 || chunks[0] != "short document" {
		t.Errorf("SplitText short input = %v", chunks)
	}
}

func TestSplitTextChunksAndOverlap(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta epsilon ", 40) // ~1240 chars
	chunkSize := 300
	overlap := 60

	chunks := SplitText(text, chunkSize, overlap)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, c := range chunks {
		if len([]rune(c)) > chunkSize {
			t.Errorf("chunk %d exceeds size: %d > %d", i, len([]rune(c)), chunkSize)
		}
	}

	// Overlap means the chunks together exceed the input length.
	total := 0
	for _, c := range chunks {
		total += len([]rune(c))
	}
	if total <= len([]rune(text)) {
		t.Errorf("chunks carry no overlap: total %d <= input %d", total, len([]rune(text)))
	}

	// No content is dropped: every chunk is a substring of the source.
	for i, c := range chunks {
		if !strings.Contains(text, c) {
			t.Errorf("chunk %d is not a substring of the input", i)
		}
	}
}

func TestSplitTextCoversWholeInput(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 100)
	chunks := SplitText(text, 500, 100)

	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(text, last) {
		t.Error("final chunk does not reach the end of the input")
	}
	if !strings.HasPrefix(text, chunks[0]) {
		t.Error("first chunk does not start at the beginning of the input")
	}
}

func TestSplitTextSnapsToWhitespace(t *testing.T) {
	// Words separated by spaces, cut size landing mid-word.
	text := strings.Repeat("abcdefghij ", 60)
	chunks := SplitText(text, 105, 0)

	for i, c := range chunks[:len(chunks)-1] {
		if strings.HasSuffix(c, "abcdefghi") && !strings.HasSuffix(c, "abcdefghij") {
			t.Errorf("chunk %d cut a word in half: %q", i, c[len(c)-15:])
		}
	}
}

func TestSplitTextOverlapLargerThanChunk(t *testing.T) {
	text := strings.Repeat("word ", 100)
	// Degenerate overlap must not loop forever.
	chunks := SplitText(text, 50, 50)
	if len(chunks) == 0 {
		t.Fatal("no chunks returned")
	}
}
