package utils

import "strings"

// SplitText splits a long string into chunks of approximately 'chunkSize'
// characters with 'overlap' characters carried over between chunks to
// preserve context at boundaries. Chunk boundaries snap back to the nearest
// whitespace when one is close, so words are rarely cut in half.
func SplitText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	totalLen := len(runes)

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // fallback if overlap >= chunkSize
	}

	for i := 0; i < totalLen; i += step {
		end := i + chunkSize
		if end > totalLen {
			end = totalLen
		} else {
			end = snapToWhitespace(runes, end, i)
		}

		chunks = append(chunks, string(runes[i:end]))

		if end == totalLen {
			break
		}
	}

	return chunks
}

// snapToWhitespace walks back from 'end' looking for a space or newline within
// a small window. Falls back to the hard cut so no content is ever dropped.
func snapToWhitespace(runes []rune, end, start int) int {
	const window = 80
	limit := end - window
	if limit < start+1 {
		limit = start + 1
	}
	for i := end; i > limit; i-- {
		if isWhitespace(runes[i-1]) {
			return i
		}
	}
	return end
}

func isWhitespace(r rune) bool {
	return strings.ContainsRune(" \t\n\r", r)
}
