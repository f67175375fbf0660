package question

import (
	"context"
	"strings"
	"testing"

	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/rag"
)

type nopTestLogger struct{}

func (nopTestLogger) Debug(string, string, map[string]interface{}) {}
func (nopTestLogger) Info(string, string, map[string]interface{})  {}
func (nopTestLogger) Warn(string, string, map[string]interface{})  {}
func (nopTestLogger) Error(string, string, map[string]interface{}) {}
func (nopTestLogger) Sync() error                                  { return nil }

// scriptedProvider returns canned responses and records the prompts it saw.
type scriptedProvider struct {
	response string
	prompts  []string
}

func (s *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.response, nil
}

func (s *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, nil
}

func sampleDocs() []rag.RetrievedDocument {
	return []rag.RetrievedDocument{
		{SourceID: "doc-1", SourceTitle: "Biology", Content: "Mitochondria produce ATP."},
	}
}

func TestGenerateOneParsesModelResponse(t *testing.T) {
	provider := &scriptedProvider{
		response: "Here is the question:\n{\"question\": \"What produces ATP?\", \"answer\": \"Mitochondria.\", \"source_ids\": [\"doc-1\"]}",
	}
	g := NewGenerator(provider, nopTestLogger{})

	item, err := g.GenerateOne(context.Background(), nil, sampleDocs())
	if err != nil {
		t.Fatalf("GenerateOne: %v", err)
	}
	if item.Question != "What produces ATP?" {
		t.Errorf("Question = %q", item.Question)
	}
	if item.Answer != "Mitochondria." {
		t.Errorf("Answer = %q", item.Answer)
	}
	if len(item.SourceIDs) != 1 || item.SourceIDs[0] != "doc-1" {
		t.Errorf("SourceIDs = %v", item.SourceIDs)
	}
}

func TestGenerateOneIncludesPreviousQuestions(t *testing.T) {
	provider := &scriptedProvider{
		response: "{\"question\": \"q\", \"answer\": \"a\", \"source_ids\": []}",
	}
	g := NewGenerator(provider, nopTestLogger{})

	_, err := g.GenerateOne(context.Background(), []string{"What is DNA?", "What is RNA?"}, sampleDocs())
	if err != nil {
		t.Fatalf("GenerateOne: %v", err)
	}

	prompt := provider.prompts[0]
	if !strings.Contains(prompt, "What is DNA?; What is RNA?") {
		t.Errorf("prompt does not list previous questions:\n%s", prompt)
	}

	// Without previous questions the placeholder is used instead.
	provider.prompts = nil
	if _, err := g.GenerateOne(context.Background(), nil, sampleDocs()); err != nil {
		t.Fatalf("GenerateOne: %v", err)
	}
	if !strings.Contains(provider.prompts[0], "(none)") {
		t.Error("prompt missing the no-previous-questions placeholder")
	}
}

func TestGenerateOneRejectsBadResponses(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "no JSON at all", response: "I cannot answer that."},
		{name: "empty question", response: "{\"question\": \"\", \"answer\": \"a\"}"},
		{name: "empty answer", response: "{\"question\": \"q\", \"answer\": \"\"}"},
		{name: "malformed JSON", response: "{\"question\": \"q\", \"answer\": "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(&scriptedProvider{response: tt.response}, nopTestLogger{})
			if _, err := g.GenerateOne(context.Background(), nil, sampleDocs()); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "bare object",
			response: "{\"a\": 1}",
			want:     "{\"a\": 1}",
		},
		{
			name:     "object wrapped in prose",
			response: "Sure! Here you go: {\"a\": 1} Hope that helps.",
			want:     "{\"a\": 1}",
		},
		{
			name:     "nested objects keep the outermost braces",
			response: "prefix {\"a\": {\"b\": 2}} suffix",
			want:     "{\"a\": {\"b\": 2}}",
		},
		{
			name:     "no object",
			response: "no json here",
			want:     "",
		},
		{
			name:     "close brace before open",
			response: "} {",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.response); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.response, got, tt.want)
			}
		})
	}
}

func TestFormatSources(t *testing.T) {
	out := formatSources(sampleDocs())
	if !strings.Contains(out, "[Source 1]") || !strings.Contains(out, "doc-1") || !strings.Contains(out, "Mitochondria produce ATP.") {
		t.Errorf("formatSources output incomplete:\n%s", out)
	}

	if got := formatSources(nil); got != "(no sources)" {
		t.Errorf("formatSources(nil) = %q", got)
	}
}
