package question

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-tutor-be/internal/constant"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/pkg/llm"
	"ai-tutor-be/pkg/rag"
)

// Item is one generated practice question with its grounding sources.
type Item struct {
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	SourceIDs []string `json:"source_ids"`
}

// Generator produces practice questions one at a time so each can be
// streamed and persisted independently.
type Generator struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

func NewGenerator(provider llm.LLMProvider, log logger.ILogger) *Generator {
	return &Generator{
		provider: provider,
		logger:   log,
	}
}

// GenerateOne creates the next question for the topic. previous holds the
// question texts already generated in this session so the model does not
// repeat itself.
func (g *Generator) GenerateOne(ctx context.Context, previous []string, docs []rag.RetrievedDocument) (*Item, error) {
	previousList := "(none)"
	if len(previous) > 0 {
		previousList = strings.Join(previous, "; ")
	}

	prompt := fmt.Sprintf(constant.QuestionGenerationPromptV1, previousList, formatSources(docs))

	response, err := g.provider.Generate(ctx, prompt, llm.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("question generation call failed: %w", err)
	}

	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in question response")
	}

	var item Item
	if err := json.Unmarshal([]byte(jsonContent), &item); err != nil {
		return nil, fmt.Errorf("failed to parse question response: %w", err)
	}
	if item.Question == "" || item.Answer == "" {
		return nil, fmt.Errorf("model returned an empty question")
	}
	return &item, nil
}

func formatSources(docs []rag.RetrievedDocument) string {
	var sb strings.Builder
	for i, d := range docs {
		fmt.Fprintf(&sb, "[Source %d] (id: %s, title: %s)\n%s\n\n", i+1, d.SourceID, d.SourceTitle, d.Content)
	}
	if sb.Len() == 0 {
		return "(no sources)"
	}
	return sb.String()
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
