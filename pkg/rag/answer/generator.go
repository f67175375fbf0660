package answer

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

// Generator implements the generation capability on top of an LLM provider.
// Every method returns a typed result or an error; an empty/garbled model
// response is an error (infrastructure failure), never a silent default.
type Generator struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

var _ rag.Generator = &Generator{}

func NewGenerator(provider llm.LLMProvider, log logger.ILogger) *Generator {
	return &Generator{
		provider: provider,
		logger:   log,
	}
}

type analysisResponse struct {
	Intent              string   `json:"intent"`
	KeyConcepts         []string `json:"key_concepts"`
	ExpectedAnswerShape string   `json:"expected_answer_shape"`
	Complexity          string   `json:"complexity"`
}

func (g *Generator) Analyze(ctx context.Context, query string) (*rag.QueryAnalysis, error) {
	prompt := fmt.Sprintf(constant.QueryAnalysisPromptV1, query)

	response, err := g.provider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		return nil, fmt.Errorf("analysis call failed: %w", err)
	}

	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in analysis response")
	}

	var parsed analysisResponse
	if err := json.Unmarshal([]byte(jsonContent), &parsed); err != nil {
		return nil, fmt.Errorf("analysis unmarshal failed: %w", err)
	}

	// Normalize with safe defaults so downstream stages never see empties.
	if parsed.Intent == "" {
		parsed.Intent = "factual"
	}
	if parsed.Complexity == "" {
		parsed.Complexity = "simple"
	}

	return &rag.QueryAnalysis{
		Intent:              strings.ToLower(parsed.Intent),
		KeyConcepts:         parsed.KeyConcepts,
		ExpectedAnswerShape: parsed.ExpectedAnswerShape,
		Complexity:          strings.ToLower(parsed.Complexity),
	}, nil
}

type generationResponse struct {
	Answer      string   `json:"answer"`
	Confidence  float64  `json:"confidence"`
	SourcesUsed []string `json:"sources_used"`
}

func (g *Generator) Generate(ctx context.Context, query string, docs []rag.RetrievedDocument) (*rag.GenerationResult, error) {
	prompt := fmt.Sprintf(constant.AnswerGenerationPromptV1, query, formatSources(docs))

	response, err := g.provider.Generate(ctx, prompt, llm.WithTemperature(0.3))
	if err != nil {
		return nil, fmt.Errorf("generation call failed: %w", err)
	}

	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in generation response")
	}

	var parsed generationResponse
	if err := json.Unmarshal([]byte(jsonContent), &parsed); err != nil {
		return nil, fmt.Errorf("generation unmarshal failed: %w", err)
	}
	if strings.TrimSpace(parsed.Answer) == "" {
		return nil, fmt.Errorf("model returned an empty answer")
	}

	return &rag.GenerationResult{
		Answer:      parsed.Answer,
		Confidence:  parsed.Confidence,
		SourcesUsed: parsed.SourcesUsed,
	}, nil
}

type verificationResponse struct {
	HasHallucination bool   `json:"has_hallucination"`
	Details          string `json:"details"`
}

func (g *Generator) Verify(ctx context.Context, answer string, docs []rag.RetrievedDocument) (*rag.Verdict, error) {
	prompt := fmt.Sprintf(constant.HallucinationCheckPromptV1, answer, formatSources(docs))

	response, err := g.provider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		return nil, fmt.Errorf("verification call failed: %w", err)
	}

	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in verification response")
	}

	var parsed verificationResponse
	if err := json.Unmarshal([]byte(jsonContent), &parsed); err != nil {
		return nil, fmt.Errorf("verification unmarshal failed: %w", err)
	}

	return &rag.Verdict{
		HasHallucination: parsed.HasHallucination,
		Details:          parsed.Details,
	}, nil
}

// formatSources renders documents as numbered excerpts the prompts refer to.
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

// extractJSON pulls the outermost JSON object out of a model response that
// may be wrapped in prose or code fences.
func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
