package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// draftMaxTokens bounds a single draft. The quality gate penalizes
// length well before this; the cap only guards against runaway
// generations burning the refinement budget.
const draftMaxTokens = 4096

// OpenAIProvider drafts governed responses through the OpenAI chat
// completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a provider bound to the configured model.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{client: openai.NewClient(apiKey), model: model}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = draftMaxTokens
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toChatMessages(req.Messages),
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	}
	// Drafts are parsed as structured JSON downstream; JSON mode keeps
	// the model from wrapping them in prose.
	if req.JSONMode {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	out := &CompletionResponse{
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
		out.FinishReason = string(resp.Choices[0].FinishReason)
	}
	return out, nil
}

func toChatMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}
