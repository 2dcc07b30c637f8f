package embeddings

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// embedBatchLimit is the API's cap on inputs per request. Evidence
// ingests larger than this are split transparently.
const embedBatchLimit = 100

// OpenAIModel names a supported OpenAI embedding model.
type OpenAIModel string

const (
	ModelTextEmbedding3Small OpenAIModel = "text-embedding-3-small"
	ModelTextEmbedding3Large OpenAIModel = "text-embedding-3-large"
)

func (m OpenAIModel) dimensions() int {
	if m == ModelTextEmbedding3Large {
		return 3072
	}
	return 1536
}

// OpenAIEmbedder vectorizes evidence through OpenAI's embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  OpenAIModel
}

// NewOpenAIEmbedder creates an embedder bound to the given model.
func NewOpenAIEmbedder(apiKey string, model OpenAIModel) *OpenAIEmbedder {
	return &OpenAIEmbedder{client: openai.NewClient(apiKey), model: model}
}

func (e *OpenAIEmbedder) Name() string    { return string(e.model) }
func (e *OpenAIEmbedder) Dimensions() int { return e.model.dimensions() }

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchLimit {
		end := start + embedBatchLimit
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: batch,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding evidence batch: %w", err)
	}
	if len(resp.Data) != len(batch) {
		return nil, fmt.Errorf("embedding count mismatch: %d vectors for %d texts", len(resp.Data), len(batch))
	}

	vecs := make([][]float32, 0, len(batch))
	for _, d := range resp.Data {
		vecs = append(vecs, d.Embedding)
	}
	return vecs, nil
}
