package embeddings

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

// ToChromemFunc adapts an Embedder to chromem's per-document callback.
// The evidence store hands chromem one document at a time during both
// ingest and query.
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vecs, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, fmt.Errorf("embed evidence: %w", err)
		}
		if len(vecs) == 0 {
			return nil, fmt.Errorf("embedder %s returned no vector", e.Name())
		}
		return vecs[0], nil
	}
}
