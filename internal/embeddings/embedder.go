// Package embeddings produces the vectors behind evidence retrieval.
// The evidence store embeds documents at ingest and queries at search
// time through the same Embedder, so similarities stay comparable.
package embeddings

import "context"

// Embedder turns evidence text into vectors the store can rank.
type Embedder interface {
	// Embed vectorizes texts in input order; the result has one vector
	// per text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the width of every vector this embedder produces.
	Dimensions() int

	// Name identifies the backing model, for diagnostics.
	Name() string
}
