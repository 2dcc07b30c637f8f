package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// LocalEmbedder produces deterministic bag-of-words vectors with no
// network dependency. Quality is far below a learned model; it exists
// so the offline provider still gets ranked retrieval.
type LocalEmbedder struct {
	dims int
}

// NewLocalEmbedder creates a local embedder with the given dimension
// count. 256 is plenty for keyword-level similarity.
func NewLocalEmbedder(dims int) *LocalEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &LocalEmbedder{dims: dims}
}

func (e *LocalEmbedder) Name() string    { return "local-hash" }
func (e *LocalEmbedder) Dimensions() int { return e.dims }

func (e *LocalEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

// vector hashes each token into a bucket and normalizes the result, so
// texts sharing vocabulary land near each other.
func (e *LocalEmbedder) vector(text string) []float32 {
	vec := make([]float32, e.dims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[int(h.Sum32())%e.dims]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
