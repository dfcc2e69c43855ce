package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// embeddingDims matches the vector(768) column in the schema.
const embeddingDims = 768

// HashEmbedder is a deterministic offline ai.Embedder. It hashes words into
// a fixed-size bag-of-words vector, so texts sharing vocabulary land close
// together under cosine distance. Good enough to exercise storage and
// ranking without a network call.
type HashEmbedder struct{}

var _ ai.Embedder = HashEmbedder{}

func (HashEmbedder) Name() string { return "test-hash-embedder" }

func (HashEmbedder) Register(r api.Registry) {}

func (HashEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		var text strings.Builder
		for _, part := range doc.Content {
			text.WriteString(part.Text)
			text.WriteByte(' ')
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{
			Embedding: hashVector(text.String()),
		})
	}
	return resp, nil
}

func hashVector(text string) []float32 {
	vec := make([]float32, embeddingDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%embeddingDims]++
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
