package domain

import (
	"fmt"

	"github.com/hankgalt/sentencepool/pkg/pooling"
)

// PoolRequest is a padded batch of token ids and their per-token embeddings.
type PoolRequest struct {
	// [B][T] token ids
	Tokens [][]int64 `json:"tokens"`
	// [B][T][H] per-token embeddings
	Embeddings [][][]float32 `json:"embeddings"`
	// [B][T] 1 for valid positions; derived from Tokens when omitted
	Mask [][]float32 `json:"mask,omitempty"`
	// token id marking padding
	PaddingIndex int64 `json:"padding_index"`
	// "avg" (default), "max" or "cls"
	Strategy string `json:"strategy,omitempty"`
	// L2 normalize pooled vectors
	Normalize bool `json:"normalize,omitempty"`
}

// PoolResponse holds one pooled vector per batch row.
type PoolResponse struct {
	ID         string   `json:"id,omitempty"`
	Strategy   string   `json:"strategy"`
	Embeddings []Vector `json:"embeddings"`
}

// FlatBatch is a PoolRequest flattened to row-major slices.
type FlatBatch struct {
	Shape      pooling.Shape
	Tokens     []int64
	Embeddings []float32
	Mask       []float32
}

// Flatten converts the nested request arrays into flat slices, rejecting
// ragged input.
func (r *PoolRequest) Flatten() (*FlatBatch, error) {
	B := len(r.Tokens)
	if len(r.Embeddings) != B {
		return nil, fmt.Errorf("%w: %d token rows, %d embedding rows", pooling.ErrShapeMismatch, B, len(r.Embeddings))
	}
	if r.Mask != nil && len(r.Mask) != B {
		return nil, fmt.Errorf("%w: %d token rows, %d mask rows", pooling.ErrShapeMismatch, B, len(r.Mask))
	}

	var T, H int
	if B > 0 {
		T = len(r.Tokens[0])
		if T > 0 && len(r.Embeddings[0]) > 0 {
			H = len(r.Embeddings[0][0])
		}
	}
	s := pooling.Shape{Batch: B, SeqLen: T, Hidden: H}

	fb := &FlatBatch{
		Shape:      s,
		Tokens:     make([]int64, 0, B*T),
		Embeddings: make([]float32, 0, B*T*H),
		Mask:       make([]float32, 0, B*T),
	}
	for b := 0; b < B; b++ {
		if len(r.Tokens[b]) != T {
			return nil, fmt.Errorf("%w: tokens row %d has length %d, want %d", pooling.ErrShapeMismatch, b, len(r.Tokens[b]), T)
		}
		if len(r.Embeddings[b]) != T {
			return nil, fmt.Errorf("%w: embeddings row %d has length %d, want %d", pooling.ErrShapeMismatch, b, len(r.Embeddings[b]), T)
		}
		fb.Tokens = append(fb.Tokens, r.Tokens[b]...)
		for t, vec := range r.Embeddings[b] {
			if len(vec) != H {
				return nil, fmt.Errorf("%w: embedding [%d,%d] has size %d, want %d", pooling.ErrShapeMismatch, b, t, len(vec), H)
			}
			fb.Embeddings = append(fb.Embeddings, vec...)
		}
		if r.Mask == nil {
			for _, tok := range r.Tokens[b] {
				if tok != r.PaddingIndex {
					fb.Mask = append(fb.Mask, 1)
				} else {
					fb.Mask = append(fb.Mask, 0)
				}
			}
			continue
		}
		if len(r.Mask[b]) != T {
			return nil, fmt.Errorf("%w: mask row %d has length %d, want %d", pooling.ErrShapeMismatch, b, len(r.Mask[b]), T)
		}
		fb.Mask = append(fb.Mask, r.Mask[b]...)
	}
	return fb, nil
}

// Rows splits a flat [B*H] pooled output into B vectors.
func Rows(flat []float32, batch, hidden int) [][]float32 {
	out := make([][]float32, batch)
	for b := range out {
		out[b] = flat[b*hidden : (b+1)*hidden : (b+1)*hidden]
	}
	return out
}
