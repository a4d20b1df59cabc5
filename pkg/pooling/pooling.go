// Package pooling reduces per-token embeddings to one vector per sequence
// while ignoring padded positions.
//
// All arrays are flat, row-major slices described by a Shape:
// tokens and mask are [Batch*SeqLen], embeddings are [Batch*SeqLen*Hidden]
// and pooled outputs are [Batch*Hidden].
package pooling

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrUnknownStrategy = errors.New("unknown pooling strategy")
)

// Float is the element type of embeddings and pooled outputs.
type Float interface {
	~float32 | ~float64
}

// Token is the element type of token ids.
type Token interface {
	~int | ~int32 | ~int64
}

// MaskValue is any numeric mask element. Non-zero marks a valid position.
type MaskValue interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Shape holds the batch, sequence length and hidden dimensions of a batch.
type Shape struct {
	Batch  int
	SeqLen int
	Hidden int
}

func (s Shape) String() string {
	return fmt.Sprintf("[%d,%d,%d]", s.Batch, s.SeqLen, s.Hidden)
}

// Validate checks token and embedding lengths against the shape.
func Validate[T Token, F Float](s Shape, tokens []T, embeddings []F) error {
	if s.Batch < 0 || s.SeqLen < 0 || s.Hidden < 0 {
		return fmt.Errorf("%w: negative dimension in %s", ErrShapeMismatch, s)
	}
	if len(tokens) != s.Batch*s.SeqLen {
		return fmt.Errorf("%w: tokens has %d elements, want %d for %s", ErrShapeMismatch, len(tokens), s.Batch*s.SeqLen, s)
	}
	if len(embeddings) != s.Batch*s.SeqLen*s.Hidden {
		return fmt.Errorf("%w: embeddings has %d elements, want %d for %s", ErrShapeMismatch, len(embeddings), s.Batch*s.SeqLen*s.Hidden, s)
	}
	return nil
}

// BoolMask converts a boolean mask to 0/1 values.
func BoolMask(mask []bool) []uint8 {
	out := make([]uint8, len(mask))
	for i, v := range mask {
		if v {
			out[i] = 1
		}
	}
	return out
}

// MaskFill returns a copy of embeddings where every hidden component at a
// position whose token equals paddingIndex is replaced by fill.
func MaskFill[T Token, F Float](fill F, tokens []T, embeddings []F, s Shape, paddingIndex T) ([]F, error) {
	if err := Validate(s, tokens, embeddings); err != nil {
		return nil, err
	}
	out := make([]F, len(embeddings))
	copy(out, embeddings)
	maskFill(fill, tokens, out, s.Hidden, paddingIndex)
	return out, nil
}

// MaskFillInPlace is MaskFill without the copy. The caller's embeddings are
// overwritten and returned.
func MaskFillInPlace[T Token, F Float](fill F, tokens []T, embeddings []F, s Shape, paddingIndex T) ([]F, error) {
	if err := Validate(s, tokens, embeddings); err != nil {
		return nil, err
	}
	maskFill(fill, tokens, embeddings, s.Hidden, paddingIndex)
	return embeddings, nil
}

func maskFill[T Token, F Float](fill F, tokens []T, embeddings []F, hidden int, paddingIndex T) {
	for i, tok := range tokens {
		if tok != paddingIndex {
			continue
		}
		row := embeddings[i*hidden : (i+1)*hidden]
		for h := range row {
			row[h] = fill
		}
	}
}

// AveragePooling computes the mean of the non-padded token vectors of each
// sequence. Padded positions (by token id) are zeroed before summing and the
// divisor is the mask sum over the sequence axis.
//
// A sequence whose mask sums to zero divides by zero and yields NaN or ±Inf.
func AveragePooling[T Token, F Float, M MaskValue](tokens []T, embeddings []F, mask []M, s Shape, paddingIndex T) ([]F, error) {
	if len(mask) != s.Batch*s.SeqLen {
		return nil, fmt.Errorf("%w: mask has %d elements, want %d for %s", ErrShapeMismatch, len(mask), s.Batch*s.SeqLen, s)
	}
	word, err := MaskFill(0, tokens, embeddings, s, paddingIndex)
	if err != nil {
		return nil, err
	}

	B, L, H := s.Batch, s.SeqLen, s.Hidden
	out := make([]F, B*H)
	for b := 0; b < B; b++ {
		sum := out[b*H : (b+1)*H]
		var count F
		for t := 0; t < L; t++ {
			count += F(mask[b*L+t])
			base := (b*L + t) * H
			for h := 0; h < H; h++ {
				sum[h] += word[base+h]
			}
		}
		// count is the same for every hidden index
		for h := 0; h < H; h++ {
			sum[h] /= count
		}
	}
	return out, nil
}

// MaxPooling takes the coordinate-wise maximum over the non-padded token
// vectors of each sequence. A fully padded sequence yields -Inf everywhere.
func MaxPooling[T Token, F Float](tokens []T, embeddings []F, s Shape, paddingIndex T) ([]F, error) {
	if s.SeqLen == 0 && s.Batch > 0 {
		return nil, fmt.Errorf("%w: max over empty sequence axis in %s", ErrShapeMismatch, s)
	}
	word, err := MaskFill(F(math.Inf(-1)), tokens, embeddings, s, paddingIndex)
	if err != nil {
		return nil, err
	}

	B, L, H := s.Batch, s.SeqLen, s.Hidden
	out := make([]F, B*H)
	for b := 0; b < B; b++ {
		best := out[b*H : (b+1)*H]
		copy(best, word[b*L*H:b*L*H+H])
		for t := 1; t < L; t++ {
			base := (b*L + t) * H
			for h := 0; h < H; h++ {
				if v := word[base+h]; v > best[h] {
					best[h] = v
				}
			}
		}
	}
	return out, nil
}

// CLSPooling returns the vector at the first position of each sequence.
func CLSPooling[F Float](embeddings []F, s Shape) ([]F, error) {
	if len(embeddings) != s.Batch*s.SeqLen*s.Hidden {
		return nil, fmt.Errorf("%w: embeddings has %d elements, want %d for %s", ErrShapeMismatch, len(embeddings), s.Batch*s.SeqLen*s.Hidden, s)
	}
	if s.SeqLen == 0 && s.Batch > 0 {
		return nil, fmt.Errorf("%w: no first position in %s", ErrShapeMismatch, s)
	}
	B, L, H := s.Batch, s.SeqLen, s.Hidden
	out := make([]F, B*H)
	for b := 0; b < B; b++ {
		copy(out[b*H:(b+1)*H], embeddings[b*L*H:b*L*H+H])
	}
	return out, nil
}

// L2Normalize scales v to unit length in place. A zero vector is left as is.
func L2Normalize[F Float](v []F) {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	if s == 0 {
		return
	}
	n := 1.0 / math.Sqrt(s)
	for i := range v {
		v[i] = F(float64(v[i]) * n)
	}
}
