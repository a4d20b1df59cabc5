package pooling

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func TestMaskFill(t *testing.T) {
	t.Parallel()

	// 1 sample, seqLen=3, dim=2. Position 1 is padding.
	tokens := []int64{7, 0, 9}
	emb := []float32{1, 2, 3, 4, 5, 6}
	s := Shape{Batch: 1, SeqLen: 3, Hidden: 2}

	out, err := MaskFill(-1, tokens, emb, s, 0)
	if err != nil {
		t.Fatalf("MaskFill: %v", err)
	}
	want := []float32{1, 2, -1, -1, 5, 6}
	if !slices.Equal(out, want) {
		t.Errorf("MaskFill = %v, want %v", out, want)
	}
	if !slices.Equal(emb, []float32{1, 2, 3, 4, 5, 6}) {
		t.Errorf("input mutated: %v", emb)
	}
}

func TestMaskFillInPlace(t *testing.T) {
	t.Parallel()

	tokens := []int32{1, 1, 0, 3}
	emb := []float64{1, 2, 3, 4}
	s := Shape{Batch: 2, SeqLen: 2, Hidden: 1}

	out, err := MaskFillInPlace(9, tokens, emb, s, 1)
	if err != nil {
		t.Fatalf("MaskFillInPlace: %v", err)
	}
	want := []float64{9, 9, 3, 4}
	if !slices.Equal(emb, want) {
		t.Errorf("embeddings = %v, want %v", emb, want)
	}
	if &out[0] != &emb[0] {
		t.Error("expected the caller's slice to be returned")
	}
}

func TestMaskFillIdempotent(t *testing.T) {
	t.Parallel()

	tokens := []int{0, 4, 0, 2, 2, 0}
	emb := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	s := Shape{Batch: 2, SeqLen: 3, Hidden: 2}

	once, err := MaskFill(0.5, tokens, emb, s, 0)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := MaskFill(0.5, tokens, once, s, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(once, twice) {
		t.Errorf("second fill changed result: %v vs %v", once, twice)
	}
}

func TestMaskFillShapeMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		tokens []int64
		emb    []float32
		shape  Shape
	}{
		{"short tokens", []int64{1}, []float32{1, 2, 3, 4}, Shape{1, 2, 2}},
		{"long embeddings", []int64{1, 1}, []float32{1, 2, 3, 4, 5}, Shape{1, 2, 2}},
		{"negative dim", nil, nil, Shape{-1, 0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MaskFill(0, tt.tokens, tt.emb, tt.shape, 0)
			if !errors.Is(err, ErrShapeMismatch) {
				t.Errorf("err = %v, want ErrShapeMismatch", err)
			}
		})
	}
}

func TestAveragePooling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		tokens []int64
		emb    []float32
		mask   []int64
		shape  Shape
		want   []float32
	}{
		{
			name:   "all valid",
			tokens: []int64{1, 1},
			emb:    []float32{2, 4, 4, 8},
			mask:   []int64{1, 1},
			shape:  Shape{1, 2, 2},
			want:   []float32{3, 6},
		},
		{
			name:   "padded vector excluded",
			tokens: []int64{1, 0},
			emb:    []float32{2, 4, 100, 100},
			mask:   []int64{1, 0},
			shape:  Shape{1, 2, 2},
			want:   []float32{2, 4},
		},
		{
			name:   "batch",
			tokens: []int64{5, 6, 7, 8, 0, 0},
			emb:    []float32{1, 10, 2, 20, 3, 30, 4, 40, 9, 9, 9, 9},
			mask:   []int64{1, 1, 1, 1, 0, 0},
			shape:  Shape{2, 3, 2},
			want:   []float32{2, 20, 4, 40},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AveragePooling(tt.tokens, tt.emb, tt.mask, tt.shape, 0)
			if err != nil {
				t.Fatalf("AveragePooling: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("AveragePooling = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAveragePoolingBoolMask(t *testing.T) {
	t.Parallel()

	tokens := []int32{3, 3, 0}
	emb := []float64{1, 3, 5}
	mask := BoolMask([]bool{true, true, false})

	got, err := AveragePooling(tokens, emb, mask, Shape{1, 3, 1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 2 {
		t.Errorf("got %v, want [2]", got)
	}
}

func TestAveragePoolingEmptySequence(t *testing.T) {
	t.Parallel()

	// Every position padded: 0/0 is NaN.
	got, err := AveragePooling([]int64{0, 0}, []float32{1, 2, 3, 4}, []float32{0, 0}, Shape{1, 2, 2}, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if !math.IsNaN(float64(v)) {
			t.Errorf("got[%d] = %v, want NaN", i, v)
		}
	}
}

func TestAveragePoolingMaskMismatch(t *testing.T) {
	t.Parallel()

	_, err := AveragePooling([]int64{1, 1}, []float32{1, 2}, []int64{1}, Shape{1, 2, 1}, 0)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("err = %v, want ErrShapeMismatch", err)
	}
}

func TestMaxPooling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		tokens []int64
		emb    []float32
		shape  Shape
		want   []float32
	}{
		{
			name:   "padded extremes never win",
			tokens: []int64{1, 0},
			emb:    []float32{2, -5, 999, 999},
			shape:  Shape{1, 2, 2},
			want:   []float32{2, -5},
		},
		{
			name:   "coordinate-wise max",
			tokens: []int64{1, 1},
			emb:    []float32{1, 9, 5, 3},
			shape:  Shape{1, 2, 2},
			want:   []float32{5, 9},
		},
		{
			name:   "padding first",
			tokens: []int64{0, 2, 2, 2, 2, 0},
			emb:    []float32{50, 50, -1, -2, -3, 4, 1, 1, 2, 2, 60, 60},
			shape:  Shape{2, 3, 2},
			want:   []float32{-1, 4, 2, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MaxPooling(tt.tokens, tt.emb, tt.shape, 0)
			if err != nil {
				t.Fatalf("MaxPooling: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("MaxPooling = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMaxPoolingAllPadding(t *testing.T) {
	t.Parallel()

	got, err := MaxPooling([]int64{0, 0}, []float64{1, 2, 3, 4}, Shape{1, 2, 2}, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if !math.IsInf(v, -1) {
			t.Errorf("got[%d] = %v, want -Inf", i, v)
		}
	}
}

func TestMaxPoolingEmptySequenceAxis(t *testing.T) {
	t.Parallel()

	_, err := MaxPooling([]int64{}, []float32{}, Shape{2, 0, 3}, 0)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("err = %v, want ErrShapeMismatch", err)
	}
}

func TestPoolingDropsSequenceAxis(t *testing.T) {
	t.Parallel()

	s := Shape{Batch: 3, SeqLen: 4, Hidden: 5}
	tokens := make([]int64, s.Batch*s.SeqLen)
	mask := make([]int64, len(tokens))
	for i := range tokens {
		tokens[i] = int64(i%3 + 1)
		mask[i] = 1
	}
	emb := make([]float32, s.Batch*s.SeqLen*s.Hidden)
	for i := range emb {
		emb[i] = float32(i)
	}

	for _, st := range []Strategy{StrategyAvg, StrategyMax, StrategyCLS} {
		got, err := Pool(st, tokens, emb, mask, s, 0)
		if err != nil {
			t.Fatalf("%s: %v", st, err)
		}
		if len(got) != s.Batch*s.Hidden {
			t.Errorf("%s: len = %d, want %d", st, len(got), s.Batch*s.Hidden)
		}
	}
}

func TestCLSPooling(t *testing.T) {
	t.Parallel()

	emb := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	got, err := CLSPooling(emb, Shape{2, 2, 2})
	if err != nil {
		t.Fatal(err)
	}
	if want := []float32{1, 2, 5, 6}; !slices.Equal(got, want) {
		t.Errorf("CLSPooling = %v, want %v", got, want)
	}
}

func TestL2Normalize(t *testing.T) {
	t.Parallel()

	v := []float32{3, 4}
	L2Normalize(v)
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("L2Normalize = %v, want [0.6 0.8]", v)
	}

	zero := []float64{0, 0}
	L2Normalize(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}
