package onnx

import (
	"github.com/hankgalt/sentencepool/pkg/pooling"
)

// poolHidden pools one [B*T*H] hidden state tensor into B vectors.
// ids and mask are the [B][T] tokenizer outputs.
func poolHidden(strategy pooling.Strategy, hidden []float32, ids, mask [][]int32, H int, padID int32) ([][]float32, error) {
	B := len(ids)
	T := 0
	if B > 0 {
		T = len(ids[0])
	}
	s := pooling.Shape{Batch: B, SeqLen: T, Hidden: H}

	flat, err := pooling.Pool(strategy, flatten[int32](ids), hidden, flatten[int32](mask), s, padID)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, B)
	for b := range out {
		out[b] = flat[b*H : (b+1)*H : (b+1)*H]
	}
	return out, nil
}

func flatten[T int32 | int64](xs [][]int32) []T {
	if len(xs) == 0 {
		return nil
	}
	out := make([]T, 0, len(xs)*len(xs[0]))
	for _, row := range xs {
		for _, v := range row {
			out = append(out, T(v))
		}
	}
	return out
}
