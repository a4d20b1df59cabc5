package main

import (
	"context"
	"log"

	"github.com/comfforts/logger"
	emb "github.com/hankgalt/sentencepool"
	"github.com/hankgalt/sentencepool/pkg/domain"
)

func main() {
	l := logger.GetSlogLogger()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithLogger(ctx, l)

	encoder, err := emb.NewONNXSentenceTransformer(ctx, domain.ONNXEncoderConfig{
		ModelPath:     "../models/all-MiniLM-L6-v2-onnx",
		InputNameIDs:  "input_ids",
		InputNameMask: "attention_mask",
		OutputName:    "last_hidden_state",
		MaxSeqLen:     256,
		Pooling:       "max",
	})
	if err != nil {
		log.Fatal(err)
	}
	defer encoder.Close(ctx)

	// Encode a batch of texts.
	vecs, err := encoder.Encode(ctx,
		[]string{"Query: golang embeddings", "Passage: computing sentence vectors in Go"})
	if err != nil {
		log.Fatal(err)
	}

	l.Info("got embeddings", "embeddings-dimensions", len(vecs[0]), "num-embeddings", len(vecs))

	// Pool precomputed token embeddings directly.
	pooled, err := emb.Pool(ctx, &domain.PoolRequest{
		Tokens:     [][]int64{{101, 2129, 102, 0}},
		Embeddings: [][][]float32{{{0.1, 0.4}, {0.3, -0.2}, {0.5, 0.0}, {9, 9}}},
		Strategy:   "avg",
	})
	if err != nil {
		log.Fatal(err)
	}
	l.Info("pooled", "strategy", pooled.Strategy, "embedding", pooled.Embeddings[0])
}
