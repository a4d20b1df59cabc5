package sentencepool

import (
	"context"
	"errors"

	"github.com/comfforts/logger"

	"github.com/hankgalt/sentencepool/pkg/domain"
	"github.com/hankgalt/sentencepool/pkg/pooling"
)

// Pool reduces a padded batch of token embeddings to one vector per row
// using the request's strategy.
func Pool(ctx context.Context, req *domain.PoolRequest) (*domain.PoolResponse, error) {
	l, err := logger.LoggerFromContext(ctx)
	if err != nil {
		l = logger.GetSlogLogger()
	}

	if req == nil {
		l.Error("Pool - nil request")
		return nil, errors.New("nil pool request")
	}

	strategy, err := pooling.ParseStrategy(req.Strategy)
	if err != nil {
		l.Error("Pool - bad strategy", "strategy", req.Strategy, "error", err.Error())
		return nil, err
	}

	fb, err := req.Flatten()
	if err != nil {
		l.Error("Pool - bad batch", "error", err.Error())
		return nil, err
	}

	flat, err := pooling.Pool(strategy, fb.Tokens, fb.Embeddings, fb.Mask, fb.Shape, req.PaddingIndex)
	if err != nil {
		l.Error("Pool - pooling failed", "strategy", strategy.String(), "shape", fb.Shape.String(), "error", err.Error())
		return nil, err
	}

	rows := domain.Rows(flat, fb.Shape.Batch, fb.Shape.Hidden)
	if req.Normalize {
		for _, v := range rows {
			pooling.L2Normalize(v)
		}
	}

	l.Debug("pooled batch", "strategy", strategy.String(), "shape", fb.Shape.String())
	return &domain.PoolResponse{
		Strategy:   strategy.String(),
		Embeddings: domain.Vectors(rows),
	}, nil
}
