package sentencepool

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/comfforts/logger"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/hankgalt/sentencepool/internal/transformer/onnx"
	"github.com/hankgalt/sentencepool/pkg/domain"
	"github.com/hankgalt/sentencepool/pkg/pooling"
)

type SentenceTransformer interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Close(ctx context.Context) error
}

type onnxSentenceTransformer struct {
	encoder  *onnx.Encoder
	strategy pooling.Strategy
}

// NewONNXSentenceTransformer loads model.onnx and tokenizer.json from
// cfg.ModelPath. Token-level outputs are pooled with cfg.Pooling.
func NewONNXSentenceTransformer(ctx context.Context, cfg domain.ONNXEncoderConfig) (*onnxSentenceTransformer, error) {
	l, err := logger.LoggerFromContext(ctx)
	if err != nil {
		l = logger.GetSlogLogger()
	}

	if cfg.ModelPath == "" {
		l.Error("NewONNXSentenceTransformer - missing model path")
		return nil, errors.New("missing model path")
	}
	strategy, err := pooling.ParseStrategy(cfg.Pooling)
	if err != nil {
		l.Error("NewONNXSentenceTransformer - bad pooling strategy", "pooling", cfg.Pooling, "error", err.Error())
		return nil, err
	}

	if p := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); p != "" {
		ort.SetSharedLibraryPath(p)
	} else {
		l.Error("NewONNXSentenceTransformer - missing path to onnxruntime")
		return nil, errors.New("missing path to onnxruntime")
	}

	tok, err := onnx.NewHFTokenizerFromLocal(filepath.Join(cfg.ModelPath, "tokenizer.json"))
	if err != nil {
		l.Error("NewONNXSentenceTransformer - error loading tokenizer", "error", err.Error())
		return nil, err
	}

	encCfg := cfg
	encCfg.ModelPath = filepath.Join(cfg.ModelPath, "model.onnx")
	encCfg.Pooling = strategy.String()
	enc, err := onnx.NewEncoder(ctx, encCfg, tok)
	if err != nil {
		l.Error("NewONNXSentenceTransformer - error loading encoder", "error", err.Error())
		return nil, err
	}

	padIdx := int64(tok.PadID())
	if cfg.PaddingIndex != nil {
		padIdx = *cfg.PaddingIndex
	}
	l.Info("sentence transformer ready", "model-dir", cfg.ModelPath, "pooling", strategy.String(), "padding-index", padIdx, "normalize", !cfg.SkipNormalize)

	return &onnxSentenceTransformer{
		encoder:  enc,
		strategy: strategy,
	}, nil
}

// Strategy is the pooling applied to token-level model outputs.
func (o *onnxSentenceTransformer) Strategy() pooling.Strategy {
	return o.strategy
}

func (o *onnxSentenceTransformer) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	l, err := logger.LoggerFromContext(ctx)
	if err != nil {
		l = logger.GetSlogLogger()
	}

	if o.encoder == nil {
		l.Error("onnxSentenceTransformer:Encode - nil encoder")
		return nil, errors.New("nil encoder")
	}

	return o.encoder.Encode(ctx, texts)
}

func (o *onnxSentenceTransformer) Close(ctx context.Context) error {
	if o.encoder != nil {
		err := o.encoder.Close()
		o.encoder = nil
		return err
	}
	return nil
}
