package onnx

import (
	"context"
	"errors"
	"fmt"

	"github.com/comfforts/logger"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/hankgalt/sentencepool/pkg/domain"
	"github.com/hankgalt/sentencepool/pkg/pooling"
)

type Encoder struct {
	cfg        domain.ONNXEncoderConfig
	tok        *HFTokenizer
	sess       *ort.DynamicAdvancedSession
	strategy   pooling.Strategy
	padID      int32
	pooledOut  bool // true if output rank == 2
	hiddenSize int  // H dimension
}

func NewEncoder(ctx context.Context, cfg domain.ONNXEncoderConfig, tok *HFTokenizer) (*Encoder, error) {
	l, err := logger.LoggerFromContext(ctx)
	if err != nil {
		l = logger.GetSlogLogger()
	}

	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("missing ModelPath")
	}
	if tok == nil {
		return nil, fmt.Errorf("nil tokenizer")
	}

	strategy, err := pooling.ParseStrategy(cfg.Pooling)
	if err != nil {
		return nil, err
	}
	padID := int32(tok.PadID())
	if cfg.PaddingIndex != nil {
		padID = int32(*cfg.PaddingIndex)
	}

	// Initialize global ORT env once per process (safe to call multiple times).
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("init ORT env: %w", err)
		}
	}

	// Discover output shape / dtype to pre-size output tensors later.
	infosIn, infosOut, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("GetInputOutputInfo: %w", err)
	}

	for _, i := range infosIn {
		l.Debug("model input", "name", i.Name, "type", i.DataType, "dims", i.Dimensions)
	}

	var outInfo *ort.InputOutputInfo
	for i := range infosOut {
		l.Debug("model output", "name", infosOut[i].Name, "type", infosOut[i].DataType, "dims", infosOut[i].Dimensions)
		if infosOut[i].Name == cfg.OutputName {
			outInfo = &infosOut[i]
			break
		}
	}
	if outInfo == nil {
		return nil, fmt.Errorf("output %q not found in model", cfg.OutputName)
	}

	H, rank, err := hiddenSize(outInfo.Dimensions)
	if err != nil {
		return nil, err
	}

	sess, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputNameIDs, cfg.InputNameMask},
		[]string{cfg.OutputName},
		nil, // no special SessionOptions
	)
	if err != nil {
		return nil, fmt.Errorf("NewDynamicAdvancedSession: %w", err)
	}

	l.Info("onnx encoder ready", "output", cfg.OutputName, "rank", rank, "hidden-size", H, "pooling", strategy.String(), "padding-index", padID)

	return &Encoder{
		cfg:        cfg,
		tok:        tok,
		sess:       sess,
		strategy:   strategy,
		padID:      padID,
		pooledOut:  rank == 2,
		hiddenSize: H,
	}, nil
}

// hiddenSize resolves H from a [B,H] or [B,T,H] output shape.
func hiddenSize(outDims []int64) (int, int, error) {
	rank := len(outDims)
	switch rank {
	case 2: // [B, H]
		if outDims[1] <= 0 {
			return 0, rank, fmt.Errorf("can't resolve H from dims %v", outDims)
		}
		return int(outDims[1]), rank, nil
	case 3: // [B, T, H]
		if outDims[2] <= 0 {
			return 0, rank, fmt.Errorf("can't resolve H from dims %v", outDims)
		}
		return int(outDims[2]), rank, nil
	default:
		return 0, rank, fmt.Errorf("unexpected output rank %d (dims=%v), want 2 or 3", rank, outDims)
	}
}

func (e *Encoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if e.sess == nil {
		return nil, fmt.Errorf("encoder not initialized")
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	// 1) Tokenize
	batch, err := e.tok.EncodeBatch(texts, e.cfg.MaxSeqLen)
	if err != nil {
		return nil, err
	}
	B, T, H := len(texts), batch.SeqLen, e.hiddenSize

	// 2) Inputs [B,T] int64
	shape2 := ort.NewShape(int64(B), int64(T))
	idTensor, err := ort.NewTensor(shape2, flatten[int64](batch.IDs))
	if err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	defer idTensor.Destroy()

	maskTensor, err := ort.NewTensor(shape2, flatten[int64](batch.Mask))
	if err != nil {
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	// 3) Output tensor(s) float32
	var outTensor *ort.Tensor[float32]
	if e.pooledOut {
		outTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(int64(B), int64(H))) // [B,H]
	} else {
		outTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(int64(B), int64(T), int64(H))) // [B,T,H]
	}
	if err != nil {
		return nil, fmt.Errorf("alloc out tensor: %w", err)
	}
	defer outTensor.Destroy()

	// 4) Run
	if err := e.sess.Run([]ort.Value{idTensor, maskTensor}, []ort.Value{outTensor}); err != nil {
		return nil, fmt.Errorf("ORT Run: %w", err)
	}

	// 5) Collect (+ pooling)
	data := outTensor.GetData() // []float32

	var embs [][]float32
	if e.pooledOut {
		embs = make([][]float32, B)
		for b := 0; b < B; b++ {
			row := make([]float32, H)
			copy(row, data[b*H:(b+1)*H])
			embs[b] = row
		}
	} else {
		embs, err = poolHidden(e.strategy, data, batch.IDs, batch.Mask, H, e.padID)
		if err != nil {
			return nil, fmt.Errorf("pool hidden states: %w", err)
		}
	}

	if !e.cfg.SkipNormalize {
		for _, v := range embs {
			pooling.L2Normalize(v)
		}
	}
	return embs, nil
}

func (e *Encoder) Close() error {
	var err error
	if e.sess != nil {
		err = e.sess.Destroy()
		e.sess = nil
	}
	if e.cfg.GlobalRuntime {
		return err
	}
	if eErr := ort.DestroyEnvironment(); eErr != nil {
		if err != nil {
			return errors.Join(err, eErr)
		}
		return eErr
	}
	return err
}
