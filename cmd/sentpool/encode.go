package main

import (
	"context"
	"errors"
	"os"

	"github.com/comfforts/logger"
	"github.com/urfave/cli/v3"

	"github.com/hankgalt/sentencepool"
	"github.com/hankgalt/sentencepool/pkg/domain"
)

func encodeCmd() *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "Encode texts with an ONNX sentence encoder",
		ArgsUsage: "text...",
		Flags:     encoderFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			l, err := logger.LoggerFromContext(ctx)
			if err != nil {
				l = logger.GetSlogLogger()
			}

			texts := cmd.Args().Slice()
			if len(texts) == 0 {
				return errors.New("no texts to encode")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			encCfg := encoderConfig(cmd, cfg)
			if encCfg.ModelPath == "" {
				return errors.New("missing --model-dir")
			}

			st, err := sentencepool.NewONNXSentenceTransformer(ctx, encCfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := st.Close(ctx); err != nil {
					l.Error("encode - close encoder", "error", err.Error())
				}
			}()

			vecs, err := st.Encode(ctx, texts)
			if err != nil {
				return err
			}
			l.Info("encoded texts", "num-embeddings", len(vecs), "pooling", encCfg.Pooling)
			return writeJSON(os.Stdout, domain.Vectors(vecs))
		},
	}
}
