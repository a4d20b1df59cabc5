package main

import (
	"github.com/urfave/cli/v3"

	"github.com/hankgalt/sentencepool/internal/config"
	"github.com/hankgalt/sentencepool/pkg/domain"
)

func encoderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "model-dir",
			Aliases: []string{"m"},
			Usage:   "directory containing model.onnx and tokenizer.json",
		},
		&cli.StringFlag{
			Name:  "output-name",
			Usage: "model output to read, [B,T,H] or [B,H]",
		},
		&cli.StringFlag{
			Name:  "pooling",
			Usage: "pooling strategy for [B,T,H] outputs: avg, max or cls",
		},
		&cli.IntFlag{
			Name:  "max-seq-len",
			Usage: "truncate inputs to this many tokens",
		},
		&cli.BoolFlag{
			Name:  "skip-normalize",
			Usage: "do not L2 normalize embeddings",
		},
	}
}

// loadConfig reads --config (or the default location).
func loadConfig(cmd *cli.Command) (config.Config, error) {
	path := cmd.String("config")
	if path == "" {
		path = config.Path()
	}
	return config.Load(path)
}

// encoderConfig applies encoder flags over the config file when set.
func encoderConfig(cmd *cli.Command, cfg config.Config) domain.ONNXEncoderConfig {
	enc := cfg.EncoderConfig()
	if cmd.IsSet("model-dir") {
		enc.ModelPath = cmd.String("model-dir")
	}
	if cmd.IsSet("output-name") {
		enc.OutputName = cmd.String("output-name")
	}
	if cmd.IsSet("pooling") {
		enc.Pooling = cmd.String("pooling")
	}
	if cmd.IsSet("max-seq-len") {
		enc.MaxSeqLen = cmd.Int("max-seq-len")
	}
	if cmd.IsSet("skip-normalize") {
		enc.SkipNormalize = cmd.Bool("skip-normalize")
	}
	return enc
}
