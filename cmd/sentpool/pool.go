package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/hankgalt/sentencepool"
	"github.com/hankgalt/sentencepool/pkg/domain"
)

func poolCmd() *cli.Command {
	return &cli.Command{
		Name:  "pool",
		Usage: "Pool a JSON batch of token embeddings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "in",
				Usage: "pool request JSON file, - for stdin",
				Value: "-",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "override the request strategy: avg, max or cls",
			},
			&cli.BoolFlag{
				Name:  "normalize",
				Usage: "L2 normalize pooled vectors",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			req, err := readPoolRequest(cmd.String("in"))
			if err != nil {
				return err
			}
			if cmd.IsSet("strategy") {
				req.Strategy = cmd.String("strategy")
			}
			if cmd.IsSet("normalize") {
				req.Normalize = cmd.Bool("normalize")
			}

			resp, err := sentencepool.Pool(ctx, req)
			if err != nil {
				return err
			}
			return writeJSON(os.Stdout, resp)
		},
	}
}

func readPoolRequest(path string) (*domain.PoolRequest, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var req domain.PoolRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("decode pool request: %w", err)
	}
	return &req, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
