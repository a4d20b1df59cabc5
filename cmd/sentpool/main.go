package main

import (
	"context"
	"fmt"
	"os"

	"github.com/comfforts/logger"
	"github.com/urfave/cli/v3"
)

func main() {
	l := logger.GetSlogLogger()
	ctx := logger.WithLogger(context.Background(), l)

	app := &cli.Command{
		Name:  "sentpool",
		Usage: "Pool token embeddings into sentence embeddings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to config.yaml",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			poolCmd(),
			encodeCmd(),
			serveCmd(),
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
