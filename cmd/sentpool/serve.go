package main

import (
	"context"
	"net/http"
	"time"

	"github.com/comfforts/logger"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/hankgalt/sentencepool"
	"github.com/hankgalt/sentencepool/internal/server"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the pooling API over HTTP",
		Flags: append(encoderFlags(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address",
				Value: "127.0.0.1:8080",
			},
			&cli.DurationFlag{
				Name:  "read-timeout",
				Usage: "read header timeout",
				Value: 30 * time.Second,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			l, err := logger.LoggerFromContext(ctx)
			if err != nil {
				l = logger.GetSlogLogger()
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			addr := cmd.String("addr")
			if cfg.ServerAddress != "" && !cmd.IsSet("addr") {
				addr = cfg.ServerAddress
			}

			// /v1/encode is only served when a model is configured.
			var enc server.Encoder
			encCfg := encoderConfig(cmd, cfg)
			if encCfg.ModelPath != "" {
				st, err := sentencepool.NewONNXSentenceTransformer(ctx, encCfg)
				if err != nil {
					return err
				}
				defer func() {
					if err := st.Close(ctx); err != nil {
						l.Error("serve - close encoder", "error", err.Error())
					}
				}()
				enc = st
			}

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.NewServer(ctx, enc).Register(e)

			l.Info("starting server", "address", addr, "encoder", enc != nil)
			readTimeout := cmd.Duration("read-timeout")
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
