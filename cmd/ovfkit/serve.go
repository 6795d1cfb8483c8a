package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ovfkit/internal/api"
	"github.com/samcharles93/ovfkit/internal/logger"
	"github.com/samcharles93/ovfkit/internal/series"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		dataDir     string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the decode API over files under a data directory",
		Flags: append(groupFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Aliases:     []string{"d"},
				Usage:       "directory requests are resolved against (default: $" + envDataDir + " or .)",
				Destination: &dataDir,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, loaded, &dataDir, &addr)

			root, err := resolveDataDir(dataDir)
			if err != nil {
				return err
			}
			budget, err := parseMemoryBudget(memoryBudget)
			if err != nil {
				return err
			}

			server, err := api.NewServer(api.Config{
				DataDir: root,
				Mmap:    useMmap,
				Logger:  log.With("component", "api"),
				SeriesOptions: []series.Option{
					series.WithPrefix(groupPrefix),
					series.WithWorkers(int(workers)),
					series.WithMemoryBudget(budget),
					series.WithMemoryFraction(memoryFraction),
				},
			}, api.NewDecodeStore())
			if err != nil {
				return err
			}

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "data_dir", root)
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
