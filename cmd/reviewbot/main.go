package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/heycochrane/reviewbot/internal/app"
	"github.com/heycochrane/reviewbot/internal/config"
	"github.com/heycochrane/reviewbot/internal/logging"
	"github.com/heycochrane/reviewbot/internal/usecase"
)

func main() {
	cliApp := &cli.App{
		Name:  "reviewbot",
		Usage: "discover, summarize and date Cochrane reviews",
		Commands: []*cli.Command{
			{
				Name:  "update",
				Usage: "discover new reviews, summarize them and append to the store",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "discover reviews but do not call the API or modify files",
					},
					&cli.IntFlag{
						Name:  "max-reviews",
						Value: 10,
						Usage: "maximum number of new reviews to process",
					},
				},
				Action: func(c *cli.Context) error {
					application, err := build()
					if err != nil {
						return err
					}
					return application.Update(c.Context, usecase.UpdateOptions{
						DryRun:     c.Bool("dry-run"),
						MaxReviews: c.Int("max-reviews"),
					})
				},
			},
			{
				Name:  "backfill-dates",
				Usage: "fill missing publication dates on existing store entries",
				Action: func(c *cli.Context) error {
					application, err := build()
					if err != nil {
						return err
					}
					return application.BackfillDates(c.Context)
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "reviewbot:", err)
		os.Exit(1)
	}
}

func build() (*app.Application, error) {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	return app.New(cfg, logger)
}
