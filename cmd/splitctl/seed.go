package main

import (
	"fmt"
	"log"

	"splitboard/internal/bootstrap"
	"splitboard/internal/cache"
	"splitboard/internal/seed"
	"splitboard/internal/storage"

	"github.com/urfave/cli/v2"
)

func newSeedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "fill the database with demo users, splits and comments",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "users", Value: 10, Usage: "generated users"},
			&cli.IntFlag{Name: "splits", Value: 3, Usage: "splits per generated user"},
			&cli.IntFlag{Name: "comments", Value: 2, Usage: "comments per split"},
			&cli.IntFlag{Name: "max-days", Value: 60, Usage: "spread split timestamps over this many days"},
			&cli.BoolFlag{Name: "clean", Usage: "delete existing users, splits and comments first"},
			&cli.StringFlag{Name: "fixture", Usage: "YAML fixture to load instead of generated data"},
			&cli.StringFlag{Name: "password", Value: seed.DefaultPassword, Usage: "password for every seeded user"},
			&cli.Int64Flag{Name: "random-seed", Usage: "fixed seed for reproducible data"},
			&cli.BoolFlag{Name: "fast-hash", Usage: "hash passwords at the minimum bcrypt cost"},
		},
		Action: func(c *cli.Context) error {
			opts := seed.Options{
				NumUsers:         c.Int("users"),
				SplitsPerUser:    c.Int("splits"),
				CommentsPerSplit: c.Int("comments"),
				MaxDays:          c.Int("max-days"),
				ShouldClean:      c.Bool("clean"),
				Password:         c.String("password"),
				RandomSeed:       c.Int64("random-seed"),
				FastHash:         c.Bool("fast-hash"),
			}

			return withRuntime(c.Context, bootstrap.Options{}, func(rt *bootstrap.Runtime) error {
				images := storage.NewIngestor(rt.Config)

				var (
					summary seed.Summary
					err     error
				)
				if path := c.String("fixture"); path != "" {
					fx, lerr := seed.LoadFixtureFile(path)
					if lerr != nil {
						return lerr
					}
					if opts.ShouldClean {
						if err := seed.Clean(c.Context, rt.DB); err != nil {
							return err
						}
					}
					summary, err = fx.Apply(c.Context, rt.DB, images, opts)
				} else {
					summary, err = seed.Seed(c.Context, rt.DB, images, opts)
				}
				if err != nil {
					return fmt.Errorf("seed failed: %w", err)
				}

				if err := cache.InvalidateLeaderboards(c.Context, rt.Redis); err != nil {
					log.Printf("leaderboard cache not invalidated: %v", err)
				}
				fmt.Printf("seeded %s\n", summary)
				return nil
			})
		},
	}
}
