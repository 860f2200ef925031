// Command splitctl is the operator CLI: schema migrations, demo data,
// leaderboard inspection and a live feed tail.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"splitboard/internal/bootstrap"
	"splitboard/internal/config"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "splitctl",
		Usage: "operate a splitboard deployment",
		Commands: []*cli.Command{
			newMigrateCommand(),
			newSeedCommand(),
			newLeaderboardCommand(),
			newFeedCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// withRuntime loads configuration, connects and runs fn, closing the
// connections afterwards.
func withRuntime(ctx context.Context, opts bootstrap.Options, fn func(*bootstrap.Runtime) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "splitctl"
	}

	rt, err := bootstrap.InitRuntime(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			log.Printf("close runtime: %v", err)
		}
	}()

	return fn(rt)
}
