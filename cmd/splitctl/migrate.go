package main

import (
	"fmt"
	"log"
	"strconv"

	"splitboard/internal/bootstrap"
	"splitboard/internal/database"

	"github.com/urfave/cli/v2"
)

func newMigrateCommand() *cli.Command {
	schemaless := bootstrap.Options{SkipSchema: true}

	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply pending SQL migrations",
				Action: func(c *cli.Context) error {
					return withRuntime(c.Context, schemaless, func(rt *bootstrap.Runtime) error {
						if err := database.RunMigrations(c.Context, rt.DB); err != nil {
							return fmt.Errorf("sql migrations failed: %w", err)
						}
						log.Println("sql migrations applied")
						return nil
					})
				},
			},
			{
				Name:  "auto",
				Usage: "run GORM AutoMigrate for every persistent model",
				Action: func(c *cli.Context) error {
					return withRuntime(c.Context, schemaless, func(rt *bootstrap.Runtime) error {
						rt.Config.DBSchemaMode = database.SchemaModeAuto
						if err := database.ApplySchema(c.Context, rt.DB, rt.Config); err != nil {
							return fmt.Errorf("auto schema apply failed: %w", err)
						}
						log.Println("automigrations applied")
						return nil
					})
				},
			},
			{
				Name:  "status",
				Usage: "show applied and pending migrations",
				Action: func(c *cli.Context) error {
					return withRuntime(c.Context, schemaless, func(rt *bootstrap.Runtime) error {
						status, err := database.GetSchemaStatus(c.Context, rt.DB, rt.Config)
						if err != nil {
							return fmt.Errorf("schema status failed: %w", err)
						}
						fmt.Printf("mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d\n",
							status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
							len(status.AppliedVersions), len(status.PendingMigrations))
						for _, m := range status.PendingMigrations {
							fmt.Printf("pending: %06d_%s\n", m.Version, m.Name)
						}
						return nil
					})
				},
			},
			{
				Name:      "down",
				Usage:     "roll back one migration",
				ArgsUsage: "<version>",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return cli.Exit("usage: splitctl migrate down <version>", 2)
					}
					version, err := strconv.Atoi(c.Args().First())
					if err != nil {
						return fmt.Errorf("invalid version %q: %w", c.Args().First(), err)
					}
					return withRuntime(c.Context, schemaless, func(rt *bootstrap.Runtime) error {
						if err := database.RollbackMigration(c.Context, rt.DB, version); err != nil {
							return fmt.Errorf("rollback failed: %w", err)
						}
						log.Printf("rolled back migration %d", version)
						return nil
					})
				},
			},
		},
	}
}
