package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"splitboard/internal/bootstrap"
	"splitboard/internal/models"
	"splitboard/internal/repository"
	"splitboard/internal/service"

	"github.com/urfave/cli/v2"
)

func newLeaderboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "leaderboard",
		Usage: "print a ranking",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "highest-single, average-rating or total-splits"},
			&cli.StringFlag{Name: "timeframe", Aliases: []string{"f"}, Usage: "all-time, weekly or monthly"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 10},
			&cli.UintFlag{Name: "user", Usage: "also report this user's standing"},
		},
		Action: func(c *cli.Context) error {
			return withRuntime(c.Context, bootstrap.Options{SkipSchema: true}, func(rt *bootstrap.Runtime) error {
				svc := service.NewLeaderboardService(repository.NewSplitRepository(rt.DB), rt.Redis, rt.Config.LeaderboardCacheTTL())
				res, err := svc.Compute(c.Context, service.LeaderboardQuery{
					Type:        c.String("type"),
					Timeframe:   c.String("timeframe"),
					Limit:       c.Int("limit"),
					RequesterID: c.Uint("user"),
				})
				if err != nil {
					return err
				}
				fmt.Printf("%s / %s\n", res.Type, res.Timeframe)
				if err := printLeaderboard(os.Stdout, res.Entries); err != nil {
					return err
				}
				if c.Uint("user") != 0 {
					if res.Requester == nil {
						fmt.Printf("user %d is not ranked\n", c.Uint("user"))
					} else {
						fmt.Printf("user %s is ranked #%d with %.2f\n", res.Requester.Username, res.Requester.Rank, res.Requester.Score)
					}
				}
				return nil
			})
		},
	}
}

func printLeaderboard(w io.Writer, entries []models.LeaderboardEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tUSER\tSCORE\tSPLITS\tACHIEVED")
	for _, e := range entries {
		splits := "-"
		if e.SplitCount != nil {
			splits = fmt.Sprintf("%d", *e.SplitCount)
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%s\n", e.Rank, e.Username, e.Score, splits, e.AchievedAt.Format("2006-01-02"))
	}
	if len(entries) == 0 {
		fmt.Fprintln(tw, "-\t(no qualifying users)\t\t\t")
	}
	return tw.Flush()
}
