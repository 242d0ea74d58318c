package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/Abdurahmanit/merchsy/internal/feedclient"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func command() *cli.Command {
	return &cli.Command{
		Name:  "merchsy-feed",
		Usage: "Page through a Merchsy feed the way the infinite-scroll view does",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Sources: cli.EnvVars("MERCHSY_API_URL"),
				Usage:   "Base URL of the Merchsy API",
				Value:   "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:    "token",
				Sources: cli.EnvVars("MERCHSY_TOKEN"),
				Usage:   "Bearer token, required for the following and user feeds",
			},
			&cli.StringFlag{
				Name:  "feed",
				Usage: "Feed to read (search|explore|following|user)",
				Value: string(feedclient.KindExplore),
			},
			&cli.StringFlag{Name: "query", Usage: "Search term (search feed only)"},
			&cli.StringSliceFlag{Name: "tag", Usage: "Tag filter, repeatable"},
			&cli.BoolFlag{Name: "all-tags", Usage: "Require every tag instead of any"},
			&cli.FloatFlag{Name: "min-price", Usage: "Minimum price, inclusive"},
			&cli.FloatFlag{Name: "max-price", Usage: "Maximum price, inclusive"},
			&cli.StringSliceFlag{Name: "type", Usage: "Item type filter, repeatable"},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Display order (newest|title-asc|title-desc|price-asc|price-desc)",
				Value: string(feedclient.SortNewest),
			},
			&cli.IntFlag{Name: "pages", Usage: "Pages to load, 0 loads until the feed is exhausted", Value: 1},
			&cli.StringFlag{Name: "log-level", Usage: "Log level", Value: "warn"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			kind, err := feedclient.ParseKind(cmd.String("feed"))
			if err != nil {
				return err
			}
			order, err := feedclient.ParseSortOrder(cmd.String("sort"))
			if err != nil {
				return err
			}

			filters := feedclient.FilterState{
				Query: cmd.String("query"),
				Tags:  cmd.StringSlice("tag"),
				Types: cmd.StringSlice("type"),
			}
			if cmd.Bool("all-tags") {
				filters.TagsApply = feedclient.TagsAll
			}
			if cmd.IsSet("min-price") {
				v := cmd.Float("min-price")
				filters.MinPrice = &v
			}
			if cmd.IsSet("max-price") {
				v := cmd.Float("max-price")
				filters.MaxPrice = &v
			}

			fetcher, err := feedclient.NewHTTPFetcher(cmd.String("server"), cmd.String("token"), nil)
			if err != nil {
				return err
			}
			appLogger := logger.New(logger.NewConfig(cmd.String("log-level"), "console", "stderr"))
			defer func() { _ = appLogger.Sync() }()

			c := feedclient.NewController(fetcher, kind,
				feedclient.WithFilters(filters),
				feedclient.WithLogger(appLogger),
			)
			defer c.Close()

			snap, err := drain(ctx, c, int(cmd.Int("pages")))
			if err != nil {
				return err
			}
			return render(cmd.Writer, kind, snap, order)
		},
	}
}

// drain loads up to pages pages, or everything when pages is 0.
func drain(ctx context.Context, c *feedclient.Controller, pages int) (feedclient.Snapshot, error) {
	for loaded := 0; pages == 0 || loaded < pages; loaded++ {
		started, err := c.LoadNext(ctx)
		if err != nil {
			return c.Snapshot(), err
		}
		if !started {
			break
		}
	}
	return c.Snapshot(), nil
}

func render(w io.Writer, kind feedclient.Kind, snap feedclient.Snapshot, order feedclient.SortOrder) error {
	visible := feedclient.Project(snap.Items, snap.Filters, order)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tTYPE\tTAGS\tOWNER")
	for _, it := range visible {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\t@%s\n",
			it.ID, it.Title, it.Price, it.ItemType, strings.Join(it.Tags, ","), it.Owner.Username)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	summary := fmt.Sprintf("%d shown, %d loaded", len(visible), len(snap.Items))
	if kind == feedclient.KindSearch {
		summary += fmt.Sprintf(", %d matching on server", snap.ResultCount)
	}
	if snap.HasMore {
		summary += ", more available"
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}
