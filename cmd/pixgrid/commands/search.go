package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/strrl/pixgrid/internal/gallery"
	"github.com/strrl/pixgrid/internal/journal"
	"github.com/strrl/pixgrid/pkg/models"
)

var searchPages int

// NewSearchCommand creates the search command
func NewSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search images without the TUI",
		Long: `Search images in a non-interactive format.
Pages are fetched one after another, exactly as "load more" does in the TUI,
until --pages pages were shown or the results run out.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}
	cmd.Flags().IntVarP(&searchPages, "pages", "p", 1, "Number of pages to fetch")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchPages < 1 {
		return fmt.Errorf("--pages must be at least 1")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr)
	out := cmd.OutOrStdout()

	opts := []gallery.Option{
		gallery.WithLogger(logger),
		gallery.WithTimeout(cfg.RequestTimeout.Duration),
	}
	j, err := journal.Open()
	if err != nil {
		logger.Warn("fetch journal disabled", "error", err)
	} else {
		defer j.Close()
		opts = append(opts, gallery.WithRecorder(j))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	notifier := gallery.NotifierFunc(func(n gallery.Notice) {
		fmt.Fprintf(out, "[%s] %s\n", n.Level, n.Text)
	})
	controller := gallery.NewController[models.Image](newClient(cfg), notifier, opts...)

	if err := paginate(ctx, out, controller, strings.Join(args, " "), searchPages); err != nil {
		return err
	}

	if j != nil {
		return printJournal(ctx, out, j)
	}
	return nil
}

// paginate submits query and keeps loading pages until pages were shown
func paginate(ctx context.Context, out io.Writer, controller *gallery.Controller[models.Image], query string, pages int) error {
	req, ok := controller.SubmitQuery(query)
	printed := 0

	for ok {
		res := controller.Fetch(ctx, req)
		controller.Resolve(res)
		if res.Err != nil {
			return fmt.Errorf("failed to fetch page %d: %w", req.Page, res.Err)
		}

		s := controller.Session()
		if len(res.Page.Hits) > 0 {
			fmt.Fprintf(out, "Page %d for %q (%d of %d images):\n", req.Page, s.Query, len(s.Results), s.TotalAvailable)
			fmt.Fprintln(out, "===================================")
			for i, img := range s.Results[printed:] {
				printImage(out, printed+i+1, img)
			}
			fmt.Fprintln(out)
			printed = len(s.Results)
		}

		if req.Page >= pages {
			break
		}
		req, ok = controller.LoadMore()
	}
	return nil
}

func printImage(out io.Writer, n int, img models.Image) {
	fmt.Fprintf(out, "%d. %s\n", n, truncateString(img.Tags, 60))
	fmt.Fprintf(out, "   By: %s  Size: %dx%d  Likes: %d  Downloads: %d\n",
		img.User, img.ImageWidth, img.ImageHeight, img.Likes, img.Downloads)
	fmt.Fprintf(out, "   %s\n", img.LargeImageURL)
}

func printJournal(ctx context.Context, out io.Writer, j *journal.Journal) error {
	stats, err := j.Summary(ctx)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		return nil
	}

	fmt.Fprintln(out, "Fetches:")
	for _, s := range stats {
		fmt.Fprintf(out, "  %q: %d requests, %d failed, %d images, avg %.0fms\n",
			s.Query, s.Fetches, s.Failures, s.Hits, s.AvgElapsedMs)
	}
	return nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
