package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/prayerbook/internal/entities"
	"github.com/mrlokans/prayerbook/internal/entrypoint"
	"github.com/mrlokans/prayerbook/internal/notices"
	"github.com/mrlokans/prayerbook/internal/syncer"
)

const maxReportedNotices = 20

// withApp opens the application, runs fn and prints the notices raised
// meanwhile to stderr.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *entrypoint.App) error) error {
	app, err := o.openApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	runErr := fn(cmd.Context(), app)
	for _, event := range app.Hub.Recent(maxReportedNotices) {
		if event.Type == notices.EventNotice {
			fmt.Fprintf(cmd.ErrOrStderr(), "notice: %s\n", event.Message)
		}
	}
	return runErr
}

func newSyncCommand(opts *rootOptions) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle against the remote dataset",
		Long: `Sync checks connectivity, compares the remote dataset version with the
local one and mirrors every table when they differ. Without connectivity the
existing local data is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				outcome, err := app.Orchestrator.RunCycle(ctx, entities.SyncTriggerManual)
				if opts.json {
					result := map[string]any{"outcome": outcome}
					if err != nil {
						result["error"] = err.Error()
					}
					if werr := writeJSON(cmd.OutOrStdout(), result); werr != nil {
						return werr
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sync outcome: %s\n", outcome)
				if err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}
				if outcome == syncer.OutcomeOfflineNoData {
					return errors.New("offline and no local data available")
				}
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "maximum duration of the cycle")
	return cmd
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	var runs int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the local mirror version and recent sync runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				status, err := app.KV.GetSyncStatus(ctx)
				if err != nil {
					return err
				}
				history, err := app.SyncRepo.LatestRuns(ctx, runs)
				if err != nil {
					return err
				}
				count, err := app.Query.GetPrayerCount(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if opts.json {
					return writeJSON(out, map[string]any{
						"status":  status,
						"prayers": count,
						"runs":    history,
					})
				}

				fmt.Fprintf(out, "Version:   %s\n", orDash(status.Version))
				if status.LastSyncAt != nil {
					fmt.Fprintf(out, "Last sync: %s\n", status.LastSyncAt.Local().Format(time.RFC1123))
				} else {
					fmt.Fprintln(out, "Last sync: never")
				}
				fmt.Fprintf(out, "Status:    %s\n", orDash(status.Status))
				if status.Message != "" {
					fmt.Fprintf(out, "Message:   %s\n", status.Message)
				}
				fmt.Fprintf(out, "Prayers:   %d\n", count)
				if len(history) == 0 {
					return nil
				}
				fmt.Fprintln(out)
				tw := newTable(out, "RUN", "TRIGGER", "STATUS", "STARTED", "ROWS", "ERROR")
				for _, r := range history {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", r.ID, r.Trigger, r.Status, r.StartedAt.Local().Format(time.DateTime), r.Rows, r.Error)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&runs, "runs", 5, "number of recent runs to show")
	return cmd
}

func newSearchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search prayer names and texts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				prayers, err := app.Query.SearchPrayers(ctx, strings.Join(args, " "), opts.lang)
				if err != nil {
					return err
				}
				return printPrayers(cmd.OutOrStdout(), opts.json, prayers)
			})
		},
	}
}

func newCategoriesCommand(opts *rootOptions) *cobra.Command {
	var parent int64
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List top-level categories or the children of --parent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				var (
					categories []entities.Category
					err        error
				)
				if parent > 0 {
					if _, err = app.Query.GetCategoryByID(ctx, parent); err != nil {
						return err
					}
					categories, err = app.Query.GetChildCategories(ctx, parent)
				} else {
					categories, err = app.Query.GetRootCategories(ctx)
				}
				if err != nil {
					return err
				}
				return printCategories(cmd.OutOrStdout(), opts.json, categories)
			})
		},
	}
	cmd.Flags().Int64Var(&parent, "parent", 0, "list the children of this category id")
	return cmd
}

func newPrayersCommand(opts *rootOptions) *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "prayers <category title>",
		Short: "List the prayers of a category and its direct subcategories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				if !recursive {
					prayers, err := app.Query.GetPrayersByCategoryTitle(ctx, title, opts.lang)
					if err != nil {
						return err
					}
					return printPrayers(cmd.OutOrStdout(), opts.json, prayers)
				}
				category, err := app.Query.GetCategoryByTitle(ctx, title)
				if err != nil {
					return err
				}
				prayers, err := app.Query.GetPrayersInCategoryTree(ctx, category.ID, opts.lang)
				if err != nil {
					return err
				}
				return printPrayers(cmd.OutOrStdout(), opts.json, prayers)
			})
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "include every nested subcategory")
	return cmd
}

func newPrayerCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prayer <id>",
		Short: "Show one prayer, falling back to the fallback language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				prayer, err := app.Query.GetPrayer(ctx, id, opts.lang)
				if err != nil {
					return err
				}
				return printPrayer(cmd.OutOrStdout(), opts.json, prayer)
			})
		},
	}
}

func newLatestCommand(opts *rootOptions) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "List the newest prayers, one page at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				prayers, err := app.Query.GetLatestPrayers(ctx, opts.lang, page)
				if err != nil {
					return err
				}
				return printPrayers(cmd.OutOrStdout(), opts.json, prayers)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "page number, starting at 0")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
