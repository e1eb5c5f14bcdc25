package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/prayerbook/internal/entrypoint"
)

func newUserCategoriesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user-categories",
		Aliases: []string{"uc"},
		Short:   "Manage your own prayer collections",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List user categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				categories, err := app.Query.ListUserCategories(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.json {
					return writeJSON(out, categories)
				}
				if len(categories) == 0 {
					fmt.Fprintln(out, "No user categories yet.")
					return nil
				}
				tw := newTable(out, "ID", "TITLE", "COLOR")
				for _, c := range categories {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Title, c.Color)
				}
				return tw.Flush()
			})
		},
	}

	var color string
	create := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a user category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				category, err := app.Query.CreateUserCategory(ctx, args[0], color)
				if err != nil {
					return err
				}
				if opts.json {
					return writeJSON(cmd.OutOrStdout(), category)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user category %q (#%d).\n", category.Title, category.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&color, "color", "", "color as #RRGGBB")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				if err := app.Query.DeleteUserCategory(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted user category %d.\n", id)
				return nil
			})
		},
	}

	add := &cobra.Command{
		Use:   "add <id> <prayer id>",
		Short: "Add a prayer to a user category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, prayerID, err := parseIDPair(args)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				return app.Query.AddPrayerToUserCategory(ctx, id, prayerID)
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <id> <prayer id>",
		Short: "Remove a prayer from a user category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, prayerID, err := parseIDPair(args)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				return app.Query.RemovePrayerFromUserCategory(ctx, id, prayerID)
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "List the prayers of a user category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				prayers, err := app.Query.GetUserCategoryPrayers(ctx, id, opts.lang)
				if err != nil {
					return err
				}
				return printPrayers(cmd.OutOrStdout(), opts.json, prayers)
			})
		},
	}

	cmd.AddCommand(list, create, del, add, remove, show)
	return cmd
}

func parseIDPair(args []string) (int64, int64, error) {
	first, err := parseID(args[0])
	if err != nil {
		return 0, 0, err
	}
	second, err := parseID(args[1])
	if err != nil {
		return 0, 0, err
	}
	return first, second, nil
}
