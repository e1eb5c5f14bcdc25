package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/prayerbook/internal/entities"
	"github.com/mrlokans/prayerbook/internal/entrypoint"
)

func newFavoritesCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"favourites", "fav"},
		Short:   "Manage favourite prayers",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List favourites with their best available text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				favorites, err := app.Query.GetFavoritePrayers(ctx, opts.lang)
				if err != nil {
					return err
				}
				return printFavorites(cmd, opts.json, favorites)
			})
		},
	}

	add := favoriteMutation(opts, "add <prayer id>", "Mark a prayer as favourite",
		func(ctx context.Context, app *entrypoint.App, id int64) (string, error) {
			added, err := app.Query.AddFavorite(ctx, id)
			if err != nil {
				return "", err
			}
			if !added {
				return "Prayer %d is already a favourite.", nil
			}
			return "Added prayer %d to favourites.", nil
		})

	remove := favoriteMutation(opts, "remove <prayer id>", "Unmark a favourite prayer",
		func(ctx context.Context, app *entrypoint.App, id int64) (string, error) {
			removed, err := app.Query.RemoveFavorite(ctx, id)
			if err != nil {
				return "", err
			}
			if !removed {
				return "Prayer %d was not a favourite.", nil
			}
			return "Removed prayer %d from favourites.", nil
		})

	toggle := favoriteMutation(opts, "toggle <prayer id>", "Flip the favourite state of a prayer",
		func(ctx context.Context, app *entrypoint.App, id int64) (string, error) {
			now, err := app.Query.ToggleFavorite(ctx, id)
			if err != nil {
				return "", err
			}
			if now {
				return "Prayer %d is now a favourite.", nil
			}
			return "Prayer %d is no longer a favourite.", nil
		})

	cmd.AddCommand(list, add, remove, toggle)
	return cmd
}

// favoriteMutation builds a subcommand taking one prayer id; apply returns a
// format string for the id.
func favoriteMutation(opts *rootOptions, use, short string, apply func(context.Context, *entrypoint.App, int64) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				format, err := apply(ctx, app, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), format+"\n", id)
				return nil
			})
		},
	}
}

func printFavorites(cmd *cobra.Command, asJSON bool, favorites []entities.FavoritePrayer) error {
	out := cmd.OutOrStdout()
	if asJSON {
		if favorites == nil {
			favorites = []entities.FavoritePrayer{}
		}
		return writeJSON(out, favorites)
	}
	if len(favorites) == 0 {
		fmt.Fprintln(out, "No favourites yet.")
		return nil
	}
	tw := newTable(out, "ID", "NAME", "LANG", "ADDED")
	for _, f := range favorites {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", f.ID, f.Name, orDash(f.ResolvedLanguage), f.AddedAt.Local().Format("2006-01-02"))
	}
	return tw.Flush()
}
