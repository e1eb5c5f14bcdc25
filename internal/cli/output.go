package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mrlokans/prayerbook/internal/entities"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

// printPrayers renders a prayer listing as JSON or as an aligned table.
func printPrayers(w io.Writer, asJSON bool, prayers []entities.PrayerWithTranslation) error {
	if asJSON {
		if prayers == nil {
			prayers = []entities.PrayerWithTranslation{}
		}
		return writeJSON(w, prayers)
	}
	if len(prayers) == 0 {
		fmt.Fprintln(w, "No prayers found.")
		return nil
	}
	tw := newTable(w, "ID", "NAME", "CATEGORY", "LANG")
	for _, p := range prayers {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", p.ID, p.Name, p.CategoryID, deref(p.LanguageCode, "-"))
	}
	return tw.Flush()
}

// printPrayer renders one prayer with its text sections.
func printPrayer(w io.Writer, asJSON bool, prayer *entities.PrayerWithTranslation) error {
	if asJSON {
		return writeJSON(w, prayer)
	}
	fmt.Fprintf(w, "%s (#%d)\n", prayer.Name, prayer.ID)
	if prayer.ArabicTitle != nil {
		fmt.Fprintln(w, *prayer.ArabicTitle)
	}
	if prayer.LanguageCode == nil {
		fmt.Fprintln(w, "\nNo text available in this language.")
		return nil
	}
	fmt.Fprintf(w, "Language: %s\n", *prayer.LanguageCode)
	for _, section := range []struct {
		title string
		text  *string
	}{
		{"Introduction", prayer.Introduction},
		{"Prayer", prayer.MainBody},
		{"Notes", prayer.Notes},
		{"Source", prayer.Source},
	} {
		if section.text == nil || strings.TrimSpace(*section.text) == "" {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n%s\n", section.title, *section.text)
	}
	return nil
}

func printCategories(w io.Writer, asJSON bool, categories []entities.Category) error {
	if asJSON {
		if categories == nil {
			categories = []entities.Category{}
		}
		return writeJSON(w, categories)
	}
	if len(categories) == 0 {
		fmt.Fprintln(w, "No categories found.")
		return nil
	}
	tw := newTable(w, "ID", "TITLE", "PARENT")
	for _, c := range categories {
		parent := "-"
		if c.ParentID != nil {
			parent = fmt.Sprint(*c.ParentID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Title, parent)
	}
	return tw.Flush()
}

func deref(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
