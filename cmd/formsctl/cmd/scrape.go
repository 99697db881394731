package cmd

import (
	"fmt"
	"strings"

	"eventreg-backend/internal/components/restyutil"
	"eventreg-backend/internal/components/telemetry"
	"eventreg-backend/internal/gforms/entries"
	"eventreg-backend/internal/gforms/scraper"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type scrapedEntry struct {
	Title      string        `json:"title" yaml:"title"`
	Occurrence int           `json:"occurrence" yaml:"occurrence"`
	ID         string        `json:"id,omitempty" yaml:"id,omitempty"`
	Kind       entries.Kind  `json:"kind,omitempty" yaml:"kind,omitempty"`
	Rows       []entries.Row `json:"rows,omitempty" yaml:"rows,omitempty"`
}

func flattenEntries(queues []entries.TitleQueue, index entries.Index) []scrapedEntry {
	var out []scrapedEntry
	for _, queue := range queues {
		for i, e := range queue.Entries {
			entry := scrapedEntry{
				Title:      queue.Title,
				Occurrence: i + 1,
				ID:         e.ID,
				Rows:       e.Rows,
			}
			if e.IsGrid() {
				entry.Kind = entries.KindGrid
			} else if field, ok := index.Lookup(e.ID); ok {
				entry.Kind = field.Kind
			}
			out = append(out, entry)
		}
	}
	return out
}

func rowsText(rows []entries.Row) string {
	parts := make([]string, 0, len(rows))
	for _, r := range rows {
		parts = append(parts, fmt.Sprintf("%s=%s", r.Label, r.ID))
	}
	return strings.Join(parts, "\n")
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <published id>",
	Short: "Print the entry identifiers embedded in a published form page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dump restyutil.Output
		if cfg.Registration.DumpHttpDir != "" {
			output, err := restyutil.NewDirectoryOutput(cfg.Registration.DumpHttpDir)
			if err != nil {
				return err
			}
			dump = output
		}
		client := scraper.NewClient(scraper.Options{
			Timeout: cfg.Registration.Timeout(),
			Retries: cfg.Registration.Scraper.Retries,
			Dump:    dump,
		}, telemetry.SlogAPI{})

		page, err := client.FetchPage(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if page.Payload == "" {
			return scraper.ErrPayloadNotFound
		}
		result, err := scraper.Parse(page.Payload)
		if err != nil {
			return err
		}

		scraped := flattenEntries(result.Entries.Snapshot(), result.Index)
		printed, err := printStructured(scraped)
		if printed || err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Title", "#", "Kind", "Entry", "Rows"})
		for _, e := range scraped {
			t.AppendRow(table.Row{e.Title, e.Occurrence, e.Kind, e.ID, rowsText(e.Rows)})
		}
		t.AppendFooter(table.Row{"", "", "", "token", page.Token != ""})
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}
