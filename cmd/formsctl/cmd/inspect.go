package cmd

import (
	"fmt"

	"eventreg-backend/internal/components/telemetry"
	"eventreg-backend/internal/gforms/entries"
	"eventreg-backend/internal/registration"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var formType string

type inspectedQuestion struct {
	Title    string         `json:"title" yaml:"title"`
	Type     string         `json:"type" yaml:"type"`
	ID       string         `json:"id" yaml:"id"`
	EntryID  string         `json:"entryId,omitempty" yaml:"entryId,omitempty"`
	Match    string         `json:"match" yaml:"match"`
	Matched  string         `json:"matchedTitle,omitempty" yaml:"matchedTitle,omitempty"`
	Fallback bool           `json:"fallback" yaml:"fallback"`
	Rows     []inspectedRow `json:"rows,omitempty" yaml:"rows,omitempty"`
}

type inspectedRow struct {
	Label    string `json:"label" yaml:"label"`
	ID       string `json:"id" yaml:"id"`
	Fallback bool   `json:"fallback" yaml:"fallback"`
}

type inspectOutput struct {
	Form      string              `json:"form" yaml:"form"`
	Questions []inspectedQuestion `json:"questions" yaml:"questions"`
	Leftover  []scrapedEntry      `json:"leftover,omitempty" yaml:"leftover,omitempty"`
	Misses    int                 `json:"misses" yaml:"misses"`
}

func inspectionOutput(inspection registration.Inspection) inspectOutput {
	out := inspectOutput{
		Form:     inspection.Form.Title,
		Leftover: flattenEntries(inspection.Leftover, entries.Index{}),
		Misses:   len(inspection.Report.Misses),
	}
	for _, q := range inspection.Questions {
		iq := inspectedQuestion{
			Title:    q.Title,
			Type:     string(q.Type),
			ID:       q.ID,
			EntryID:  q.EntryID,
			Match:    string(q.Match),
			Matched:  q.MatchedTitle,
			Fallback: q.Fallback,
		}
		for _, row := range q.Rows {
			iq.Rows = append(iq.Rows, inspectedRow{Label: row.Label, ID: row.ID, Fallback: row.Fallback})
		}
		out.Questions = append(out.Questions, iq)
	}
	return out
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Reconcile a configured form and show how every question was matched.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := registration.New(cmd.Context(), cfg.Registration, telemetry.SlogAPI{})
		if err != nil {
			return err
		}
		inspection, err := service.Inspect(cmd.Context(), formType)
		if err != nil {
			return err
		}

		out := inspectionOutput(inspection)
		printed, err := printStructured(out)
		if printed || err != nil {
			return err
		}

		t := newTable()
		t.SetTitle(out.Form)
		t.AppendHeader(table.Row{"Question", "Type", "Id", "Match"})
		for _, q := range out.Questions {
			id := q.ID
			if q.Fallback {
				id = text.FgRed.Sprint(id)
			}
			t.AppendRow(table.Row{q.Title, q.Type, id, q.Match})
			for _, row := range q.Rows {
				rowID := row.ID
				if row.Fallback {
					rowID = text.FgRed.Sprint(rowID)
				}
				t.AppendRow(table.Row{"  " + row.Label, "row", rowID, ""})
			}
		}
		t.AppendFooter(table.Row{"misses", out.Misses, "leftover", len(out.Leftover)})
		t.Render()

		for _, miss := range inspection.Report.Misses {
			if miss.Nearest == "" {
				continue
			}
			fmt.Printf("%q: nearest scraped title %q (%.2f)\n", miss.Title, miss.Nearest, miss.Similarity)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVar(&formType, "type", registration.DefaultType, "Registration type to inspect.")
	rootCmd.AddCommand(inspectCmd)
}
