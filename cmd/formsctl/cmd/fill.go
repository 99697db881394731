package cmd

import (
	"fmt"
	"os"

	"eventreg-backend/cmd/formsctl/prompt"
	"eventreg-backend/internal/auth"
	"eventreg-backend/internal/components/telemetry"
	"eventreg-backend/internal/registration"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	fillType   string
	fillEmail  string
	fillDryRun bool
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Answer a configured form in the terminal and submit it.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		service, err := registration.New(ctx, cfg.Registration, telemetry.SlogAPI{})
		if err != nil {
			return err
		}

		inspection, err := service.Inspect(ctx, fillType)
		if err != nil {
			return err
		}
		answers, err := prompt.Build(inspection.Questions).Run(os.Stdin, os.Stderr)
		if err != nil {
			return err
		}

		req := registration.SubmitRequest{Type: inspection.Type, Responses: answers}
		var identity *auth.Identity
		if fillEmail != "" {
			identity = &auth.Identity{Email: fillEmail}
		}

		if fillDryRun {
			prepared, err := service.Prepare(ctx, req, identity)
			if err != nil {
				return err
			}
			printed, err := printStructured(prepared.Body)
			if printed || err != nil {
				return err
			}
			t := newTable()
			t.SetTitle(fmt.Sprintf("POST /forms/d/e/%s/formResponse", prepared.PublishedID))
			t.AppendHeader(table.Row{"Key", "Value"})
			for key, values := range prepared.Body {
				for _, value := range values {
					t.AppendRow(table.Row{key, value})
				}
			}
			t.SortBy([]table.SortBy{{Name: "Key", Mode: table.Asc}})
			t.Render()
			return nil
		}

		outcome, err := service.Submit(ctx, req, identity)
		if err != nil {
			return err
		}
		fmt.Printf("submitted (status %d)\n", outcome.Status)
		return nil
	},
}

func init() {
	fillCmd.Flags().StringVar(&fillType, "type", registration.DefaultType, "Registration type to fill.")
	fillCmd.Flags().StringVar(&fillEmail, "email", "", "Respondent email, sent when the form collects emails.")
	fillCmd.Flags().BoolVar(&fillDryRun, "dry-run", false, "Print the encoded submission instead of posting it.")
	rootCmd.AddCommand(fillCmd)
}
