package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/codyseavey/cardscout/internal/services"
)

func newRelatedCmd(withAnalysis withAnalysisFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "related <card-id>",
		Short: "List single cards related to a card.",
		Args:  cobra.ExactArgs(1),
		RunE: withAnalysis(func(cmd *cobra.Command, args []string, analysis *services.AnalysisService) error {
			cards, err := analysis.Related(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.SetTitle(fmt.Sprintf("Related to %s", args[0]))
			t.AppendHeader(table.Row{"ID", "Name", "Set", "Number"})
			for _, card := range cards {
				t.AppendRow(table.Row{card.ID, card.Name, card.SetName, card.Number})
			}
			t.Render()
			return nil
		}),
	}
}

func newDetailCmd(withAnalysis withAnalysisFunc) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "detail <card-id>",
		Short: "Show the marketplace detail of one card.",
		Args:  cobra.ExactArgs(1),
		RunE: withAnalysis(func(cmd *cobra.Command, args []string, analysis *services.AnalysisService) error {
			detail, err := analysis.Detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.SetTitle(fmt.Sprintf("%s (%s)", detail.ID, detail.Source))
			for _, row := range []table.Row{
				{"Name", detail.Name},
				{"Set", detail.SetName},
				{"Number", detail.Number},
				{"Rarity", detail.Rarity},
				{"Brand", detail.BrandName},
				{"Category", detail.CategoryName},
				{"Image", detail.ImageURL},
				{"URL", detail.URL},
			} {
				if row[1] != "" {
					t.AppendRow(row)
				}
			}
			t.Render()

			if raw {
				return writeJSON(cmd, detail.Raw)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the upstream record")
	return cmd
}
