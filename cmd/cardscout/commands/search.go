package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/codyseavey/cardscout/internal/models"
	"github.com/codyseavey/cardscout/internal/services"
)

func newSearchCmd(withAnalysis withAnalysisFunc) *cobra.Command {
	var (
		query   models.SearchQuery
		page    int
		perPage int
		sortBy  string
		debug   bool
		raw     bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the marketplace by character, set and card number.",
		Args:  cobra.NoArgs,
		RunE: withAnalysis(func(cmd *cobra.Command, _ []string, analysis *services.AnalysisService) error {
			out := cmd.OutOrStdout()
			outcome, err := analysis.Search(cmd.Context(), query, services.SearchOptions{
				Page: models.Page{Number: page, PerPage: perPage},
				Sort: sortBy,
			})
			if err != nil {
				return err
			}

			if debug && outcome.Probe != nil {
				renderAttempts(cmd, outcome.Probe)
			}
			if outcome.Probe != nil && !outcome.Probe.Success {
				return fmt.Errorf("no cards found for %q after %d attempts", outcome.Keyword, outcome.Probe.TotalAttempts)
			}

			t := newTable(out)
			t.SetTitle(fmt.Sprintf("%s: %q", outcome.Source, outcome.Keyword))
			t.AppendHeader(table.Row{"#", "ID", "Name", "Set", "Number", "Rarity"})
			for i, card := range outcome.Cards {
				t.AppendRow(table.Row{i + 1, card.ID, card.Name, card.SetName, card.Number, card.Rarity})
			}
			t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d cards", len(outcome.Cards))})
			t.Render()

			if raw {
				return writeJSON(cmd, outcome.Raw)
			}
			return nil
		}),
	}

	flags := cmd.Flags()
	flags.StringVar(&query.CharacterName, "character", "", "character name, e.g. Pikachu")
	flags.StringVar(&query.SetName, "set", "", "set name, e.g. 151")
	flags.StringVar(&query.CardNumber, "number", "", "card number, e.g. 025/165")
	flags.IntVar(&page, "page", 1, "result page")
	flags.IntVar(&perPage, "per-page", models.DefaultPerPage, fmt.Sprintf("results per page (%d-%d)", models.MinPerPage, models.MaxPerPage))
	flags.StringVar(&sortBy, "sort", services.SortUpstream, `"relevance" ranks by name similarity`)
	flags.BoolVar(&debug, "debug", false, "show every endpoint attempt")
	flags.BoolVar(&raw, "raw", false, "print the upstream response")
	return cmd
}

func renderAttempts(cmd *cobra.Command, probe *models.ProbeResult) {
	t := newTable(cmd.ErrOrStderr())
	t.SetTitle("Endpoint attempts")
	t.AppendHeader(table.Row{"#", "URL", "Status", "Code", "Detail"})
	for _, e := range probe.Errors {
		detail := e.Error
		if len(e.ResponseKeys) > 0 {
			detail = fmt.Sprintf("keys: %v", e.ResponseKeys)
		}
		t.AppendRow(table.Row{e.Attempt, e.URL, e.Status, e.StatusCode, detail})
	}
	if probe.Success {
		t.AppendRow(table.Row{probe.AttemptNumber, probe.Endpoint, "ok", "", fmt.Sprintf("%d items", probe.ItemsCount)})
	}
	t.Render()
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
