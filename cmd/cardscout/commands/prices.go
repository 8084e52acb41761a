package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/codyseavey/cardscout/internal/models"
	"github.com/codyseavey/cardscout/internal/services"
)

func newPricesCmd(withAnalysis withAnalysisFunc) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "prices <card-id>",
		Short: "Show listings and price statistics for one card.",
		Args:  cobra.ExactArgs(1),
		RunE: withAnalysis(func(cmd *cobra.Command, args []string, analysis *services.AnalysisService) error {
			out := cmd.OutOrStdout()
			report, err := analysis.Prices(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if len(report.Listings) > 0 {
				t := newTable(out)
				t.SetTitle(fmt.Sprintf("Listings for %s (%s)", report.CardID, report.Source))
				t.AppendHeader(table.Row{"Price", "Condition", "Grade", "Seller", "Listed", "On sale"})
				for _, l := range report.Listings {
					price := "-"
					if l.Price != nil {
						price = formatPrice(*l.Price)
					}
					t.AppendRow(table.Row{price, l.Condition, l.Grade, l.Seller, l.CreatedAt, l.IsOnSale})
				}
				t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignRight}})
				t.Render()
			}

			if report.Stats == nil {
				fmt.Fprintf(out, "No prices found for card %s.\n", report.CardID)
			} else {
				renderStats(out, report.Stats, report.Analysis)
			}

			if raw {
				return writeJSON(cmd, report.Raw)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the upstream response")
	return cmd
}

func newManualCmd() *cobra.Command {
	return &cobra.Command{
		Use:   `manual "<prices>"`,
		Short: `Summarize prices typed by hand, e.g. "1000, 1200, 950".`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			result, err := services.NewAnalysisService(nil, nil).ManualPrices(strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(result.Invalid) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "Ignored invalid entries: %v\n", result.Invalid)
			}
			if result.Stats == nil {
				return fmt.Errorf("no valid prices entered")
			}
			renderStats(out, result.Stats, result.Analysis)
			return nil
		},
	}
}

func renderStats(out io.Writer, stats *models.PriceStats, analysis *models.PriceAnalysis) {
	t := newTable(out)
	t.SetTitle("Price summary")
	t.AppendHeader(table.Row{"Lowest", "Highest", "Average", "Median", "Listings", "On sale"})
	t.AppendRow(table.Row{
		formatPrice(stats.Lowest),
		formatPrice(stats.Highest),
		formatPrice(stats.Average),
		formatPrice(stats.Median),
		stats.TotalListings,
		stats.OnSaleCount,
	})
	if analysis != nil {
		t.AppendFooter(table.Row{"Range", formatPrice(analysis.Range), "Volatility", fmt.Sprintf("%.1f%%", analysis.VolatilityPct)})
	}
	t.Render()
}

func formatPrice(p float64) string {
	if p == float64(int64(p)) {
		return fmt.Sprintf("%d", int64(p))
	}
	return fmt.Sprintf("%.2f", p)
}
