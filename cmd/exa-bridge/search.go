package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/young1lin/exa-bridge/internal/exa"
	"github.com/young1lin/exa-bridge/internal/export"
	"github.com/young1lin/exa-bridge/internal/models"
	"github.com/young1lin/exa-bridge/internal/search"
	"github.com/young1lin/exa-bridge/pkg/logger"
)

var searchFlags struct {
	query        string
	output       string
	limit        int
	noAutoprompt bool
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one search and write a text report and workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, cancel := signalContext()
		defer cancel()

		q := models.DefaultSearchQuery(searchFlags.query)
		q.NumResults = searchFlags.limit
		q.UseAutoprompt = !searchFlags.noAutoprompt

		svc := search.NewService(exa.NewClient(&cfg.Provider))
		resp, err := svc.Search(ctx, q)
		if err != nil {
			return err
		}

		report := search.FormatResults(resp.Query, resp.Results)
		fmt.Print(report)

		if err := export.WriteText(searchFlags.output, report); err != nil {
			return err
		}
		workbook := export.SiblingPath(searchFlags.output, ".xlsx")
		if err := export.WriteWorkbookFile(workbook, search.ResultsTable(resp.Results), export.SheetName("Search "+resp.Query)); err != nil {
			return err
		}

		fmt.Printf("\nResults saved to %s and %s\n", searchFlags.output, workbook)
		return nil
	},
}

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&searchFlags.query, "query", "q", "Top AI research labs focusing on large language models", "search query")
	f.StringVarP(&searchFlags.output, "output", "o", "results/search_results.txt", "text report path")
	f.IntVarP(&searchFlags.limit, "limit", "n", 3, "number of results")
	f.BoolVar(&searchFlags.noAutoprompt, "no-autoprompt", false, "send the query as written")
}
