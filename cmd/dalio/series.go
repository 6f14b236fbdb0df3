package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/dalio-ai/dalio/backend/internal/service/market"
)

var seriesDir string

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Manage the bundled monthly inflation series",
}

var seriesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Download IPCA and IGP-M from the central bank and rewrite the series files",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir := seriesDir
		if dir == "" {
			dir = cfg.Market.SeriesDir
		}
		if dir == "" {
			return fmt.Errorf("set --dir or MARKET_SERIES_DIR")
		}

		store, err := market.NewSeriesStore(dir)
		if err != nil {
			return err
		}
		sgs := market.NewSGSClient(cfg.Market.SGSBaseURL, &http.Client{Timeout: cfg.Market.Timeout})
		if err := sgs.Refresh(cmd.Context(), dir, store); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render("séries atualizadas em "+dir))
		return nil
	},
}

func init() {
	seriesRefreshCmd.Flags().StringVar(&seriesDir, "dir", "", "Directory holding igpm.json and ipca.json")
	seriesCmd.AddCommand(seriesRefreshCmd)
	rootCmd.AddCommand(seriesCmd)
}
