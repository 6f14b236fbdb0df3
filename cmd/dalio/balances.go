package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dalio-ai/dalio/backend/internal/service/balance"
	"github.com/dalio-ai/dalio/backend/internal/service/storage"
)

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Manage the report library bucket",
}

var balancesUploadCmd = &cobra.Command{
	Use:   "upload <dir>",
	Short: "Upload every PDF in a directory, keyed by the name heuristics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary(cmd)
		if err != nil {
			return err
		}

		results, err := lib.UploadDir(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return fmt.Errorf("no PDF files found in %s", args[0])
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
				fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("✗ %s: %v", r.File, r.Err)))
				continue
			}
			fmt.Fprintf(out, "✓ %s\n  %s\n", r.File, statusStyle.Render(fmt.Sprintf("%s | %d | %s | %.2f MB → %s",
				r.Info.Company(), r.Info.Year, r.Info.Period, float64(r.Size)/1024/1024, r.Key)))
		}
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d enviados, %d com erro, %d no total", len(results)-failed, failed, len(results))))
		if failed == len(results) {
			return fmt.Errorf("no file was uploaded")
		}
		return nil
	},
}

var balancesListCmd = &cobra.Command{
	Use:   "list [company] [year]",
	Short: "List companies, a company's years, or a year's periods",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var rows []string
		switch len(args) {
		case 0:
			companies, err := lib.Companies(ctx)
			if err != nil {
				return err
			}
			for _, c := range companies {
				rows = append(rows, c.Name)
			}
		case 1:
			rows, err = lib.Years(ctx, args[0])
		default:
			rows, err = lib.Periods(ctx, args[0], args[1])
		}
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, row := range rows {
			fmt.Fprintln(w, row)
		}
		return w.Flush()
	},
}

var balancesURLCmd = &cobra.Command{
	Use:   "url <company> <year> <period>",
	Short: "Print a presigned download URL",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		url, err := lib.URL(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

func openLibrary(cmd *cobra.Command) (*balance.Library, error) {
	bucket, err := storage.NewBucket(cmd.Context(), cfg.Storage)
	if err != nil {
		return nil, err
	}
	return balance.NewLibrary(bucket, nil, cfg.Document.MaxUploadBytes), nil
}

func init() {
	balancesCmd.AddCommand(balancesUploadCmd, balancesListCmd, balancesURLCmd)
	rootCmd.AddCommand(balancesCmd)
}
