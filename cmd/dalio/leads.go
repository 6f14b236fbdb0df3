package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dalio-ai/dalio/backend/internal/service/lead"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect captured e-mail leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every captured lead, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := lead.Open(cfg.Leads.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		leads, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(leads) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), statusStyle.Render("nenhum lead capturado"))
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "E-MAIL\tUSUÁRIO\tCAPTURADO EM")
		for _, l := range leads {
			user := l.UserID
			if user == "" {
				user = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", l.Email, user, l.CreatedAt.Local().Format(time.DateTime))
		}
		return w.Flush()
	},
}

func init() {
	leadsCmd.AddCommand(leadsListCmd)
	rootCmd.AddCommand(leadsCmd)
}
