package main

import (
	"fmt"
	"log"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dalio-ai/dalio/backend/internal/config"
)

var (
	verbose bool
	cfg     *config.Config
)

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	statusStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
)

var rootCmd = &cobra.Command{
	Use:   "dalio",
	Short: "Terminal client and tooling for the Dalio AI backend",
	Long: `dalio talks to a running Dalio AI API and manages its data.

  dalio chat                         # chat over SSE
  dalio chat --ws --export out.yaml  # chat over WebSocket, export transcript
  dalio balances upload ./balances   # bulk upload statement PDFs
  dalio balances list                # browse the report library
  dalio series refresh               # download IPCA and IGP-M from the central bank
  dalio leads list                   # show captured e-mail leads`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && verbose {
			log.Printf("[cli] no .env file loaded: %v", err)
		}
		if !verbose {
			log.SetOutput(discard{})
		}

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
