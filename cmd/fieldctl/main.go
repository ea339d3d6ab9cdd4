// Command fieldctl drives a running field data server from a terminal.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	timeout   time.Duration
	client    *apiClient
)

var rootCmd = &cobra.Command{
	Use:           "fieldctl",
	Short:         "Manage field records, projects and exports",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		client = newAPIClient(serverURL, timeout)
	},
}

func init() {
	defaultURL := os.Getenv("FIELD_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:3000/api"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultURL, "API base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	rootCmd.AddCommand(projectsCmd, recordsCmd, locationCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func ok(format string, args ...interface{}) {
	fmt.Fprintln(os.Stdout, color.GreenString(format, args...))
}
