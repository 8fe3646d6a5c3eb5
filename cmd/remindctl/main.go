package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "remindctl",
		Short: "CLI client for the reminder service REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8085", "Reminder service base URL")

	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage reminder templates",
	}
	templatesCmd.AddCommand(templatesListCmd(), templatesAddCmd(), templatesDeleteCmd())
	rootCmd.AddCommand(templatesCmd)

	rootCmd.AddCommand(assignCmd(), disableCmd(), refreshCmd(), statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
