// main is the entry point of the Students API application.
//
// COMMANDS:
//
//	students-api [serve]        start the HTTP server (default)
//	students-api migrate up     apply pending schema migrations
//	students-api migrate down   roll back the last migration
//	students-api migrate status print the migration state
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-api --config=config/local.yaml
//
// or (with environment variables only):
//
//	DATABASE_URL=postgres://app@localhost/students go run ./cmd/students-api
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "students-api",
		Short:         "CRUD API for student records",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the configuration YAML file (or CONFIG_PATH)")

	root.AddCommand(newServeCmd(&configPath), newMigrateCmd(&configPath))
	return root
}
