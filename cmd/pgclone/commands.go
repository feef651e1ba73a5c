package main

import (
	"fmt"

	"github.com/ostcar/pgclone/clonelog"
	"github.com/ostcar/pgclone/environment"
	"github.com/ostcar/pgclone/migrate"
	"github.com/spf13/cobra"
)

const version = "v0.1.0"

type flags struct {
	source      string
	destination string
	schema      string
}

func newRootCmd() *cobra.Command {
	lookup := environment.ForProduction{}
	var f flags

	rootCmd := &cobra.Command{
		Use:   "pgclone",
		Short: "Copy a postgres database to another postgres database",
		Long: `pgclone recreates every table of the source database on the destination
and copies all rows with the binary COPY protocol.

Existing tables with the same name on the destination are dropped. Indexes,
constraints, sequences, views and privileges are not copied.

The connection urls are read from SOURCE_DB_URL and DEST_DB_URL. A .env file
in the working directory is loaded first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			clonelog.InitLog(lookup)
		},
	}

	rootCmd.PersistentFlags().StringVar(&f.source, "source", "", "source connection url (default $SOURCE_DB_URL)")
	rootCmd.PersistentFlags().StringVar(&f.destination, "dest", "", "destination connection url (default $DEST_DB_URL)")
	rootCmd.PersistentFlags().StringVar(&f.schema, "schema", "", "schema to copy (default $PGCLONE_SCHEMA or public)")

	newMigrator := func() (*migrate.Migrator, error) {
		return migrate.New(f.config(lookup))
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Copy the schema and all data",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := newMigrator()
				if err != nil {
					return err
				}

				_, err = m.Run(cmd.Context())
				return err
			},
		},
		&cobra.Command{
			Use:   "schema",
			Short: "Print the statements that recreate the tables on the destination",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := newMigrator()
				if err != nil {
					return err
				}

				statements, err := m.Schema(cmd.Context())
				if err != nil {
					return err
				}

				for _, stmt := range statements {
					fmt.Fprintln(cmd.OutOrStdout(), stmt.SQL())
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Check the configuration and both connections",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := newMigrator()
				if err != nil {
					return err
				}

				if err := m.Validate(cmd.Context()); err != nil {
					return err
				}

				clonelog.Info("Configuration is valid and both databases are accessible")
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "pgclone", version)
			},
		},
	)

	return rootCmd
}

// config reads the config from the environment. Flags take precedence.
func (f flags) config(lookup environment.Environmenter) migrate.Config {
	cfg := migrate.ConfigFromEnv(lookup)

	if f.source != "" {
		cfg.SourceURL = f.source
	}

	if f.destination != "" {
		cfg.DestinationURL = f.destination
	}

	if f.schema != "" {
		cfg.Schema = f.schema
	}

	return cfg
}
