package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hurou927/text2sql/internal/catalog"
	"github.com/hurou927/text2sql/internal/db"
	"github.com/hurou927/text2sql/internal/schema"
)

var introspectOutput string

var introspectCmd = &cobra.Command{
	Use:   "introspect",
	Short: "Write a schema document from a live PostgreSQL database",
	Long:  `Connects to the database, reads tables, columns, keys and comments from the catalog, and writes them as a schema document usable with --schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateForIntrospect(); err != nil {
			return err
		}
		ctx := cmd.Context()

		pool, err := db.NewPool(ctx, &cfg.Connection)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		doc, err := schema.Introspect(ctx, pool, cfg.Connection.Database, cfg.Schemas)
		if err != nil {
			return fmt.Errorf("introspecting schema: %w", err)
		}
		if _, err := catalog.Load(doc); err != nil {
			return fmt.Errorf("introspected schema is not usable: %w", err)
		}
		logger.Debug("introspected", zap.Int("tables", len(doc.Tables)), zap.Strings("schemas", cfg.Schemas))

		data, err := doc.Encode()
		if err != nil {
			return fmt.Errorf("encoding schema: %w", err)
		}

		if introspectOutput == "" || introspectOutput == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(introspectOutput, data, 0o644); err != nil {
			return fmt.Errorf("writing schema: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Schema written to: %s (%d tables)\n", introspectOutput, len(doc.Tables))
		return nil
	},
}

func init() {
	introspectCmd.Flags().StringVarP(&introspectOutput, "output", "o", "", "output file path (default stdout)")
	rootCmd.AddCommand(introspectCmd)
}
