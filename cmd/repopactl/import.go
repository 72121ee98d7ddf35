package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"repopa/internal/domain/entes"
	"repopa/internal/infrastructure/legacy"
	"repopa/internal/infrastructure/storage/postgres"
)

var (
	importFile      string
	importEncoding  string
	importDelimiter string
	importDryRun    bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk load entities from a legacy CSV export",
	Long: `Bulk load entities from a legacy CSV export, keeping their folios.

The header must name at least the folio, nombre and tipo columns; objeto,
domicilio, estatus, instrumento_creacion, fecha_creacion,
publicacion_oficial and observaciones are optional. All rows are loaded in
one transaction with COPY, then the folio counter is raised to the highest
imported sequence so new registrations continue after it.

Examples:
  repopactl import --file entes.csv
  repopactl import --file entes.csv --encoding windows-1252 --delimiter ';'
  repopactl import --file entes.csv --dry-run`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "CSV file to load")
	importCmd.Flags().StringVar(&importEncoding, "encoding", legacy.EncodingUTF8,
		"file encoding: utf-8, latin1 or windows-1252")
	importCmd.Flags().StringVar(&importDelimiter, "delimiter", ",", "field separator")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "parse and validate without writing")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	comma, size := utf8.DecodeRuneInString(importDelimiter)
	if size == 0 || size != len(importDelimiter) {
		return errors.New("--delimiter must be a single character")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(importFile)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	rows, err := legacy.ReadEntes(f, legacy.Options{
		Encoding:    importEncoding,
		Comma:       comma,
		UnknownType: cfg.UnknownTypePolicy(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", importFile, err)
	}

	out := cmd.OutOrStdout()
	if importDryRun {
		fmt.Fprintf(out, "%d entities parsed, nothing written (dry run)\n", len(rows))
		return nil
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "no entities found")
		return nil
	}

	s, closeFn, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	n, seq, err := load(s.ctx, s, rows)
	if err != nil {
		return err
	}
	s.log.Infow("legacy import finished", "file", importFile, "rows", n, "sequence", seq)
	fmt.Fprintf(out, "%d entities imported, folio counter at %d\n", n, seq)
	return nil
}

func load(ctx context.Context, s *session, rows []*entes.Ente) (int64, int64, error) {
	batch := postgres.NewBatchInserter(s.app.Tx)

	var n int64
	err := s.app.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		n, err = postgres.CopyStructs(ctx, batch, "entes", rows)
		return err
	})
	if err != nil {
		return 0, 0, fmt.Errorf("copy entities: %w", err)
	}

	seq, err := s.app.Entes.ReconcileSequence(ctx)
	if err != nil {
		return n, 0, fmt.Errorf("reconcile folio counter: %w", err)
	}
	return n, seq, nil
}
