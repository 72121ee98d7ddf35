package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"repopa/internal/core/folio"
)

var (
	previewName   string
	previewType   string
	previewYear   int
	previewSeq    int64
	previewReject bool
)

var folioCmd = &cobra.Command{
	Use:   "folio",
	Short: "Folio utilities",
}

var folioPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the folio a registration would receive",
	Long: `Show the folio a registration would receive, without a database.

The sequence number defaults to 1; pass --seq to render another one.

Examples:
  repopactl folio preview --name "Instituto de Vivienda" --type Organismo
  repopactl folio preview --name "Fideicomiso del Agua" --type FI --year 2024 --seq 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		policy := folio.UnknownTypeDefault
		if previewReject {
			policy = folio.UnknownTypeReject
		}
		now := time.Now()
		if previewYear > 0 {
			now = time.Date(previewYear, time.January, 1, 0, 0, 0, 0, time.UTC)
		}

		c, err := folio.Allocator{Policy: policy}.Prepare(previewName, previewType, now)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), c.Folio(previewSeq))
		return nil
	},
}

func init() {
	folioPreviewCmd.Flags().StringVar(&previewName, "name", "", "entity name")
	folioPreviewCmd.Flags().StringVar(&previewType, "type", "", "classification (OPD, Fideicomiso, EPEM or an alias)")
	folioPreviewCmd.Flags().IntVar(&previewYear, "year", 0, "registration year (default: current)")
	folioPreviewCmd.Flags().Int64Var(&previewSeq, "seq", 1, "sequence number")
	folioPreviewCmd.Flags().BoolVar(&previewReject, "reject-unknown", false, "fail on unknown classifications instead of using OPD")
	_ = folioPreviewCmd.MarkFlagRequired("name")
	_ = folioPreviewCmd.MarkFlagRequired("type")
	folioCmd.AddCommand(folioPreviewCmd)
	rootCmd.AddCommand(folioCmd)
}
