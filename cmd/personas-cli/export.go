package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aanand-mishra/personas-api/internal/exporter"
	"github.com/spf13/cobra"
)

var (
	exportOut    string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every persona to a CSV or XLSX file",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (defaults to usuarios.<format>)")
	exportCmd.Flags().StringVar(&exportFormat, "format", string(exporter.FormatCSV), "csv or xlsx")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := exporter.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	out := exportOut
	if out == "" {
		out = format.FileName()
	}

	ctx := cmd.Context()
	cfg, store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}

	n, err := exporter.New(store, cfg.Export.Dir).WriteTo(ctx, f, format)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if errors.Is(err, exporter.ErrEmpty) {
		os.Remove(out)
		fmt.Fprintln(cmd.OutOrStdout(), "No se encontraron registros por exportar")
		return nil
	}
	if err != nil {
		os.Remove(out)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "exported %d personas to %s\n", n, out)
	return nil
}
