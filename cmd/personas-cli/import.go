package main

import (
	"fmt"
	"os"

	"github.com/aanand-mishra/personas-api/internal/importer"
	"github.com/aanand-mishra/personas-api/internal/reconcile"
	"github.com/spf13/cobra"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import personas from a CSV file",
	Long: `Import reads a CSV whose header names the persona columns
(nombre_persona, apellido_persona, dni_persona, correo_persona,
edad_persona, telefono_persona) and inserts every row in one transaction,
or none when any row is rejected.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "CSV file to import (required)")
	importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := os.Open(importFile)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	svc := importer.New(store, reconcile.New(reconcile.Options{
		PreserveEmptyStoreGap: cfg.Import.PreserveEmptyStoreGap,
	}), importer.Options{MaxConcurrent: 1, MaxWait: cfg.Import.MaxWait})

	out, err := svc.Import(ctx, f)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if out.Rejected {
		fmt.Fprintf(w, "import rejected: %d of %d rows have errors\n", len(out.Errors), out.Rows)
		for _, e := range out.Errors {
			fmt.Fprintf(w, "  fila %d\t%q\t%s\n", e.Index, e.Correo, e.Error)
		}
		return fmt.Errorf("%s: nothing imported", importFile)
	}

	fmt.Fprintf(w, "imported %d personas from %s\n", out.Inserted, importFile)
	return nil
}
