package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"nfedit/internal/domain"
	"nfedit/internal/session"
	"nfedit/internal/xlsxexport"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "nfedit",
		Short: "NF-e cost table editor",
		Long: `nfedit loads a Brazilian NF-e XML document, applies unit cost and
commercial unit edits to its line items, and writes an altered copy.

The altered copy keeps everything the edits do not touch: element order,
unrelated fields, the original XML declaration. The signature block of
the source document does not apply to the altered copy, which is why
the output name carries the sem_assinatura suffix.`,
		Version: version,
	}

	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(inspectCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func exportCmd() *cobra.Command {
	var (
		inPath   string
		outDir   string
		costs    []string
		units    []string
		allUnits string
		yes      bool
		xlsx     bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Apply edits and write the altered copy",
		Long: `Export loads the input document, applies --cost and --unit edits
addressed by item number (the nItem attribute, matched verbatim), and
writes the altered XML next to --out.

Cost values accept Brazilian decimal notation: --cost 1=75,50 and
--cost 1=75.50 both set item 1 to 75.5.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("export overwrites nothing but still requires --yes to confirm")
			}

			raw, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			store := session.NewStore(false)
			if _, err := store.Load(raw); err != nil {
				return fmt.Errorf("parse input: %w", err)
			}

			byNumber, err := itemNumberIndex(store)
			if err != nil {
				return err
			}

			for _, spec := range costs {
				number, value, err := splitEdit(spec)
				if err != nil {
					return fmt.Errorf("--cost %q: %w", spec, err)
				}
				index, ok := byNumber[number]
				if !ok {
					return fmt.Errorf("--cost %q: no item with number %q", spec, number)
				}
				if _, err := store.EditCost(index, value); err != nil {
					return fmt.Errorf("--cost %q: %w", spec, err)
				}
			}

			for _, spec := range units {
				number, value, err := splitEdit(spec)
				if err != nil {
					return fmt.Errorf("--unit %q: %w", spec, err)
				}
				index, ok := byNumber[number]
				if !ok {
					return fmt.Errorf("--unit %q: no item with number %q", spec, number)
				}
				if _, err := store.EditUnit(index, value); err != nil {
					return fmt.Errorf("--unit %q: %w", spec, err)
				}
			}

			if allUnits != "" {
				if _, err := store.BulkApplyUnit(allUnits, domain.ScopeAll); err != nil {
					return fmt.Errorf("--all-units: %w", err)
				}
			}

			out, err := store.Export(true)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			outPath := filepath.Join(outDir, out.Filename)
			if err := os.WriteFile(outPath, out.Data, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("wrote %s (%d bytes)\n", outPath, len(out.Data))

			if xlsx {
				view, err := store.Snapshot()
				if err != nil {
					return fmt.Errorf("snapshot: %w", err)
				}
				sheet, err := xlsxexport.Write(view)
				if err != nil {
					return fmt.Errorf("spreadsheet: %w", err)
				}
				sheetPath := filepath.Join(outDir, sheet.Filename)
				if err := os.WriteFile(sheetPath, sheet.Data, 0o644); err != nil {
					return fmt.Errorf("write spreadsheet: %w", err)
				}
				fmt.Printf("wrote %s (%d bytes)\n", sheetPath, len(sheet.Data))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "input NF-e XML file (required)")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	cmd.Flags().StringArrayVar(&costs, "cost", nil, "unit cost edit as <item-number>=<value> (repeatable)")
	cmd.Flags().StringArrayVar(&units, "unit", nil, "unit edit as <item-number>=<unit> (repeatable)")
	cmd.Flags().StringVar(&allUnits, "all-units", "", "apply one unit to every item")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the export")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "also write the cost table as an xlsx workbook")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func inspectCmd() *cobra.Command {
	var inPath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the document header and cost table",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			store := session.NewStore(false)
			view, err := store.Load(raw)
			if err != nil {
				return fmt.Errorf("parse input: %w", err)
			}

			fmt.Printf("Chave de acesso: %s\n", view.Header.AccessKey)
			fmt.Printf("Emitente:        %s\n", view.Header.IssuerName)
			fmt.Printf("Destinatário:    %s\n", view.Header.RecipientName)
			if view.Header.TaxIDMasked != "" {
				fmt.Printf("CNPJ:            %s\n", view.Header.TaxIDMasked)
			}
			fmt.Printf("Emissão:         %s\n", view.Header.IssueDate)
			fmt.Println()

			for _, row := range view.Rows {
				fmt.Printf("%4s  %-12s  %-40s  %4s  %10s  %12s  %12s\n",
					row.ItemNumber,
					row.ProductCode,
					truncate(row.Description, 40),
					row.Unit,
					row.Quantity,
					row.OriginalPrice,
					row.OriginalTotal,
				)
			}
			fmt.Printf("\nTotal: %s (%d itens)\n", view.RunningTotal, len(view.Rows))

			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "input NF-e XML file (required)")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

// itemNumberIndex maps the raw nItem strings to row indexes. Matching is
// verbatim: "01" and "1" are different items.
func itemNumberIndex(store *session.Store) (map[string]int, error) {
	items, err := store.Items()
	if err != nil {
		return nil, err
	}
	byNumber := make(map[string]int, len(items))
	for i, it := range items {
		byNumber[it.ItemNumber] = i
	}
	return byNumber, nil
}

func splitEdit(spec string) (number, value string, err error) {
	number, value, ok := strings.Cut(spec, "=")
	if !ok || number == "" {
		return "", "", fmt.Errorf("expected <item-number>=<value>")
	}
	return number, value, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
