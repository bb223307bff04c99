package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xtxerr/ktimport/internal/importer"
	"github.com/xtxerr/ktimport/internal/kind"
	"github.com/xtxerr/ktimport/internal/logging"
	storeconfig "github.com/xtxerr/ktimport/internal/storage/config"
)

func newImportCommand(stdout io.Writer) *cobra.Command {
	var (
		directives  string
		reference   string
		noDST       bool
		location    string
		storeConfig string
		owner       string
	)

	cmd := &cobra.Command{
		Use:   "import <input> <output> <tz-seconds-west>",
		Short: "import a KeepTrack export",
		Long: `
Imports the KeepTrack export <input> into the store at <output>.

<tz-seconds-west> is the standard-time offset of the recorded data in seconds
west of UTC, e.g. 28800 for Pacific Time. Daylight time is applied
automatically unless --nodst is given. Inputs ending in .gz or .zst are
decompressed on the fly.

Directive file:
  set default_category <name>
  set default_numeric_kind <numeric kind>
  set default_column_kind <column kind>
  watch "<metric name>" <category> [<numeric kind>] [<column kind>]

Numeric kinds: ` + strings.Join(kind.NumericNames(), ", ") + `
Column kinds:  ` + strings.Join(kind.ColumnNames(), ", ") + `
`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("timezone %q: %w", args[2], err)
			}

			loc := time.Local
			if location != "" {
				loc, err = time.LoadLocation(location)
				if err != nil {
					return fmt.Errorf("location: %w", err)
				}
			}

			cfg, err := storeconfig.LoadOrDefault(storeConfig)
			if err != nil {
				return err
			}

			im, err := importer.New(importer.Options{
				Output:        args[1],
				Reference:     reference,
				Directives:    directives,
				OffsetSeconds: offset,
				ApplyDST:      !noDST,
				Location:      loc,
				Owner:         owner,
				Store:         cfg,
				Logger:        logging.Component("importer"),
			})
			if err != nil {
				return err
			}

			sum, runErr := im.Import(cmd.Context(), args[0])
			if err := im.Close(); err != nil && runErr == nil {
				runErr = err
			}
			if sum != nil {
				printSummary(stdout, sum)
			}
			return runErr
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&directives, "config", "c", "", "directive file")
	flags.StringVarP(&reference, "previous", "p", "", "store to take cutoffs from (incremental import)")
	flags.BoolVar(&noDST, "nodst", false, "do not apply daylight time to the offset")
	flags.StringVar(&location, "location", "", "IANA zone used to decide daylight time (default: local)")
	flags.StringVar(&storeConfig, "store-config", "", "YAML store settings")
	flags.StringVar(&owner, "owner", "", "store owner (default \"self\")")
	return cmd
}

func printSummary(w io.Writer, sum *importer.Summary) {
	fmt.Fprintf(w, "%d metrics: %d imported, %d skipped, %d rows written, %d already stored\n",
		sum.Metrics, sum.Imported, sum.Skipped, sum.Rows, sum.Dropped)
	for _, t := range sum.Tables {
		fmt.Fprintf(w, "  %-40s %6d rows  %s .. %s", t.Table, t.Rows,
			t.FirstTime().UTC().Format(time.RFC3339), t.LastTime().UTC().Format(time.RFC3339))
		if t.Count > 0 {
			fmt.Fprintf(w, "  min=%g max=%g avg=%g", t.Min, t.Max, t.Avg)
		}
		fmt.Fprintln(w)
	}
}
