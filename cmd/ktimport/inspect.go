package main

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/xtxerr/ktimport/config"
	"github.com/xtxerr/ktimport/internal/errors"
	"github.com/xtxerr/ktimport/internal/storage"
	storeconfig "github.com/xtxerr/ktimport/internal/storage/config"
)

func newInspectCommand(stdout io.Writer) *cobra.Command {
	var (
		owner       string
		storeConfig string
		from, to    string
	)

	cmd := &cobra.Command{
		Use:   "inspect <store> <category> <table>",
		Short: "describe a stored table",
		Long: `
Prints the columns, units, row count and time range of a table, checks the
time index against a full scan of its parts and summarizes the values.

--from and --to (RFC 3339, inclusive) restrict the value summary to a time
window.
`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := parseWindow(from, to)
			if err != nil {
				return err
			}

			cfg, err := storeconfig.LoadOrDefault(storeConfig)
			if err != nil {
				return err
			}

			svc, err := storage.Open(args[0], cfg, true)
			if err != nil {
				return err
			}
			defer svc.Close()

			report, err := svc.Inspect(cmd.Context(), owner, args[1], args[2], window)
			if err != nil {
				return err
			}
			if _, err := report.WriteTo(stdout); err != nil {
				return err
			}
			if !report.Consistent() {
				return fmt.Errorf("%s: %w", report.Table, errors.ErrCorruptIndex)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", config.DefaultOwner, "store owner")
	cmd.Flags().StringVar(&storeConfig, "store-config", "", "YAML store settings")
	cmd.Flags().StringVar(&from, "from", "", "start of the summary window (RFC 3339)")
	cmd.Flags().StringVar(&to, "to", "", "end of the summary window (RFC 3339)")
	return cmd
}

func parseWindow(from, to string) (storage.Window, error) {
	if from == "" && to == "" {
		return storage.Window{}, nil
	}

	w := storage.Window{From: math.MinInt64, To: math.MaxInt64}
	if from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return w, fmt.Errorf("--from: %w", err)
		}
		w.From = t.UnixNano()
	}
	if to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return w, fmt.Errorf("--to: %w", err)
		}
		w.To = t.UnixNano()
	}
	if w.From > w.To {
		return w, fmt.Errorf("--from %s is after --to %s", from, to)
	}
	return w, nil
}
