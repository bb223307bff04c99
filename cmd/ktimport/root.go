package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/xtxerr/ktimport/internal/logging"
)

// logFlags are shared by all subcommands.
type logFlags struct {
	level  string
	format string
}

func (f *logFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.level, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&f.format, "log-format", "auto", "log format (auto, text, json)")
}

// init configures the global logger to write to stderr.
func (f *logFlags) init(stderr io.Writer) error {
	level, err := logging.ParseLevel(f.level)
	if err != nil {
		return err
	}

	file, ok := stderr.(*os.File)
	if !ok {
		file = os.Stderr
	}
	jsonFormat, err := logging.UseJSON(f.format, file)
	if err != nil {
		return err
	}
	if !ok && f.format == "auto" {
		jsonFormat = false
	}

	logging.InitWriter(stderr, level, jsonFormat)
	return nil
}

// NewRootCommand builds the ktimport command tree.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var logs logFlags

	rc := &cobra.Command{
		Use:   "ktimport",
		Short: "ktimport imports KeepTrack exports into a time-series store.",
		Long: `ktimport reads a KeepTrack XML export and appends every metric to a table
/self/<category>/<table> of a Parquet-backed store. With a reference store,
only entries newer than what the store already holds are imported.
`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logs.init(stderr); err != nil {
				return err
			}
			logging.Debug("ktimport starting", "version", Version, "command", cmd.Name())
			return nil
		},
	}
	rc.SetIn(stdin)
	rc.SetOut(stdout)
	rc.SetErr(stderr)

	logs.register(rc.PersistentFlags())

	rc.AddCommand(newImportCommand(stdout))
	rc.AddCommand(newInspectCommand(stdout))
	return rc
}
