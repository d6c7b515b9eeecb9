// Package main provides the born command line tool for mixed-precision records.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/born-ml/mixprec/internal/config"
	"github.com/born-ml/mixprec/internal/logging"
	"github.com/born-ml/mixprec/internal/record"
)

const version = "v0.6.0"

// app is the state shared by all subcommands.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *logging.Logger
	stderr io.Writer
}

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	a := &app{stderr: stderr, logger: logging.Nop()}

	root := &cobra.Command{
		Use:   "born",
		Short: "Inspect, convert and produce mixed-precision model records",
		Long: `born works with records written by the Born module system.

Records store parameters under a precision setting (half, full or double)
chosen independently of the backend that produced them, so a model trained
on a float32 backend can be shipped in float16 and loaded back on either.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (YAML)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newVersionCmd(),
		newInspectCmd(a),
		newConvertCmd(a),
		newDemoCmd(a),
	)
	return root
}

func (a *app) init(*cobra.Command, []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging, a.stderr)
	if err != nil {
		return err
	}
	if a.verbose {
		logger.SetVerbose()
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "born %s\n", version)
		},
	}
}

// formatOf picks the record format from a file extension.
func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "born"
	}
}

// recorder returns the recorder for format, wired to the app's logger and
// reader settings.
func (a *app) recorder(format string, opts ...record.Option) record.Recorder {
	opts = append([]record.Option{
		record.WithLogger(a.logger.Logger),
		record.WithReaderOptions(a.cfg.ReaderOptions()),
	}, opts...)

	if format == "yaml" {
		return record.NewYAMLRecorder(opts...)
	}
	return record.NewFileRecorder(opts...)
}

// precision resolves a --precision flag, falling back to the config file.
func (a *app) precision(flag string) (record.PrecisionSettings, error) {
	if flag == "" {
		return a.cfg.Precision(), nil
	}
	return record.ParsePrecision(flag)
}
