package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/born-ml/mixprec/internal/record"
)

type convertOptions struct {
	precision string
	format    string
	outDir    string
	jobs      int
}

func newConvertCmd(a *app) *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert FILE...",
		Short: "Rewrite records under another precision setting or format",
		Long: `convert loads each record and saves it again with the storage types of
--precision. Values that do not fit the target type fail the conversion
instead of being saved as infinities.

The safetensors format is export only; it cannot be read back by inspect
or convert.

Outputs are named <name>.<precision>.<ext> and written next to the input
unless --out is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.convert(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.precision, "precision", "p", "", "target precision: half, full or double (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: born, yaml or safetensors (default from config)")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "output directory")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 4, "number of files converted concurrently")
	return cmd
}

func (a *app) convert(ctx context.Context, inputs []string, opts convertOptions) error {
	settings, err := a.precision(opts.precision)
	if err != nil {
		return err
	}
	format := opts.format
	if format == "" {
		format = a.cfg.Record.Format
	}
	if format != "born" && format != "yaml" && format != "safetensors" {
		return fmt.Errorf("invalid output format: %s", format)
	}
	outputs, err := outputPaths(inputs, opts.outDir, settings.Name, format)
	if err != nil {
		return err
	}
	if opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.jobs, 1))

	for i, in := range inputs {
		out := outputs[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			item, err := a.recorder(formatOf(in)).Load(in)
			if err != nil {
				return err
			}
			if format == "safetensors" {
				err = record.ExportSafeTensors(out, item, settings)
			} else {
				err = a.recorder(format).Save(out, item, settings)
			}
			if err != nil {
				return fmt.Errorf("convert %s: %w", in, err)
			}

			a.logger.Info("converted",
				zap.String("input", in),
				zap.String("output", out),
				zap.Stringer("precision", settings),
				zap.Int("params", item.NumParams()))
			return nil
		})
	}
	return g.Wait()
}

// outputPaths names the output of every input. Two inputs writing the same
// file, or an output overwriting an input, are rejected before any work starts.
func outputPaths(inputs []string, outDir, precision, format string) ([]string, error) {
	isInput := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		isInput[filepath.Clean(in)] = true
	}

	outputs := make([]string, len(inputs))
	owner := make(map[string]string, len(inputs))
	for i, in := range inputs {
		out := outputPath(in, outDir, precision, format)
		key := filepath.Clean(out)
		if isInput[key] {
			return nil, fmt.Errorf("converting %s would overwrite input %s", in, out)
		}
		if prev, dup := owner[key]; dup {
			return nil, fmt.Errorf("%s and %s would both be written to %s", prev, in, out)
		}
		owner[key] = in
		outputs[i] = out
	}
	return outputs, nil
}

func outputPath(in, outDir, precision, format string) string {
	ext := ".born"
	switch format {
	case "yaml":
		ext = ".yaml"
	case "safetensors":
		ext = ".safetensors"
	}

	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(in)
	}
	return filepath.Join(dir, base+"."+precision+ext)
}
