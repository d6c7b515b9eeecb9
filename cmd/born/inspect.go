package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/born-ml/mixprec/internal/record"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the header and parameter table of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.inspect(cmd.OutOrStdout(), args[0])
		},
	}
}

func (a *app) inspect(w io.Writer, path string) error {
	var (
		item *record.Item
		info record.Info
		err  error
	)
	switch rec := a.recorder(formatOf(path)).(type) {
	case *record.FileRecorder:
		item, info, err = rec.Inspect(path)
	default:
		item, err = rec.Load(path)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "file:      %s\n", path)
	if info.Version != 0 {
		fmt.Fprintf(w, "format:    v%d\n", info.Version)
	}
	if info.Precision != "" {
		fmt.Fprintf(w, "precision: %s\n", info.Precision)
	}
	if info.ModelType != "" {
		fmt.Fprintf(w, "model:     %s\n", info.ModelType)
	}
	if !info.CreatedAt.IsZero() {
		fmt.Fprintf(w, "created:   %s\n", info.CreatedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "params:    %d\n\n", item.NumParams())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tID\tKIND\tDTYPE\tSHAPE")
	err = item.Walk(func(p string, param *record.ParamItem) error {
		if p == "" {
			p = "."
		}
		_, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p, param.ID, param.Kind, param.DType, shapeString(param.Shape))
		return err
	})
	if err != nil {
		return err
	}
	return tw.Flush()
}

func shapeString(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = fmt.Sprint(d)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
