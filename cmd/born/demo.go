package main

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/born-ml/mixprec/internal/backend/cpu"
	"github.com/born-ml/mixprec/internal/nn"
	"github.com/born-ml/mixprec/internal/optim"
	"github.com/born-ml/mixprec/internal/record"
	"github.com/born-ml/mixprec/internal/tensor"
)

type demoOptions struct {
	out       string
	precision string
	steps     int
	seed      int64
	lr        float64
}

func newDemoCmd(a *app) *cobra.Command {
	opts := demoOptions{out: "demo.born", steps: 10, seed: 1, lr: 0.05}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Train a small mixed-precision model and save its record",
		Long: `demo builds a float16 network whose first layer keeps float32 master
weights behind a full-precision adaptor, runs a few SGD steps that shrink
every weight towards zero, and saves the result.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.demo(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", opts.out, "output file (.born or .yaml)")
	cmd.Flags().StringVarP(&opts.precision, "precision", "p", "", "storage precision (default from config)")
	cmd.Flags().IntVar(&opts.steps, "steps", opts.steps, "optimizer steps")
	cmd.Flags().Int64Var(&opts.seed, "seed", opts.seed, "weight initialization seed")
	cmd.Flags().Float64Var(&opts.lr, "lr", opts.lr, "learning rate")
	return cmd
}

func (a *app) demo(w io.Writer, opts demoOptions) error {
	settings, err := a.precision(opts.precision)
	if err != nil {
		return err
	}

	host := cpu.NewHalf()
	rng := rand.New(rand.NewSource(opts.seed))

	master, err := nn.NewLinear(8, 4, cpu.New(), nn.WithRand(rng))
	if err != nil {
		return err
	}
	adapted, err := nn.Adapt[*cpu.Half, *cpu.CPUBackend](host, master)
	if err != nil {
		return err
	}
	head, err := nn.NewLinear(4, 1, host, nn.WithRand(rng))
	if err != nil {
		return err
	}

	var model nn.Module[*cpu.Half] = nn.NewSequential[*cpu.Half](adapted, head)
	sgd := optim.NewSGD[*cpu.Half](optim.SGDConfig{LR: opts.lr, Momentum: 0.9})

	for step := range opts.steps {
		grads, err := optim.Compute(model, squaredNormGrad)
		if err != nil {
			return err
		}
		if model, err = sgd.Step(model, grads); err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		a.logger.Debug("step", zap.Int("step", step), zap.Float64("loss", squaredNorm(model)))
	}

	rec := a.recorder(formatOf(opts.out), record.WithModelType("Sequential"))
	if err := nn.Save(opts.out, model, rec, settings); err != nil {
		return err
	}

	fmt.Fprintf(w, "trained %d steps, sum of squared weights %.6f\n", opts.steps, squaredNorm(model))
	fmt.Fprintf(w, "saved %s (%s precision)\n", opts.out, settings)
	return nil
}

// squaredNormGrad is the gradient of the loss sum(w²).
func squaredNormGrad(_ nn.ParamID, w []float64) []float64 {
	g := make([]float64, len(w))
	for i, v := range w {
		g[i] = 2 * v
	}
	return g
}

func squaredNorm(m nn.Module[*cpu.Half]) float64 {
	var sum float64
	_ = m.Visit(nn.VisitorFunc[*cpu.Half](func(_ nn.ParamID, t *tensor.Tensor[tensor.FloatKind, *cpu.Half]) error {
		for _, v := range t.Float64s() {
			sum += v * v
		}
		return nil
	}))
	return sum
}
