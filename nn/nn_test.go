// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/mixprec/backend/cpu"
	"github.com/born-ml/mixprec/nn"
	"github.com/born-ml/mixprec/optim"
	"github.com/born-ml/mixprec/record"
	"github.com/born-ml/mixprec/tensor"
)

func TestPublicMixedPrecisionWorkflow(t *testing.T) {
	host := cpu.NewHalf()

	master, err := nn.NewLinear(4, 3, cpu.New())
	require.NoError(t, err)
	layer, err := nn.Adapt[*cpu.Half, *cpu.Backend](host, master)
	require.NoError(t, err)
	head, err := nn.NewLinear(3, 1, host)
	require.NoError(t, err)

	var model nn.Module[*cpu.Half] = nn.NewSequential[*cpu.Half](layer, head)

	grads, err := optim.Compute(model, func(_ nn.ParamID, w []float64) []float64 {
		return w
	})
	require.NoError(t, err)
	model, err = optim.NewSGD[*cpu.Half](optim.SGDConfig{LR: 0.5}).Step(model, grads)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.born")
	require.NoError(t, nn.Save(path, model, record.NewFileRecorder(), record.HalfPrecision))

	loaded, err := nn.Load(path, model, record.NewFileRecorder(), tensor.DefaultCPU)
	require.NoError(t, err)
	assert.Equal(t, []tensor.Device{tensor.DefaultCPU}, nn.CollectDevices(loaded))

	seq := loaded.(*nn.Sequential[*cpu.Half])
	inner := seq.Modules()[0].(*nn.FullPrecisionAdaptor[*cpu.Half, *cpu.Backend]).Inner().(*nn.Linear[*cpu.Backend])
	assert.Equal(t, master.Weight().ID(), inner.Weight().ID())
	assert.Equal(t, tensor.Float32, inner.Weight().Tensor().DType())
}
