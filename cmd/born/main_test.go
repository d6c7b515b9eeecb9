package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/born-ml/mixprec/internal/record"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&errOut)
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "born "+version+"\n", out)
}

func TestDemoInspectConvert(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.born")

	out, err := run(t, "demo", "--out", model, "--precision", "full", "--steps", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "trained 3 steps")

	out, err = run(t, "inspect", model)
	require.NoError(t, err)
	assert.Contains(t, out, "precision: full")
	assert.Contains(t, out, "model:     Sequential")
	assert.Contains(t, out, "params:    4")
	assert.Contains(t, out, "0.weight")
	assert.Contains(t, out, "1.bias")
	assert.Contains(t, out, "float32")

	_, err = run(t, "convert", "--precision", "half", "--format", "yaml", "--out", dir, model)
	require.NoError(t, err)

	converted := filepath.Join(dir, "model.half.yaml")
	out, err = run(t, "inspect", converted)
	require.NoError(t, err)
	assert.Contains(t, out, "float16")
	assert.NotContains(t, out, "float32")

	// Parameter identities survive the conversion.
	orig, err := record.NewFileRecorder().Load(model)
	require.NoError(t, err)
	conv, err := record.NewYAMLRecorder().Load(converted)
	require.NoError(t, err)
	origParams, order := orig.Flatten()
	convParams, _ := conv.Flatten()
	for _, p := range order {
		assert.Equal(t, origParams[p].ID, convParams[p].ID, p)
	}
}

func TestConvertMany(t *testing.T) {
	dir := t.TempDir()
	var inputs []string
	for _, name := range []string{"a", "b", "c"} {
		path := filepath.Join(dir, name+".born")
		_, err := run(t, "demo", "--out", path, "--steps", "1")
		require.NoError(t, err)
		inputs = append(inputs, path)
	}

	out := filepath.Join(dir, "out")
	_, err := run(t, append([]string{"convert", "-p", "double", "-j", "2", "-o", out}, inputs...)...)
	require.NoError(t, err)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"a.double.born", "b.double.born", "c.double.born"}, names)
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "convert", "-p", "quad", filepath.Join(dir, "x.born"))
	assert.ErrorContains(t, err, "unknown precision")

	_, err = run(t, "convert", filepath.Join(dir, "missing.born"))
	assert.Error(t, err)

	_, err = run(t, "convert")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "born.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("record:\n  precision: double\n"), 0o600))

	model := filepath.Join(dir, "m.born")
	_, err := run(t, "--config", cfg, "demo", "--out", model, "--steps", "1")
	require.NoError(t, err)

	out, err := run(t, "inspect", model)
	require.NoError(t, err)
	assert.Contains(t, out, "precision: double")
	assert.True(t, strings.Contains(out, "float64"))
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("m", "x.half.born"), outputPath(filepath.Join("m", "x.born"), "", "half", "born"))
	assert.Equal(t, filepath.Join("o", "x.full.yaml"), outputPath("x.yml", "o", "full", "yaml"))
	assert.Equal(t, "x.half.safetensors", outputPath("x.born", "", "half", "safetensors"))
}

func TestConvertRejectsCollidingOutputs(t *testing.T) {
	dir := t.TempDir()
	var inputs []string
	for _, sub := range []string{"a", "b"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
		path := filepath.Join(dir, sub, "model.born")
		_, err := run(t, "demo", "--out", path, "--steps", "1")
		require.NoError(t, err)
		inputs = append(inputs, path)
	}

	out := filepath.Join(dir, "out")
	_, err := run(t, append([]string{"convert", "-p", "half", "-o", out}, inputs...)...)
	require.ErrorContains(t, err, "would both be written to")
	_, statErr := os.Stat(filepath.Join(out, "model.half.born"))
	assert.True(t, os.IsNotExist(statErr))

	// Without --out each file is written next to its input.
	_, err = run(t, append([]string{"convert", "-p", "half"}, inputs...)...)
	require.NoError(t, err)
	for _, sub := range []string{"a", "b"} {
		assert.FileExists(t, filepath.Join(dir, sub, "model.half.born"))
	}
}

func TestOutputPathsRejectsOverwritingInput(t *testing.T) {
	_, err := outputPaths([]string{"m.born", "m.half.born"}, "", "half", "born")
	assert.ErrorContains(t, err, "would overwrite input")

	got, err := outputPaths([]string{filepath.Join("a", "m.born"), filepath.Join("b", "m.born")}, "", "full", "yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("a", "m.full.yaml"), filepath.Join("b", "m.full.yaml")}, got)
}

func TestConvertToSafeTensors(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "m.born")
	_, err := run(t, "demo", "--out", model, "--steps", "1")
	require.NoError(t, err)

	_, err = run(t, "convert", "-f", "safetensors", "-p", "half", model)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "m.half.safetensors"))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
