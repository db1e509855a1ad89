package extraction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRunner records every command invocation and plays back canned
// output.
type countingRunner struct {
	calls  int
	args   [][]string
	stdout []byte
	err    error
}

func (r *countingRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls++
	r.args = append(r.args, append([]string{name}, args...))
	return r.stdout, nil, r.err
}

func newTestAcquirer(runner Runner) *Acquirer {
	a := NewAcquirer(OCRConfig{})
	a.runner = runner
	return a
}

func fakeRasterize(captureDir *string, pages int) func([]byte, string, int) ([]string, error) {
	return func(_ []byte, dir string, _ int) ([]string, error) {
		*captureDir = dir
		paths := make([]string, 0, pages)
		for i := 0; i < pages; i++ {
			path := filepath.Join(dir, "page.png")
			if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
				return nil, err
			}
			paths = append(paths, path)
		}
		return paths, nil
	}
}

func TestExtractTextPrefersTextLayer(t *testing.T) {
	runner := &countingRunner{}
	a := newTestAcquirer(runner)
	a.textLayer = func([]byte) (string, error) { return "Nº DA INSTALAÇÃO 123", nil }

	text, err := a.ExtractText(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "Nº DA INSTALAÇÃO 123", text)
	assert.Zero(t, runner.calls, "OCR must not run when the text layer has content")
}

func TestExtractTextFallsBackToOCROnce(t *testing.T) {
	runner := &countingRunner{stdout: []byte("texto ocr")}
	a := newTestAcquirer(runner)
	a.textLayer = func([]byte) (string, error) { return "  \n\t ", nil }

	var tmpDir string
	a.rasterize = fakeRasterize(&tmpDir, 1)

	text, err := a.ExtractText(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "texto ocr", text)
	assert.Equal(t, 1, runner.calls)

	require.Len(t, runner.args, 1)
	assert.Equal(t, []string{"tesseract", filepath.Join(tmpDir, "page.png"), "stdout", "-l", "por", "--psm", "11"}, runner.args[0])

	_, statErr := os.Stat(tmpDir)
	assert.True(t, os.IsNotExist(statErr), "temp dir must be removed after OCR")
}

func TestExtractTextConcatenatesPages(t *testing.T) {
	runner := &countingRunner{stdout: []byte("pagina")}
	a := newTestAcquirer(runner)
	a.textLayer = func([]byte) (string, error) { return "", nil }

	var tmpDir string
	a.rasterize = fakeRasterize(&tmpDir, 3)

	text, err := a.ExtractText(context.Background(), []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "pagina\npagina\npagina", text)
	assert.Equal(t, 3, runner.calls)
}

func TestExtractTextOCRFailureRemovesTempDir(t *testing.T) {
	runner := &countingRunner{err: errors.New("exit status 1")}
	a := newTestAcquirer(runner)
	a.textLayer = func([]byte) (string, error) { return "", errors.New("broken text layer") }

	var tmpDir string
	a.rasterize = fakeRasterize(&tmpDir, 1)

	_, err := a.ExtractText(context.Background(), []byte("%PDF"))
	require.Error(t, err)

	_, statErr := os.Stat(tmpDir)
	assert.True(t, os.IsNotExist(statErr), "temp dir must be removed on failure")
}

func TestExtractTextNoTextAnywhere(t *testing.T) {
	runner := &countingRunner{stdout: []byte("   ")}
	a := newTestAcquirer(runner)
	a.textLayer = func([]byte) (string, error) { return "", nil }

	var tmpDir string
	a.rasterize = fakeRasterize(&tmpDir, 1)

	_, err := a.ExtractText(context.Background(), []byte("%PDF"))
	assert.ErrorIs(t, err, ErrNoText)
}
