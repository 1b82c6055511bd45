package lattice

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"abstractor/internal/fca"
	"abstractor/internal/model"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) *fca.Context {
	t.Helper()
	m := model.NewClassModel()
	m.AddClass(&model.Class{
		Name:     "Cart",
		Features: []model.Feature{model.ParseFeature("+total: double")},
	})

	fctx, err := fca.BuildContext(m)
	require.NoError(t, err)
	return fctx
}

func TestCompute_MissingToolIsMarked(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(filepath.Join(dir, "no-such-tool.jar"), time.Second)
	r.JavaPath = filepath.Join(dir, "no-such-java")

	_, err := r.Compute(context.Background(), testContext(t), dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLatticeComputation))
}

func TestCompute_ExportsContextBeforeRunning(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner("tool.jar", time.Second)
	r.JavaPath = filepath.Join(dir, "no-such-java")

	_, err := r.Compute(context.Background(), testContext(t), dir)
	require.Error(t, err)

	data, readErr := os.ReadFile(filepath.Join(dir, "context.csv"))
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "Cart")
}

func TestNewRunner_DefaultTimeout(t *testing.T) {
	r := NewRunner("tool.jar", 0)
	assert.Equal(t, defaultTimeout, r.Timeout)
}
