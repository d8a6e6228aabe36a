package filelock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/AndreyAkinshin/kitci/internal/errors"
)

func TestRunLock_SecondAcquireFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	first := NewRunLock(dir)
	require.NoError(t, first.Acquire())
	defer first.Release()

	second := NewRunLock(dir)
	err := second.Acquire()
	require.Error(t, err)
	assert.Equal(t, kerrors.ExitEnvironmentError, kerrors.GetExitCode(err))

	require.NoError(t, first.Release())
	require.NoError(t, second.Acquire())
	require.NoError(t, second.Release())
}

func TestRunLock_Path(t *testing.T) {
	l := NewRunLock("out")
	assert.Equal(t, filepath.Join("out", LockFileName), l.Path())
}

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "TestsResults.xml")

	require.NoError(t, AtomicWrite(path, []byte("first")))
	require.NoError(t, AtomicWrite(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestCopyAtomic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.xml")
	require.NoError(t, os.WriteFile(src, []byte("<results/>"), 0644))

	dst := filepath.Join(dir, "dst.xml")
	require.NoError(t, CopyAtomic(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "<results/>", string(data))

	assert.Error(t, CopyAtomic(filepath.Join(dir, "missing"), dst))
}
