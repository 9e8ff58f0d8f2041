package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ReadMissing(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "state"))

	st, err := store.Read("conv-1")
	require.NoError(t, err)
	assert.Empty(t, st.Acknowledged)
	assert.Empty(t, st.AcknowledgedSet())
}

func TestStore_RecordUnions(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "state"))
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	_, err := store.Record("conv-1", []string{"service-layer-development"})
	require.NoError(t, err)
	st, err := store.Record("conv-1", []string{"api-design", "service-layer-development"})
	require.NoError(t, err)

	assert.Equal(t, []string{"service-layer-development", "api-design"}, st.Acknowledged)
	assert.Equal(t, []string{"api-design", "service-layer-development"}, st.LastInjected)
	assert.Equal(t, fixed, st.UpdatedAt)

	reread, err := store.Read("conv-1")
	require.NoError(t, err)
	assert.Equal(t, st.Acknowledged, reread.Acknowledged)
	assert.True(t, reread.AcknowledgedSet()["api-design"])

	_, err = os.Stat(store.Path("conv-1") + ".lock")
	assert.True(t, os.IsNotExist(err), "lock file is released")
}

func TestStore_PathSanitizesIDs(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	assert.Equal(t, filepath.Join(dir, "abc-123_x.json"), store.Path("abc-123_x"))

	hostile := store.Path("../../etc/passwd")
	assert.Equal(t, dir, filepath.Dir(hostile))
	assert.True(t, strings.HasPrefix(filepath.Base(hostile), "sha256-"))
	assert.Equal(t, hostile, store.Path("../../etc/passwd"))
}

func TestStore_Errors(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	_, err := store.Read("")
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)

	require.NoError(t, os.WriteFile(store.Path("broken"), []byte("{not json"), 0o644))
	_, err = store.Read("broken")
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "read", ioErr.Op)

	_, err = store.Record("", []string{"a"})
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "write", ioErr.Op)
}

func TestStore_RecordReplacesCorruptFile(t *testing.T) {
	store := NewStore(t.TempDir())
	path := store.Path("broken")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	st, err := store.Record("broken", []string{"api-design"})
	require.NoError(t, err)
	assert.Equal(t, []string{"api-design"}, st.Acknowledged)

	st, err = store.Record("broken", []string{"logging"})
	require.NoError(t, err)
	assert.Equal(t, []string{"api-design", "logging"}, st.Acknowledged, "later turns keep accumulating")

	reread, err := store.Read("broken")
	require.NoError(t, err)
	assert.Equal(t, st.Acknowledged, reread.Acknowledged)

	kept, err := os.ReadFile(path + ".corrupt")
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(kept))

	ids, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"broken"}, ids)
}

func TestStore_ConcurrentRecord(t *testing.T) {
	store := NewStore(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Record("shared", []string{fmt.Sprintf("skill-%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	st, err := store.Read("shared")
	require.NoError(t, err)
	assert.Len(t, st.Acknowledged, 8)
}

func TestStore_List(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Record("b-conv", []string{"x"})
	require.NoError(t, err)
	_, err = store.Record("a-conv", []string{"y"})
	require.NoError(t, err)

	ids, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a-conv", "b-conv"}, ids)
}

func TestAcquireLock(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.json")

	lock, err := acquireLock(testFile)
	require.NoError(t, err)

	lockContent, err := os.ReadFile(lock.lockPath)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d\n", os.Getpid()), string(lockContent))

	require.NoError(t, lock.release())
	_, err = os.Stat(testFile + ".lock")
	assert.True(t, os.IsNotExist(err))
}

func TestAcquireLock_BreaksStaleLock(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.json")
	lockPath := testFile + ".lock"
	require.NoError(t, os.WriteFile(lockPath, []byte("99999\n"), 0o644))
	old := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(lockPath, old, old))

	lock, err := acquireLock(testFile)
	require.NoError(t, err)
	require.NoError(t, lock.release())
}

func TestWithLock_PropagatesError(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.json")
	err := withLock(testFile, func() error {
		return fmt.Errorf("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestAcquireLock_TimesOutWhileHeld(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.json")
	held, err := acquireLock(testFile)
	require.NoError(t, err)
	defer held.release()

	start := time.Now()
	_, err = acquireLock(testFile)
	assert.ErrorContains(t, err, "timeout waiting for lock")
	assert.GreaterOrEqual(t, time.Since(start), lockTimeout)
}

func TestLockAbandoned(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	assert.False(t, lockAbandoned(filepath.Join(dir, "missing.lock")))
	assert.False(t, lockAbandoned(write("self.lock", fmt.Sprintf("%d\n", os.Getpid()))))
	assert.False(t, lockAbandoned(write("empty.lock", "")), "owner may not have written its PID yet")
	assert.True(t, lockAbandoned(write("dead.lock", "2147483647\n")))
}
