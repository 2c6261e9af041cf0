package debounce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, d *Debouncer[T], within time.Duration) (T, bool) {
	t.Helper()
	select {
	case v := <-d.C():
		return v, true
	case <-time.After(within):
		var zero T
		return zero, false
	}
}

func TestRapidSetsCommitOnlyLastValueOnce(t *testing.T) {
	d := New[string](60 * time.Millisecond)
	defer d.Stop()

	for _, v := range []string{"b", "ba", "bat", "batm", "batma", "batman"} {
		d.Set(v)
		time.Sleep(5 * time.Millisecond)
	}
	assert.True(t, d.Pending())

	v, ok := receive(t, d, time.Second)
	require.True(t, ok)
	assert.Equal(t, "batman", v)
	assert.False(t, d.Pending())

	_, ok = receive(t, d, 150*time.Millisecond)
	assert.False(t, ok, "expected exactly one commit")
}

func TestSeparatedSetsCommitEach(t *testing.T) {
	d := New[int](10 * time.Millisecond)
	defer d.Stop()

	d.Set(1)
	v, ok := receive(t, d, time.Second)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	d.Set(2)
	v, ok = receive(t, d, time.Second)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestFlushCancelsPendingCommit(t *testing.T) {
	d := New[string](20 * time.Millisecond)
	defer d.Stop()

	d.Set("batman")
	v, ok := d.Flush()
	require.True(t, ok)
	assert.Equal(t, "batman", v)
	assert.False(t, d.Pending())

	_, ok = receive(t, d, 60*time.Millisecond)
	assert.False(t, ok, "flushed value must not fire later")

	_, ok = d.Flush()
	assert.False(t, ok)
}

func TestCancel(t *testing.T) {
	d := New[string](10 * time.Millisecond)
	defer d.Stop()

	d.Set("x")
	d.Cancel()
	_, ok := receive(t, d, 50*time.Millisecond)
	assert.False(t, ok)
}

func TestCancelDropsUnreadCommit(t *testing.T) {
	d := New[string](5 * time.Millisecond)
	defer d.Stop()

	d.Set("batman")
	time.Sleep(40 * time.Millisecond)
	require.False(t, d.Pending())

	d.Cancel()
	_, ok := receive(t, d, 30*time.Millisecond)
	assert.False(t, ok)
}

func TestFlushDropsUnreadCommit(t *testing.T) {
	d := New[string](5 * time.Millisecond)
	defer d.Stop()

	d.Set("batman")
	time.Sleep(40 * time.Millisecond)

	_, ok := d.Flush()
	assert.False(t, ok, "nothing was pending")
	_, ok = receive(t, d, 30*time.Millisecond)
	assert.False(t, ok)
}

func TestZeroDelayCommitsImmediately(t *testing.T) {
	d := New[string](0)
	defer d.Stop()

	d.Set("now")
	v, ok := receive(t, d, 10*time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, "now", v)
}

func TestStopIgnoresInput(t *testing.T) {
	d := New[string](5 * time.Millisecond)
	d.Stop()
	d.Set("late")
	_, ok := receive(t, d, 30*time.Millisecond)
	assert.False(t, ok)
}
