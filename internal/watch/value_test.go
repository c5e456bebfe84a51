package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for value")
		panic("unreachable")
	}
}

func TestValue_SubscribeDeliversCurrentValueImmediately(t *testing.T) {
	v := NewValue(42)

	ch, cancel := v.Subscribe()
	defer cancel()

	require.Equal(t, 42, recv(t, ch))
}

func TestValue_SetNotifiesAllSubscribers(t *testing.T) {
	v := NewValue("initial")

	ch1, cancel1 := v.Subscribe()
	defer cancel1()
	ch2, cancel2 := v.Subscribe()
	defer cancel2()

	require.Equal(t, "initial", recv(t, ch1))
	require.Equal(t, "initial", recv(t, ch2))

	v.Set("updated")

	require.Equal(t, "updated", recv(t, ch1))
	require.Equal(t, "updated", recv(t, ch2))
}

func TestValue_SlowSubscriberSeesLatestValue(t *testing.T) {
	v := NewValue(0)

	ch, cancel := v.Subscribe()
	defer cancel()

	// Never read the initial value; pile up updates.
	v.Set(1)
	v.Set(2)
	v.Set(3)

	require.Equal(t, 3, recv(t, ch))
	require.Equal(t, 3, v.Get())
}

func TestValue_CancelIsIdempotent(t *testing.T) {
	v := NewValue(1)

	ch, cancel := v.Subscribe()
	cancel()
	cancel()

	// Channel must be closed after cancel; drain any buffered value first.
	for range ch {
	}

	// Set after cancel must not panic or deliver.
	v.Set(2)
	_, ok := <-ch
	require.False(t, ok)
}

func TestValue_SubscriberCancelingDoesNotAffectOthers(t *testing.T) {
	v := NewValue(1)

	ch1, cancel1 := v.Subscribe()
	ch2, cancel2 := v.Subscribe()
	defer cancel2()

	require.Equal(t, 1, recv(t, ch1))
	require.Equal(t, 1, recv(t, ch2))

	cancel1()
	v.Set(7)

	require.Equal(t, 7, recv(t, ch2))
}

func TestValue_GetReflectsLatestSet(t *testing.T) {
	v := NewValue("a")
	v.Set("b")
	require.Equal(t, "b", v.Get())
}
