package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestRealClock(t *testing.T) {
	c := NewRealClock()
	start := c.Now()
	<-c.After(time.Millisecond)
	assert.GreaterOrEqual(t, c.Since(start), time.Millisecond)
}

func TestVirtualClock_AfterFiresOnAdvance(t *testing.T) {
	c := NewVirtualClock(epoch)
	ch := c.After(2 * time.Second)
	assert.Equal(t, 1, c.Waiters())

	c.Advance(time.Second)
	select {
	case <-ch:
		t.Fatal("fired early")
	default:
	}

	c.Advance(time.Second)
	select {
	case got := <-ch:
		assert.Equal(t, epoch.Add(2*time.Second), got)
	default:
		t.Fatal("did not fire at deadline")
	}
	assert.Equal(t, 0, c.Waiters())
}

func TestVirtualClock_AfterNonPositiveFiresImmediately(t *testing.T) {
	c := NewVirtualClock(epoch)
	select {
	case <-c.After(0):
	default:
		t.Fatal("zero duration should fire immediately")
	}
	assert.Equal(t, 0, c.Waiters())
}

func TestVirtualClock_Set(t *testing.T) {
	c := NewVirtualClock(epoch)
	ch := c.After(time.Minute)
	c.Set(epoch.Add(time.Hour))
	<-ch
	assert.Equal(t, time.Hour, c.Since(epoch))

	assert.Panics(t, func() { c.Set(epoch) })
	assert.Panics(t, func() { c.Advance(-time.Second) })
}

func TestVirtualClock_NextDeadline(t *testing.T) {
	c := NewVirtualClock(epoch)
	_, ok := c.NextDeadline()
	assert.False(t, ok)

	c.After(5 * time.Second)
	c.After(3 * time.Second)
	next, ok := c.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, epoch.Add(3*time.Second), next)

	select {
	case <-c.WaiterAdded():
	default:
		t.Fatal("expected waiter notification")
	}
}

func TestSleep(t *testing.T) {
	c := NewVirtualClock(epoch)

	require.NoError(t, Sleep(context.Background(), c, 0))
	require.NoError(t, Sleep(context.Background(), c, -time.Second))

	done := make(chan error, 1)
	go func() { done <- Sleep(context.Background(), c, 3*time.Second) }()

	<-c.WaiterAdded()
	c.Advance(3 * time.Second)
	assert.NoError(t, <-done)
}

func TestSleepCancelled(t *testing.T) {
	c := NewVirtualClock(epoch)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Sleep(ctx, c, time.Hour) }()

	<-c.WaiterAdded()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
