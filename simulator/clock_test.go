package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVirtualClock_AdvanceFiresTimersInOrder(t *testing.T) {
	start := time.Unix(0, 0)
	vc := NewVirtualClock(start)

	var fired []string
	vc.AfterFunc(3*time.Second, func() { fired = append(fired, "c") })
	vc.AfterFunc(1*time.Second, func() { fired = append(fired, "a") })
	vc.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })

	vc.Advance(90 * time.Second)
	require.Equal(t, []string{"a", "b", "c"}, fired)
	require.Equal(t, start.Add(90*time.Second), vc.Now())
	require.Equal(t, 0, vc.PendingTimers())
}

func TestVirtualClock_OnlyDueTimersFire(t *testing.T) {
	vc := NewVirtualClock(time.Unix(0, 0))

	firedEarly := false
	firedLate := false
	vc.AfterFunc(1*time.Second, func() { firedEarly = true })
	vc.AfterFunc(10*time.Second, func() { firedLate = true })

	vc.Advance(5 * time.Second)
	require.True(t, firedEarly)
	require.False(t, firedLate)
	require.Equal(t, 1, vc.PendingTimers())

	vc.Advance(5 * time.Second)
	require.True(t, firedLate)
}

func TestVirtualClock_CallbackObservesItsDeadline(t *testing.T) {
	start := time.Unix(0, 0)
	vc := NewVirtualClock(start)

	var observed time.Time
	vc.AfterFunc(7*time.Second, func() { observed = vc.Now() })

	vc.Advance(time.Minute)
	require.Equal(t, start.Add(7*time.Second), observed)
}

func TestVirtualClock_SameDeadlineFiresInScheduleOrder(t *testing.T) {
	vc := NewVirtualClock(time.Unix(0, 0))

	var fired []int
	for i := 0; i < 5; i++ {
		i := i
		vc.AfterFunc(time.Second, func() { fired = append(fired, i) })
	}
	vc.Advance(time.Second)
	require.Equal(t, []int{0, 1, 2, 3, 4}, fired)
}

func TestVirtualClock_SleepWakesOnAdvance(t *testing.T) {
	vc := NewVirtualClock(time.Unix(0, 0))

	woke := make(chan struct{})
	go func() {
		vc.Sleep(2 * time.Second)
		close(woke)
	}()

	// Wait until the sleeper has registered its timer
	deadline := time.Now().Add(2 * time.Second)
	for vc.PendingTimers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("sleeper never registered a timer")
		}
		time.Sleep(100 * time.Microsecond)
	}

	select {
	case <-woke:
		t.Fatal("Sleep returned before the clock advanced")
	default:
	}

	vc.Advance(2 * time.Second)
	select {
	case <-woke:
	case <-time.After(2 * time.Second):
		t.Fatal("Sleep did not wake after Advance")
	}
}
