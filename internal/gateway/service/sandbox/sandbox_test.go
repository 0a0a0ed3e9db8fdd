package sandbox

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"boron/internal/tester"
)

func TestAcquireBootsOncePerSession(t *testing.T) {
	var boots atomic.Int32
	reg := NewRegistry(BooterFunc(func(sessionID string) (string, error) {
		boots.Add(1)
		return "https://preview.local/" + sessionID, nil
	}))

	first, err := reg.Acquire("sess-1")
	tester.NoErr(t, err)
	tester.Eq(t, first.State(), StateReady)

	url, err := first.URL()
	tester.NoErr(t, err)
	tester.Eq(t, url, "https://preview.local/sess-1")

	again, err := reg.Acquire("sess-1")
	tester.NoErr(t, err)
	tester.True(t, first == again, "same instance reused")
	tester.Eq(t, boots.Load(), int32(1))

	_, err = reg.Acquire("sess-2")
	tester.NoErr(t, err)
	tester.Eq(t, boots.Load(), int32(2))
	tester.Eq(t, reg.Len(), 2)
}

func TestAcquireConcurrentFirstCalls(t *testing.T) {
	var boots atomic.Int32
	reg := NewRegistry(BooterFunc(func(string) (string, error) {
		boots.Add(1)
		return "https://preview.local", nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inst, err := reg.Acquire("sess-1")
			if err != nil || inst.State() != StateReady {
				t.Errorf("acquire: err=%v state=%v", err, inst.State())
			}
		}()
	}
	wg.Wait()
	tester.Eq(t, boots.Load(), int32(1))
}

func TestAcquireRequiresSession(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := reg.Acquire("  ")
	tester.Eq(t, err, ErrNoSession)
}

func TestBootFailureIsNotCached(t *testing.T) {
	fail := true
	reg := NewRegistry(BooterFunc(func(string) (string, error) {
		if fail {
			return "", fmt.Errorf("container pull timed out")
		}
		return "https://preview.local", nil
	}))

	_, err := reg.Acquire("sess-1")
	tester.True(t, errors.Is(err, ErrBootFailed))
	tester.Eq(t, reg.Len(), 0)

	fail = false
	inst, err := reg.Acquire("sess-1")
	tester.NoErr(t, err)
	tester.Eq(t, inst.State(), StateReady)
}

func TestReleaseClosesAndAllowsReboot(t *testing.T) {
	var boots atomic.Int32
	reg := NewRegistry(BooterFunc(func(string) (string, error) {
		boots.Add(1)
		return "https://preview.local", nil
	}))

	inst, err := reg.Acquire("sess-1")
	tester.NoErr(t, err)

	reg.Release("sess-1")
	tester.Eq(t, inst.State(), StateClosed)
	_, err = inst.URL()
	tester.Eq(t, err, ErrClosed)
	tester.Eq(t, reg.Len(), 0)

	// Releasing again is a no-op.
	reg.Release("sess-1")

	fresh, err := reg.Acquire("sess-1")
	tester.NoErr(t, err)
	tester.True(t, fresh != inst, "closed instance never reused")
	tester.Eq(t, boots.Load(), int32(2))
}
