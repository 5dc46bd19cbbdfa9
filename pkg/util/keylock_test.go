package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyLock(t *testing.T) {
	kl := NewKeyLock()

	var counter int
	wg := new(sync.WaitGroup)

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			unlock := kl.Lock("org_1/RC")
			defer unlock()

			v := counter
			counter = v + 1
		}()
	}

	wg.Wait()

	require.Equal(t, 50, counter)
	require.Equal(t, 0, kl.Len())
}

func TestKeyLock_TryLock(t *testing.T) {
	kl := NewKeyLock()

	unlock, ok := kl.TryLock("a")
	require.True(t, ok)

	_, ok = kl.TryLock("a")
	require.False(t, ok)

	unlockB, ok := kl.TryLock("b")
	require.True(t, ok)
	unlockB()

	unlock()
	unlock()

	unlock, ok = kl.TryLock("a")
	require.True(t, ok)
	unlock()

	require.Equal(t, 0, kl.Len())
}
