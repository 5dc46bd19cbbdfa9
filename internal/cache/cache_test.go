package cache

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func BenchmarkCache(b *testing.B) {
	c := NewWithTTL(time.Millisecond*100, func(key int) (string, error) {
		return strconv.Itoa(key), nil
	})

	for i := 0; i < b.N; i++ {
		_, _ = c.Load(i % 50)
	}
}

func TestCache_Load(t *testing.T) {
	var calls atomic.Int32

	c := NewWithTTL(time.Minute, func(key uint) (string, error) {
		calls.Add(1)
		return "org_" + strconv.Itoa(int(key)), nil
	})

	wg := new(sync.WaitGroup)

	for n := 0; n < 20; n++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := 0; i < 1000; i++ {
				_, _ = c.Load(uint(i % 10))
			}
		}()
	}

	wg.Wait()

	v, err := c.Load(3)
	require.NoError(t, err)
	require.Equal(t, "org_3", v)
	require.Equal(t, int32(10), calls.Load())
	require.Equal(t, 10, c.Len())
}

func TestCache_ErrorNotCached(t *testing.T) {
	fail := true

	c := NewWithTTL(time.Minute, func(key string) (int, error) {
		if fail {
			return 0, errors.New("not yet")
		}

		return len(key), nil
	})

	_, err := c.Load("abc")
	require.Error(t, err)

	fail = false

	v, err := c.Load("abc")
	require.NoError(t, err)
	require.Equal(t, 3, v)
}

func TestCache_Expire(t *testing.T) {
	now := time.Now()
	n := 0

	c := NewWithTTL(time.Second, func(key string) (int, error) {
		n++
		return n, nil
	})
	c.now = func() time.Time { return now }

	v, _ := c.Load("a")
	require.Equal(t, 1, v)

	v, _ = c.Load("a")
	require.Equal(t, 1, v)

	now = now.Add(2 * time.Second)

	v, _ = c.Load("a")
	require.Equal(t, 2, v)

	now = now.Add(2 * time.Second)
	c.Clean()
	require.Equal(t, 0, c.Len())

	c.Forget("missing")
}
