package cache

import (
	"sync"
	"time"
)

// Cache memoizes values of an expensive loader for ttl. Failed loads are not kept.
type Cache[K comparable, V any] struct {
	m      sync.Map
	ttl    time.Duration
	loader func(key K) (V, error)
	now    func() time.Time
}

type entry[V any] struct {
	mx    sync.Mutex
	value V
	ts    time.Time
}

func NewWithTTL[K comparable, V any](ttl time.Duration, loader func(key K) (V, error)) *Cache[K, V] {
	return &Cache[K, V]{
		ttl:    ttl,
		loader: loader,
		now:    time.Now,
	}
}

// Clean drops stale entries; entries being loaded right now are skipped.
func (c *Cache[K, V]) Clean() {
	c.m.Range(func(key, value any) bool {
		e := value.(*entry[V])

		if !e.mx.TryLock() {
			return true
		}

		defer e.mx.Unlock()

		if e.ts.IsZero() || c.now().Sub(e.ts) > c.ttl {
			c.m.Delete(key)
		}

		return true
	})
}

func (c *Cache[K, V]) Load(key K) (V, error) {
	v, _ := c.m.LoadOrStore(key, new(entry[V]))
	e := v.(*entry[V])

	e.mx.Lock()
	defer e.mx.Unlock()

	if !e.ts.IsZero() && c.now().Sub(e.ts) <= c.ttl {
		return e.value, nil
	}

	val, err := c.loader(key)
	if err != nil {
		var zero V
		return zero, err
	}

	e.value = val
	e.ts = c.now()

	return val, nil
}

func (c *Cache[K, V]) Forget(key K) {
	c.m.Delete(key)
}

func (c *Cache[K, V]) Len() int {
	n := 0

	c.m.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}
