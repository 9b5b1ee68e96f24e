package kvstore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKVStore(t *testing.T) {
	s := New[string, int]()

	_, ok := s.Get("a")
	assert.False(t, ok)

	s.Set("b", 2)
	s.Set("a", 1)
	v, ok := s.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"a", "b"}, s.Keys())

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.Equal(t, 1, s.Len())
}

func TestKVStoreUpdate(t *testing.T) {
	s := New[string, int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update("counter", func(current int, _ bool) (int, bool) {
				return current + 1, true
			})
		}()
	}
	wg.Wait()

	v, _ := s.Get("counter")
	assert.Equal(t, 50, v)

	s.Update("counter", func(int, bool) (int, bool) { return 0, false })
	_, ok := s.Get("counter")
	assert.False(t, ok)
}
