package maybe

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaybe_OfAndNone(t *testing.T) {
	m := Of(5)
	v, ok := m.Get()
	assert.True(t, ok)
	assert.Equal(t, 5, v)
	assert.True(t, m.IsPresent())
	assert.Equal(t, 5, m.OrElse(9))

	n := None[int]()
	assert.False(t, n.IsPresent())
	assert.Equal(t, 9, n.OrElse(9))
}

func TestLazy_ComputesOnce(t *testing.T) {
	var calls int32
	l := NewLazy(func() int {
		atomic.AddInt32(&calls, 1)
		return 3
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 3, l.Get())
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOnce_ComputesOnceAndCachesValue(t *testing.T) {
	var calls int32
	o := NewOnce(func() (int, error) {
		atomic.AddInt32(&calls, 1)
		return 11, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := o.Do()
			require.NoError(t, err)
			assert.Equal(t, 11, v)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestOnce_CachesFailedAttempt(t *testing.T) {
	var calls int32
	sentinel := errors.New("init failed")
	o := NewOnce(func() (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, sentinel
	})

	_, err := o.Do()
	assert.ErrorIs(t, err, sentinel)

	_, err = o.Do()
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
