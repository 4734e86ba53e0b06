package keymutex

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerializesSameKey(t *testing.T) {
	m := New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock("k")
			counter++
			m.Unlock("k")
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestIndependentKeysDoNotBlock(t *testing.T) {
	m := New()

	m.Lock("a")
	defer m.Unlock("a")

	done := make(chan struct{})
	go func() {
		m.Lock("b")
		m.Unlock("b")
		close(done)
	}()

	<-done
}
