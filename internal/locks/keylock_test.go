package locks

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	kl := NewKeyLock()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = kl.Do("BTC:4h", func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyLock_IndependentKeys(t *testing.T) {
	kl := NewKeyLock()

	kl.Lock("BTC:4h")
	defer kl.Unlock("BTC:4h")

	done := make(chan struct{})
	go func() {
		kl.Lock("ETH:4h")
		kl.Unlock("ETH:4h")
		close(done)
	}()

	// A different key must not block behind the held lock
	<-done
}

func TestKeyLock_DoPropagatesError(t *testing.T) {
	kl := NewKeyLock()

	wantErr := assert.AnError
	err := kl.Do("BTC:1h", func() error { return wantErr })
	require.ErrorIs(t, err, wantErr)

	// Lock must have been released
	assert.NoError(t, kl.Do("BTC:1h", func() error { return nil }))
}
