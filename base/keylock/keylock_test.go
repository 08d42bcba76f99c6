package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyLockSerializesSameKey(t *testing.T) {
	req := require.New(t)

	kl := New()
	count := 0
	wg := sync.WaitGroup{}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl.Lock("listing:1")
			defer kl.Unlock("listing:1")
			count++
		}()
	}
	wg.Wait()

	req.Equal(100, count)
}

func TestKeyLockIndependentKeys(t *testing.T) {
	kl := New()

	kl.Lock("a")
	done := make(chan struct{})
	go func() {
		kl.Lock("b")
		defer kl.Unlock("b")
		close(done)
	}()
	<-done
	kl.Unlock("a")
}

func TestKeyLockReleasesEntry(t *testing.T) {
	req := require.New(t)

	kl := New()
	kl.Lock("a")
	kl.Unlock("a")
	req.Empty(kl.locks)
}
