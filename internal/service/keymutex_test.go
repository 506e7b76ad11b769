package service

import (
	"sync"
	"testing"
)

func TestKeyMutexSerializesSameKey(t *testing.T) {
	var km keyMutex
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("scope|hash")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("counter = %d, want 100", counter)
	}
}

func TestKeyMutexIndependentKeys(t *testing.T) {
	var km keyMutex

	unlockA := km.Lock("a")
	// 不同key互不阻塞，若共享锁这里会死锁
	unlockB := km.Lock("b")
	unlockB()
	unlockA()
}
