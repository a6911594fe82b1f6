package blockchain

import (
	"sync"
	"testing"
	"time"
)

func TestChainLockConcurrentAccess(t *testing.T) {
	const (
		readers           = 8
		readIterations    = 20000
		writers           = 2
		writeIterations   = 2000
		lowPriorityWrites = 5000
	)
	lock := newChainLock()
	shared := 0

	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < readIterations; j++ {
				lock.highPriorityReadLock()
				_ = shared
				lock.highPriorityReadUnlock()
			}
		}()
	}
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < writeIterations; j++ {
				lock.highPriorityLock()
				shared++
				lock.highPriorityUnlock()
			}
		}()
	}
	for i := 0; i < lowPriorityWrites; i++ {
		lock.lowPriorityLock()
		shared++
		lock.lowPriorityUnlock()
	}
	wg.Wait()

	expected := writers*writeIterations + lowPriorityWrites
	if shared != expected {
		t.Fatalf("TestChainLockConcurrentAccess: expected %d writes but counted %d", expected, shared)
	}
}

func TestChainLockLowPriorityWaitsForHighPriority(t *testing.T) {
	lock := newChainLock()
	lock.highPriorityReadLock()

	acquired := make(chan struct{})
	go func() {
		lock.lowPriorityLock()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatalf("TestChainLockLowPriorityWaitsForHighPriority: low priority lock taken " +
			"while a high priority reader holds the lock")
	case <-time.After(100 * time.Millisecond):
	}

	lock.highPriorityReadUnlock()
	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatalf("TestChainLockLowPriorityWaitsForHighPriority: low priority lock not taken " +
			"after the high priority reader left")
	}
	lock.lowPriorityUnlock()

	// The lock is reusable once every holder is gone.
	lock.highPriorityLock()
	lock.highPriorityUnlock()
	lock.lowPriorityLock()
	lock.lowPriorityUnlock()
}
