package blockchain

import (
	"sync"
)

// chainLock guards the chain state with three access levels:
//   - block processing takes the low priority write lock;
//   - snapshot sessions take the high priority write lock, which waits only
//     for the current holder and overtakes queued block processing;
//   - queries and read views take the high priority read lock.
//
// Low priority lockers wait until no high priority holder or waiter is left
// before competing for dataMutex.
type chainLock struct {
	dataMutex        sync.RWMutex
	lowPriorityMutex sync.Mutex

	highPriorityMutex   sync.Mutex
	highPriorityDone    *sync.Cond
	highPriorityWaiting int
}

func newChainLock() *chainLock {
	l := &chainLock{}
	l.highPriorityDone = sync.NewCond(&l.highPriorityMutex)
	return l
}

func (l *chainLock) lowPriorityLock() {
	l.lowPriorityMutex.Lock()
	l.highPriorityMutex.Lock()
	for l.highPriorityWaiting > 0 {
		l.highPriorityDone.Wait()
	}
	l.highPriorityMutex.Unlock()
	l.dataMutex.Lock()
}

func (l *chainLock) lowPriorityUnlock() {
	l.dataMutex.Unlock()
	l.lowPriorityMutex.Unlock()
}

func (l *chainLock) addHighPriorityWaiter() {
	l.highPriorityMutex.Lock()
	l.highPriorityWaiting++
	l.highPriorityMutex.Unlock()
}

func (l *chainLock) removeHighPriorityWaiter() {
	l.highPriorityMutex.Lock()
	l.highPriorityWaiting--
	if l.highPriorityWaiting == 0 {
		l.highPriorityDone.Broadcast()
	}
	l.highPriorityMutex.Unlock()
}

func (l *chainLock) highPriorityLock() {
	l.addHighPriorityWaiter()
	l.dataMutex.Lock()
}

func (l *chainLock) highPriorityUnlock() {
	l.dataMutex.Unlock()
	l.removeHighPriorityWaiter()
}

func (l *chainLock) highPriorityReadLock() {
	l.addHighPriorityWaiter()
	l.dataMutex.RLock()
}

func (l *chainLock) highPriorityReadUnlock() {
	l.dataMutex.RUnlock()
	l.removeHighPriorityWaiter()
}
