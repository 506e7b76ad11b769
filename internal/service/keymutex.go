package service

import "sync"

// keyMutex 按题目标识串行化变更：同一题目的写操作互斥，
// 不同题目完全并行。锁条目只增不减，题目基数有限，可接受。
type keyMutex struct {
	locks sync.Map // key -> *sync.Mutex
}

func (k *keyMutex) Lock(key string) func() {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
