package application

import (
	"hash/fnv"
	"sync"
)

// stripedLocks 按用户名分片的互斥锁，同一用户的历史与缓存写入串行
type stripedLocks struct {
	locks []sync.Mutex
}

func newStripedLocks(n int) *stripedLocks {
	if n <= 0 {
		n = 1
	}
	return &stripedLocks{locks: make([]sync.Mutex, n)}
}

func (s *stripedLocks) forKey(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.locks[h.Sum32()%uint32(len(s.locks))]
}
