package usecase

import "sync"

// ownerLocks はオーナーキーごとのミューテックス。
// 使われていないキーのロックは参照数0で捨てる。
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[string]*ownerLock)}
}

// lock はキーのロックを取り、解放用の関数を返す
func (l *ownerLocks) lock(key string) func() {
	l.mu.Lock()
	ol, ok := l.locks[key]
	if !ok {
		ol = &ownerLock{}
		l.locks[key] = ol
	}
	ol.refs++
	l.mu.Unlock()

	ol.mu.Lock()

	return func() {
		ol.mu.Unlock()

		l.mu.Lock()
		ol.refs--
		if ol.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// 保持中のキー数（テスト用）
func (l *ownerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
