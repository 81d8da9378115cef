package usecase

import (
	"sync"

	"storefront/internal/domain/model"
)

// CartWatcher はオーナーごとの購読者に最新の明細を配る。
// 各購読チャネルはバッファ1で、古い値は新しい値で置き換える（書き込み側は待たない）。
type CartWatcher struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan []model.CartLine
}

func NewCartWatcher() *CartWatcher {
	return &CartWatcher{subs: make(map[string]map[int]chan []model.CartLine)}
}

// Subscribe はオーナーの購読を始める。cancelで解除しチャネルを閉じる。
func (w *CartWatcher) Subscribe(ownerKey string) (<-chan []model.CartLine, func()) {
	ch := make(chan []model.CartLine, 1)

	w.mu.Lock()
	id := w.next
	w.next++
	if w.subs[ownerKey] == nil {
		w.subs[ownerKey] = make(map[int]chan []model.CartLine)
	}
	w.subs[ownerKey][id] = ch
	w.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()

			delete(w.subs[ownerKey], id)
			if len(w.subs[ownerKey]) == 0 {
				delete(w.subs, ownerKey)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// 購読者がいるか（いなければ再読込を省ける）
func (w *CartWatcher) HasSubscribers(ownerKey string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs[ownerKey]) > 0
}

// Publish はオーナーの購読者全員に明細を送る
func (w *CartWatcher) Publish(ownerKey string, lines []model.CartLine) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, ch := range w.subs[ownerKey] {
		snapshot := make([]model.CartLine, len(lines))
		copy(snapshot, lines)

		//古い値が残っていれば捨てる
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}
