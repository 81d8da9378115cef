package usecase

import (
	"sync"
	"testing"

	"storefront/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartWatcher_LatestValueWins(t *testing.T) {
	w := NewCartWatcher()
	ch, cancel := w.Subscribe("a@x.com")
	defer cancel()

	w.Publish("a@x.com", []model.CartLine{{ProductID: "p1", Quantity: 1}})
	w.Publish("a@x.com", []model.CartLine{{ProductID: "p1", Quantity: 2}})

	got := <-ch
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].Quantity)

	select {
	case <-ch:
		t.Fatal("stale value was kept")
	default:
	}
}

func TestCartWatcher_PublishCopiesLines(t *testing.T) {
	w := NewCartWatcher()
	ch, cancel := w.Subscribe("a@x.com")
	defer cancel()

	lines := []model.CartLine{{ProductID: "p1", Quantity: 1}}
	w.Publish("a@x.com", lines)
	lines[0].Quantity = 99

	got := <-ch
	assert.Equal(t, int64(1), got[0].Quantity)
}

func TestCartWatcher_CancelUnsubscribes(t *testing.T) {
	w := NewCartWatcher()
	ch1, cancel1 := w.Subscribe("a@x.com")
	_, cancel2 := w.Subscribe("a@x.com")

	assert.True(t, w.HasSubscribers("a@x.com"))
	assert.False(t, w.HasSubscribers("b@y.com"))

	cancel1()
	cancel1()
	_, ok := <-ch1
	assert.False(t, ok)
	assert.True(t, w.HasSubscribers("a@x.com"))

	cancel2()
	assert.False(t, w.HasSubscribers("a@x.com"))

	//購読者なしでも詰まらない
	w.Publish("a@x.com", nil)
}

func TestOwnerLocks_SerializesSameKey(t *testing.T) {
	l := newOwnerLocks()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.lock("a@x.com")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.size(), "使い終わったキーは残らない")
}

func TestOwnerLocks_IndependentKeys(t *testing.T) {
	l := newOwnerLocks()

	unlockA := l.lock("a@x.com")
	done := make(chan struct{})
	go func() {
		unlockB := l.lock("b@y.com")
		unlockB()
		close(done)
	}()
	<-done

	assert.Equal(t, 1, l.size())
	unlockA()
	assert.Equal(t, 0, l.size())
}
