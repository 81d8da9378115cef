package rate

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter はクライアント（IPなど）ごとのトークンバケット。
// Expiry分アクセスの無いクライアントは定期的に捨てる。
type Limiter struct {
	Expiry   int
	Burst    int
	LimitRPS float64
	clients  map[string]*clientLimiter
	mu       sync.Mutex
	now      func() time.Time
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewLimiter は掃除用のgoroutineを起動する。ctxが終わると止まる。
func NewLimiter(ctx context.Context, burst int, expiry int, limitRPS float64) *Limiter {
	lm := &Limiter{
		Expiry:   expiry,
		LimitRPS: limitRPS,
		Burst:    burst,
		clients:  make(map[string]*clientLimiter),
		now:      time.Now,
	}
	go lm.refresh(ctx, time.Minute)
	return lm
}

// Check はidのリクエストを1つ通してよいか
func (l *Limiter) Check(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[id]
	if !ok {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(l.LimitRPS), l.Burst),
		}
		l.clients[id] = cl
	}
	cl.lastAccess = l.now()
	return cl.limiter.Allow()
}

func (l *Limiter) refresh(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.evict()
		}
	}
}

// 期限切れのクライアントを消す
func (l *Limiter) evict() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, v := range l.clients {
		if l.now().Sub(v.lastAccess) > time.Duration(l.Expiry)*time.Minute {
			delete(l.clients, id)
		}
	}
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func Every(interval time.Duration) float64 {
	return float64(rate.Every(interval))
}
