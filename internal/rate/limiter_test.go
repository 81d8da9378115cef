package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	burst := 1

	interval := 50 * time.Millisecond
	r := NewLimiter(ctx, burst, 100, Every(interval))

	client := "10.0.0.1"

	assert.True(t, r.Check(client))
	assert.False(t, r.Check(client))

	time.Sleep(interval + 20*time.Millisecond)
	assert.True(t, r.Check(client))
	assert.False(t, r.Check(client))
}

func TestLimiterWithBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := "10.0.0.1"
	burst := 5

	r := NewLimiter(ctx, burst, 100, Every(time.Hour))
	for i := 0; i < burst; i++ {
		assert.True(t, r.Check(client), "iteration %d", i)
	}
	assert.False(t, r.Check(client))

	//別クライアントは独立
	assert.True(t, r.Check("10.0.0.2"))
}

func TestLimiterEvictsIdleClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Now()
	r := NewLimiter(ctx, 1, 10, Every(time.Second))
	r.now = func() time.Time { return now }

	r.Check("a")
	r.Check("b")
	assert.Equal(t, 2, r.size())

	now = now.Add(5 * time.Minute)
	r.Check("b")

	now = now.Add(6 * time.Minute)
	r.evict()
	assert.Equal(t, 1, r.size())
}
