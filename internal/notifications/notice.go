package notifications

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

// Level classifies a notice for display.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a transient user-visible message.
type Notice struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(ctx context.Context, level Level, message string)
}

// Feed keeps notices until their TTL elapses.
type Feed struct {
	ttl   time.Duration
	cache *cache.Cache
	seq   atomic.Uint64
	now   func() time.Time
}

// NewFeed builds a feed whose notices expire after ttl.
func NewFeed(ttl time.Duration) *Feed {
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	return &Feed{
		ttl:   ttl,
		cache: cache.New(ttl, ttl*2),
		now:   time.Now,
	}
}

// Add records a notice and returns it.
func (f *Feed) Add(level Level, message string) Notice {
	seq := f.seq.Add(1)
	created := f.now()
	n := Notice{
		ID:        fmt.Sprintf("n%06d", seq),
		Level:     level,
		Message:   message,
		CreatedAt: created,
		ExpiresAt: created.Add(f.ttl),
	}
	f.cache.Set(n.ID, n, cache.DefaultExpiration)
	return n
}

// Active returns unexpired notices, oldest first.
func (f *Feed) Active() []Notice {
	items := f.cache.Items()
	out := make([]Notice, 0, len(items))
	for _, item := range items {
		if n, ok := item.Object.(Notice); ok {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clear drops every notice.
func (f *Feed) Clear() {
	f.cache.Flush()
}
