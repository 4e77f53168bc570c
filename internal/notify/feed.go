package notify

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/syrilster/leave-lop-console/internal/model"
)

const defaultCapacity = 50

// Feed keeps the most recent notifications for the UI, newest last.
type Feed struct {
	mu       sync.Mutex
	items    []model.Notification
	capacity int
	now      func() time.Time
}

func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Feed{capacity: capacity, now: time.Now}
}

func (f *Feed) Success(ctx context.Context, msg string) {
	log.WithContext(ctx).Info(msg)
	f.push(model.LevelSuccess, msg)
}

func (f *Feed) Error(ctx context.Context, msg string) {
	log.WithContext(ctx).Warn(msg)
	f.push(model.LevelError, msg)
}

// Recent returns up to n notifications, oldest first. n <= 0 returns all of them.
func (f *Feed) Recent(n int) []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	start := 0
	if n > 0 && n < len(f.items) {
		start = len(f.items) - n
	}
	out := make([]model.Notification, len(f.items)-start)
	copy(out, f.items[start:])
	return out
}

func (f *Feed) push(level model.Level, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, model.Notification{Level: level, Message: msg, At: f.now()})
	if len(f.items) > f.capacity {
		f.items = f.items[len(f.items)-f.capacity:]
	}
}
