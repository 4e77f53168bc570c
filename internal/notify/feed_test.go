package notify

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syrilster/leave-lop-console/internal/model"
)

func TestFeedKeepsNewest(t *testing.T) {
	f := NewFeed(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.Success(ctx, fmt.Sprintf("msg-%d", i))
	}
	f.Error(ctx, "boom")

	all := f.Recent(0)
	assert.Len(t, all, 3)
	assert.Equal(t, "msg-3", all[0].Message)
	assert.Equal(t, model.LevelError, all[2].Level)

	last := f.Recent(1)
	assert.Equal(t, []model.Notification{all[2]}, last)
}
