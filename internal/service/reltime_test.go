package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRelativeTime(t *testing.T) {
	now := testNow

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "0 seconds ago"},
		{time.Second, "1 second ago"},
		{59 * time.Second, "59 seconds ago"},
		{60 * time.Second, "1 minute ago"},
		{119 * time.Second, "1 minute ago"},
		{2 * time.Minute, "2 minutes ago"},
		{59 * time.Minute, "59 minutes ago"},
		{90 * time.Minute, "1 hour ago"},
		{23 * time.Hour, "23 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{29 * day, "29 days ago"},
		{30 * day, "1 month ago"},
		{75 * day, "2 months ago"},
		{362 * day, "11 months ago"},
		{365 * day, "1 year ago"},
		{3 * 365 * day, "3 years ago"},
		{-time.Hour, "0 seconds ago"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeTime(now.Add(-tt.ago), now))
		})
	}
}
