package report

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ReplyDesk/internal/model"
)

func at(base time.Time, d time.Duration) *time.Time {
	t := base.Add(d)
	return &t
}

func TestBuild(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		history []model.HistoryItem
		want    Stats
	}{
		{
			name:    "empty",
			history: nil,
			want:    Stats{ResponseRate: "0%", AvgResponseTime: Unknown, Recent: []model.HistoryItem{}},
		},
		{
			name: "all responded without arrival times",
			history: []model.HistoryItem{
				{ID: "2", Status: model.StatusResponded, Timestamp: base},
				{ID: "1", Status: model.StatusResponded, Timestamp: base},
			},
			want: Stats{TotalMessages: 2, Responded: 2, ResponseRate: "100%", AvgResponseTime: Unknown},
		},
		{
			name: "mixed with arrival times",
			history: []model.HistoryItem{
				{ID: "3", Status: model.StatusPending, Timestamp: base},
				{ID: "2", Status: model.StatusResponded, Timestamp: base, ReceivedAt: at(base, -10*time.Minute)},
				{ID: "1", Status: model.StatusResponded, Timestamp: base, ReceivedAt: at(base, -20*time.Minute)},
			},
			want: Stats{TotalMessages: 3, Responded: 2, Pending: 1, ResponseRate: "67%", AvgResponseTime: "15min"},
		},
		{
			name: "sub-minute average",
			history: []model.HistoryItem{
				{ID: "1", Status: model.StatusResponded, Timestamp: base, ReceivedAt: at(base, -30*time.Second)},
			},
			want: Stats{TotalMessages: 1, Responded: 1, ResponseRate: "100%", AvgResponseTime: "30s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Build(tt.history)
			assert.Equal(t, tt.want.TotalMessages, got.TotalMessages)
			assert.Equal(t, tt.want.Responded, got.Responded)
			assert.Equal(t, tt.want.Pending, got.Pending)
			assert.Equal(t, tt.want.ResponseRate, got.ResponseRate)
			assert.Equal(t, tt.want.AvgResponseTime, got.AvgResponseTime)
			assert.Len(t, got.Recent, len(tt.history))
		})
	}
}

func TestBuild_RecentIsCapped(t *testing.T) {
	t.Parallel()

	var history []model.HistoryItem
	for i := range RecentLimit + 5 {
		history = append(history, model.HistoryItem{ID: fmt.Sprint(i), Status: model.StatusResponded})
	}

	got := Build(history)
	assert.Len(t, got.Recent, RecentLimit)
	assert.Equal(t, "0", got.Recent[0].ID)
	assert.Equal(t, RecentLimit+5, got.TotalMessages)
}
