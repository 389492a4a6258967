package report

import (
	"fmt"
	"math"
	"time"

	"ReplyDesk/internal/model"
)

// RecentLimit caps the history entries carried in a report.
const RecentLimit = 20

// Unknown is shown when no average response time can be computed.
const Unknown = "n/d"

// Stats summarizes desk usage.
type Stats struct {
	TotalMessages   int                 `json:"total_messages"`
	Responded       int                 `json:"responded"`
	Pending         int                 `json:"pending"`
	ResponseRate    string              `json:"response_rate"`
	AvgResponseTime string              `json:"avg_response_time"`
	Recent          []model.HistoryItem `json:"recent"`
}

// Build computes Stats from a newest-first history.
func Build(history []model.HistoryItem) Stats {
	st := Stats{TotalMessages: len(history), Recent: []model.HistoryItem{}}

	var total time.Duration
	var timed int
	for _, item := range history {
		switch item.Status {
		case model.StatusResponded:
			st.Responded++
		case model.StatusPending:
			st.Pending++
		}
		if item.ReceivedAt != nil {
			if d := item.Timestamp.Sub(*item.ReceivedAt); d >= 0 {
				total += d
				timed++
			}
		}
	}

	st.ResponseRate = "0%"
	if st.TotalMessages > 0 {
		st.ResponseRate = fmt.Sprintf("%d%%", int(math.Round(100*float64(st.Responded)/float64(st.TotalMessages))))
	}

	st.AvgResponseTime = Unknown
	if timed > 0 {
		st.AvgResponseTime = formatDuration(total / time.Duration(timed))
	}

	n := min(len(history), RecentLimit)
	st.Recent = append(st.Recent, history[:n]...)
	return st
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Round(time.Second)/time.Second))
	}
	return fmt.Sprintf("%dmin", int(d.Round(time.Minute)/time.Minute))
}
