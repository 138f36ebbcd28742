package entities

import "time"

// AttendanceCounts is the grouped RSVP count of one event.
type AttendanceCounts struct {
	Going    int `json:"going"`
	Maybe    int `json:"maybe"`
	NotGoing int `json:"not_going"`
}

// Add increments the bucket for status by n.
func (c *AttendanceCounts) Add(status RSVPStatus, n int) {
	switch status {
	case RSVPStatusGoing:
		c.Going += n
	case RSVPStatusMaybe:
		c.Maybe += n
	case RSVPStatusNotGoing:
		c.NotGoing += n
	}
}

// RatingSummary is the average rating of one event. A nil Average means
// there is no data.
type RatingSummary struct {
	Average *float64 `json:"average"`
	Count   int      `json:"count"`
}

// HasData reports whether at least one review exists.
func (r RatingSummary) HasData() bool {
	return r.Average != nil
}

// TrendMetric selects what a trend series counts.
type TrendMetric string

const (
	TrendMetricEvents TrendMetric = "events"
	TrendMetricRSVPs  TrendMetric = "rsvps"
)

// Valid reports whether m is a known metric.
func (m TrendMetric) Valid() bool {
	return m == TrendMetricEvents || m == TrendMetricRSVPs
}

// TrendBucket is one day of a trend series.
type TrendBucket struct {
	Date  time.Time `json:"-"`
	Count int       `json:"count"`
}

// DateKey renders the bucket date as YYYY-MM-DD.
func (b TrendBucket) DateKey() string {
	return b.Date.Format(DateLayout)
}

// DateLayout is the wire format of bucket dates.
const DateLayout = "2006-01-02"
