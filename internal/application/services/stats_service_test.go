package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eventhub/internal/application/rules"
	"github.com/zatekoja/eventhub/internal/domain/entities"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

func day(s string) time.Time {
	t, err := time.Parse(entities.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAttendanceCounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	event := f.createEvent(t, alice, "Picnic", f.clock.Now().Add(24*time.Hour), true)

	for id, status := range map[entities.Identity]string{alice: "going", bob: "going", carol: "maybe"} {
		_, err := f.rsvps.UpsertRSVP(ctx, id, event.ID, rules.RSVPInput{Status: status})
		require.NoError(t, err)
	}

	counts, err := f.agg.AttendanceCounts(ctx, entities.Anonymous, event.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.AttendanceCounts{Going: 2, Maybe: 1, NotGoing: 0}, counts)
}

func TestAttendanceCounts_HiddenEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	private := f.createEvent(t, alice, "Board Meeting", f.clock.Now().Add(24*time.Hour), false)

	_, err := f.agg.AttendanceCounts(ctx, bob, private.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))

	_, err = f.agg.AttendanceCounts(ctx, entities.Anonymous, private.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, err = f.agg.AttendanceCounts(ctx, alice, private.ID)
	assert.NoError(t, err)
}

func TestAverageRating(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	event := f.createEvent(t, alice, "Picnic", f.clock.Now().Add(-48*time.Hour), true)

	summary, err := f.agg.AverageRating(ctx, bob, event.ID)
	require.NoError(t, err)
	assert.Nil(t, summary.Average)
	assert.Equal(t, 0, summary.Count)

	for id, rating := range map[entities.Identity]int{alice: 5, bob: 3, carol: 4} {
		_, err := f.reviews.SubmitReview(ctx, id, event.ID, rules.ReviewInput{Rating: rating, Comment: "ok"})
		require.NoError(t, err)
	}

	summary, err = f.agg.AverageRating(ctx, bob, event.ID)
	require.NoError(t, err)
	require.NotNil(t, summary.Average)
	assert.Equal(t, 4.0, *summary.Average)
	assert.Equal(t, 3, summary.Count)
}

func TestAverageRating_RoundsToOneDecimal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	event := f.createEvent(t, alice, "Picnic", f.clock.Now().Add(-48*time.Hour), true)

	for id, rating := range map[entities.Identity]int{alice: 5, bob: 4, carol: 4} {
		_, err := f.reviews.SubmitReview(ctx, id, event.ID, rules.ReviewInput{Rating: rating, Comment: "ok"})
		require.NoError(t, err)
	}

	summary, err := f.agg.AverageRating(ctx, bob, event.ID)
	require.NoError(t, err)
	require.NotNil(t, summary.Average)
	assert.Equal(t, 4.3, *summary.Average)
}

func TestTrends_ZeroFilledDailyBuckets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.createEvent(t, alice, "New Year Walk", time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), true)

	buckets, err := f.agg.Trends(ctx, bob, day("2024-01-01"), day("2024-01-03"), entities.TrendMetricEvents)
	require.NoError(t, err)
	require.Len(t, buckets, 3)

	got := map[string]int{}
	var keys []string
	for _, b := range buckets {
		keys = append(keys, b.DateKey())
		got[b.DateKey()] = b.Count
	}
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, keys)
	assert.Equal(t, map[string]int{"2024-01-01": 0, "2024-01-02": 1, "2024-01-03": 0}, got)
}

func TestTrends_ExcludesHiddenRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	now := f.clock.Now()
	public := f.createEvent(t, alice, "Picnic", now.Add(24*time.Hour), true)
	private := f.createEvent(t, alice, "Board Meeting", now.Add(24*time.Hour), false)

	_, err := f.rsvps.UpsertRSVP(ctx, bob, public.ID, rules.RSVPInput{Status: "going"})
	require.NoError(t, err)
	_, err = f.rsvps.UpsertRSVP(ctx, alice, private.ID, rules.RSVPInput{Status: "going"})
	require.NoError(t, err)

	today := now.Format(entities.DateLayout)
	tomorrow := now.Add(24 * time.Hour).Format(entities.DateLayout)

	rsvps, err := f.agg.Trends(ctx, carol, day(today), day(today), entities.TrendMetricRSVPs)
	require.NoError(t, err)
	require.Len(t, rsvps, 1)
	assert.Equal(t, 1, rsvps[0].Count)

	rsvps, err = f.agg.Trends(ctx, alice, day(today), day(today), entities.TrendMetricRSVPs)
	require.NoError(t, err)
	assert.Equal(t, 2, rsvps[0].Count)

	evs, err := f.agg.Trends(ctx, entities.Anonymous, day(tomorrow), day(tomorrow), entities.TrendMetricEvents)
	require.NoError(t, err)
	assert.Equal(t, 1, evs[0].Count)
}

func TestTrends_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.agg.Trends(ctx, bob, day("2024-01-03"), day("2024-01-01"), entities.TrendMetricEvents)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = f.agg.Trends(ctx, bob, day("2024-01-01"), day("2025-12-31"), entities.TrendMetricEvents)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = f.agg.Trends(ctx, bob, day("2024-01-01"), day("2024-01-02"), entities.TrendMetric("reviews"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	buckets, err := f.agg.Trends(ctx, bob, day("2024-01-01"), day("2024-01-01"), entities.TrendMetricRSVPs)
	require.NoError(t, err)
	assert.Len(t, buckets, 1)
}
