package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratingView(id, survey, customer string, day int, ratings ...any) ResponseView {
	v := ResponseView{
		ID:        id,
		Survey:    SurveyRef{ID: survey, Title: "Title " + survey},
		Customer:  CustomerInfo{ID: customer, Name: "C"},
		CreatedAt: time.Date(2024, 5, day, 12, 0, 0, 0, time.UTC),
	}
	for i, r := range ratings {
		qid := string(rune('a' + i))
		v.Answers = append(v.Answers, AnswerView{QuestionID: qid, QuestionText: "Q " + qid, Value: r})
	}
	return v
}

func TestSummarize(t *testing.T) {
	views := []ResponseView{
		ratingView("r1", "s1", "c1", 1, float64(5), "4"),
		ratingView("r2", "s1", "c2", 1, float64(3), float64(2)),
		ratingView("r3", "s1", "c1", 2, 4.5, "great"),
		ratingView("r4", "s2", "", 3, float64(9)),
	}
	sum := Summarize(views)

	assert.Equal(t, 4, sum.TotalResponses)
	assert.Equal(t, 2, sum.UniqueCustomers)
	assert.Equal(t, []AnalyticsTimeseries{{"2024-05-01", 2}, {"2024-05-02", 1}, {"2024-05-03", 1}}, sum.Timeseries)
	require.Len(t, sum.Surveys, 2)

	s1 := sum.Surveys[0]
	assert.Equal(t, "s1", s1.SurveyID)
	assert.Equal(t, 3, s1.Responses)
	require.Len(t, s1.Questions, 2)
	assert.Equal(t, []int{0, 0, 1, 0, 1}, s1.Questions[0].Histogram)
	assert.Equal(t, 2, s1.Questions[0].Total)
	assert.InDelta(t, 4.0, s1.Questions[0].Mean, 1e-9)
	assert.Equal(t, []int{0, 1, 0, 1, 0}, s1.Questions[1].Histogram)
	assert.Equal(t, 2, s1.N, "r3 rated nothing usable")

	s2 := sum.Surveys[1]
	assert.Empty(t, s2.Questions)
	assert.Zero(t, s2.Consistency)
}

func TestRatingConsistency(t *testing.T) {
	assert.InDelta(t, 1.0, RatingConsistency([][]float64{{1, 2}, {2, 3}, {3, 4}}), 1e-9)
	assert.Zero(t, RatingConsistency(nil))
	assert.Zero(t, RatingConsistency([][]float64{{1}, {2}}))
	assert.Zero(t, RatingConsistency([][]float64{{3, 3}, {3, 3}}))
	assert.Zero(t, RatingConsistency([][]float64{{1, 2}, {3}}))
	// negative alpha clamps to zero
	assert.Zero(t, RatingConsistency([][]float64{{1, 4}, {2, 2}, {3, 1}}))

	got := RatingConsistency([][]float64{{4, 5, 4}, {2, 3, 2}, {5, 5, 4}, {1, 2, 2}})
	assert.False(t, math.IsNaN(got))
	assert.Greater(t, got, 0.8)
	assert.LessOrEqual(t, got, 1.0)
}

func TestAnalyticsServiceSummary(t *testing.T) {
	_, _, pipeline := newPipelineFixture()
	svc := NewAnalyticsService(pipeline)

	sum, err := svc.Summary(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", sum.BusinessID)
	assert.Equal(t, 6, sum.TotalResponses)
	assert.Equal(t, 2, sum.UniqueCustomers)
	assert.Equal(t, 1, sum.Rewards.Approved)

	_, err = svc.Summary(context.Background(), "")
	assert.Error(t, err)
}
