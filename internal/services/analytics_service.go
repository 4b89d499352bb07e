package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
)

// Ratings are numeric answers in [ratingMin, ratingMax].
const (
	ratingMin = 1
	ratingMax = 5
)

type AnalyticsQuestion struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	Histogram []int   `json:"histogram"`
	Total     int     `json:"total"`
	Mean      float64 `json:"mean"`
}

type AnalyticsSurvey struct {
	SurveyID    string              `json:"survey_id"`
	Title       string              `json:"title"`
	Responses   int                 `json:"responses"`
	Questions   []AnalyticsQuestion `json:"questions"`
	Consistency float64             `json:"consistency"`
	N           int                 `json:"n"`
}

type AnalyticsTimeseries struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type AnalyticsSummary struct {
	BusinessID      string                `json:"business_id"`
	TotalResponses  int                   `json:"total_responses"`
	UniqueCustomers int                   `json:"unique_customers"`
	Rewards         RewardsSummary        `json:"rewards"`
	Surveys         []AnalyticsSurvey     `json:"surveys"`
	Timeseries      []AnalyticsTimeseries `json:"timeseries"`
}

type AnalyticsService struct {
	responses *ResponseService
}

func NewAnalyticsService(responses *ResponseService) *AnalyticsService {
	return &AnalyticsService{responses: responses}
}

func (s *AnalyticsService) Summary(ctx context.Context, businessID string) (*AnalyticsSummary, error) {
	views, err := s.responses.ListBusinessResponses(ctx, businessID)
	if err != nil {
		return nil, err
	}
	sum := Summarize(views)
	sum.BusinessID = businessID
	return sum, nil
}

// Summarize computes analytics over already standardized views.
func Summarize(views []ResponseView) *AnalyticsSummary {
	customers := map[string]struct{}{}
	countsByDay := map[string]int{}
	bySurvey := map[string][]ResponseView{}
	var surveyOrder []string
	for _, v := range views {
		if v.Customer.ID != "" {
			customers[v.Customer.ID] = struct{}{}
		}
		if !v.CreatedAt.IsZero() {
			countsByDay[v.CreatedAt.UTC().Format("2006-01-02")]++
		}
		key := v.Survey.ID
		if key == "" {
			key = v.Survey.Title
		}
		if _, seen := bySurvey[key]; !seen {
			surveyOrder = append(surveyOrder, key)
		}
		bySurvey[key] = append(bySurvey[key], v)
	}
	surveys := make([]AnalyticsSurvey, 0, len(surveyOrder))
	for _, key := range surveyOrder {
		surveys = append(surveys, summarizeSurvey(bySurvey[key]))
	}
	sort.SliceStable(surveys, func(i, j int) bool { return surveys[i].Responses > surveys[j].Responses })
	return &AnalyticsSummary{
		TotalResponses:  len(views),
		UniqueCustomers: len(customers),
		Rewards:         SummarizeRewards(views),
		Surveys:         surveys,
		Timeseries:      buildTimeseries(countsByDay),
	}
}

func summarizeSurvey(views []ResponseView) AnalyticsSurvey {
	out := AnalyticsSurvey{SurveyID: views[0].Survey.ID, Title: views[0].Survey.Title, Responses: len(views)}
	index := map[string]int{}
	rows := make([]map[string]float64, 0, len(views))
	for _, v := range views {
		row := map[string]float64{}
		for _, a := range v.Answers {
			score, ok := ratingValue(a.Value)
			if !ok || a.QuestionID == "" {
				continue
			}
			i, seen := index[a.QuestionID]
			if !seen {
				i = len(out.Questions)
				index[a.QuestionID] = i
				out.Questions = append(out.Questions, AnalyticsQuestion{
					ID:        a.QuestionID,
					Text:      a.QuestionText,
					Histogram: make([]int, ratingMax-ratingMin+1),
				})
			}
			q := &out.Questions[i]
			q.Histogram[score-ratingMin]++
			q.Mean += float64(score)
			q.Total++
			row[a.QuestionID] = float64(score)
		}
		rows = append(rows, row)
	}
	ids := make([]string, 0, len(out.Questions))
	for i := range out.Questions {
		if out.Questions[i].Total > 0 {
			out.Questions[i].Mean /= float64(out.Questions[i].Total)
		}
		ids = append(ids, out.Questions[i].ID)
	}
	if out.Questions == nil {
		out.Questions = []AnalyticsQuestion{}
	}
	matrix := completeRows(ids, rows)
	out.Consistency = RatingConsistency(matrix)
	out.N = len(matrix)
	return out
}

// ratingValue accepts whole numbers in the rating range, as numbers or numeric strings.
func ratingValue(v any) (int, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if f != float64(int(f)) || f < ratingMin || f > ratingMax {
		return 0, false
	}
	return int(f), true
}

// completeRows keeps only responses that rated every question.
func completeRows(ids []string, rows []map[string]float64) [][]float64 {
	matrix := make([][]float64, 0, len(rows))
	for _, m := range rows {
		row := make([]float64, 0, len(ids))
		for _, id := range ids {
			v, ok := m[id]
			if !ok {
				break
			}
			row = append(row, v)
		}
		if len(row) == len(ids) && len(ids) > 0 {
			matrix = append(matrix, row)
		}
	}
	return matrix
}

func buildTimeseries(counts map[string]int) []AnalyticsTimeseries {
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]AnalyticsTimeseries, 0, len(days))
	for _, d := range days {
		out = append(out, AnalyticsTimeseries{Date: d, Count: counts[d]})
	}
	return out
}

// RatingConsistency is Cronbach's alpha over a [responses][questions]
// matrix, using population variance. Fewer than two questions, ragged
// rows or zero total variance give 0; the result is clamped to [0, 1].
func RatingConsistency(matrix [][]float64) float64 {
	n := len(matrix)
	if n == 0 {
		return 0
	}
	k := len(matrix[0])
	if k < 2 {
		return 0
	}
	totals := make([]float64, n)
	var itemVarSum float64
	for j := 0; j < k; j++ {
		col := make([]float64, n)
		for i, row := range matrix {
			if len(row) != k {
				return 0
			}
			col[i] = row[j]
			totals[i] += row[j]
		}
		itemVarSum += populationVariance(col)
	}
	totalVar := populationVariance(totals)
	if totalVar == 0 {
		return 0
	}
	kf := float64(k)
	alpha := (kf / (kf - 1)) * (1 - itemVarSum/totalVar)
	switch {
	case alpha < 0:
		return 0
	case alpha > 1:
		return 1
	}
	return alpha
}

func populationVariance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum / float64(len(xs))
}
