package services

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ResponseSource is the read side of the backend for response lists. Each
// element is one undecoded response record.
type ResponseSource interface {
	ListResponsesByBusiness(ctx context.Context, businessID string) ([]json.RawMessage, error)
	ListResponsesBySurvey(ctx context.Context, surveyID string) ([]json.RawMessage, error)
}

// ResponseOptions tune the standardization pipeline.
type ResponseOptions struct {
	Labels Labels
	// FallbackQuestions maps question IDs to texts for surveys whose
	// question list cannot be loaded.
	FallbackQuestions    map[string]string
	MaxConcurrentFetches int
}

// ResponseService turns raw backend responses into ResponseViews.
type ResponseService struct {
	responses         ResponseSource
	catalog           *CatalogService
	reconciler        *TitleReconciler
	labels            Labels
	fallbackQuestions map[string]string
	log               *zap.Logger
}

func NewResponseService(surveys SurveySource, responses ResponseSource, opts ResponseOptions, log *zap.Logger) *ResponseService {
	if log == nil {
		log = zap.NewNop()
	}
	labels := opts.Labels
	if labels == (Labels{}) {
		labels = DefaultLabels()
	}
	fallback := make(map[string]string, len(opts.FallbackQuestions))
	for k, v := range opts.FallbackQuestions {
		if k != "" && strings.TrimSpace(v) != "" {
			fallback[k] = strings.TrimSpace(v)
		}
	}
	return &ResponseService{
		responses:         responses,
		catalog:           NewCatalogService(surveys, log),
		reconciler:        NewTitleReconciler(surveys, log, opts.MaxConcurrentFetches),
		labels:            labels,
		fallbackQuestions: fallback,
		log:               log,
	}
}

// ListBusinessResponses loads and standardizes every response of a business.
// Only the list fetch itself can fail.
func (s *ResponseService) ListBusinessResponses(ctx context.Context, businessID string) ([]ResponseView, error) {
	if strings.TrimSpace(businessID) == "" {
		return nil, NewInvalidError("business id required")
	}
	raw, err := s.responses.ListResponsesByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	return s.Standardize(ctx, businessID, raw), nil
}

// ListSurveyResponses loads the responses of one survey. businessID may be
// empty, in which case titles come from per-survey fetches only.
func (s *ResponseService) ListSurveyResponses(ctx context.Context, businessID, surveyID string) ([]ResponseView, error) {
	if strings.TrimSpace(surveyID) == "" {
		return nil, NewInvalidError("survey id required")
	}
	raw, err := s.responses.ListResponsesBySurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	return s.Standardize(ctx, businessID, raw), nil
}

// ListCustomerResponses is the customer profile screen: the business
// responses that belong to customerID.
func (s *ResponseService) ListCustomerResponses(ctx context.Context, businessID, customerID string) ([]ResponseView, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, NewInvalidError("customer id required")
	}
	views, err := s.ListBusinessResponses(ctx, businessID)
	if err != nil {
		return nil, err
	}
	out := make([]ResponseView, 0, len(views))
	for _, v := range views {
		if v.Customer.ID == customerID {
			out = append(out, v)
		}
	}
	return out, nil
}

// Standardize runs the whole pipeline: one business survey fetch, the
// concurrent prefetch of unresolved surveys, then per-record assembly.
// The result has the same length and order as raw.
func (s *ResponseService) Standardize(ctx context.Context, businessID string, raw []json.RawMessage) []ResponseView {
	catalog := s.catalog.BuildTitleMap(ctx, businessID)
	return s.StandardizeWith(ctx, catalog, raw)
}

// StandardizeWith is Standardize against a catalog the caller already built.
func (s *ResponseService) StandardizeWith(ctx context.Context, catalog *SurveyCatalog, raw []json.RawMessage) []ResponseView {
	records := s.decodeRecords(raw)
	embedded := make([]EmbeddedSurvey, len(records))
	for i, rec := range records {
		embedded[i] = embeddedSurveyOf(rec)
	}
	catalog = s.reconciler.Prefetch(ctx, catalog, embedded)

	views := make([]ResponseView, len(records))
	for i, rec := range records {
		views[i] = s.buildView(rec, embedded[i], catalog)
	}
	return views
}

// decodeRecords decodes each record on its own. Fields are interpreted
// leniently, so only a record that is not a JSON object degrades to an
// empty one.
func (s *ResponseService) decodeRecords(raw []json.RawMessage) []ResponseRecord {
	out := make([]ResponseRecord, len(raw))
	for i, r := range raw {
		if err := json.Unmarshal(r, &out[i]); err != nil {
			s.log.Debug("malformed response record", zap.Int("index", i), zap.Error(err))
			out[i] = ResponseRecord{}
		}
	}
	return out
}

func (s *ResponseService) buildView(rec ResponseRecord, es EmbeddedSurvey, catalog *SurveyCatalog) ResponseView {
	answers := make([]AnswerView, 0, len(rec.Answers))
	for _, a := range rec.Answers {
		qid := answerQuestionID(a)
		answers = append(answers, AnswerView{
			QuestionID:   qid,
			QuestionText: s.questionText(catalog, es, a, qid),
			Value:        answerValue(a),
		})
	}
	return ResponseView{
		ID:             rec.ResponseID(),
		Survey:         ReconcileTitle(es, catalog, s.labels),
		Customer:       ExtractCustomerInfo(customerRefFor(rec), s.labels),
		Answers:        answers,
		CreatedAt:      timestampOf(rec.CreatedAt),
		RewardPoints:   parsePoints(rec.RewardPoints),
		PointsApproved: approvalState(rec),
	}
}

func (s *ResponseService) questionText(catalog *SurveyCatalog, es EmbeddedSurvey, a AnswerRecord, qid string) string {
	if qid == "" {
		return s.labels.UnknownQuestion
	}
	if !es.Derived {
		if t, ok := catalog.QuestionText(es.ID, qid); ok {
			return t
		}
	}
	for _, q := range es.Questions {
		if q.QuestionID() == qid {
			if t := strings.TrimSpace(q.Label()); t != "" {
				return t
			}
		}
	}
	if t := inlineQuestionText(a); t != "" {
		return t
	}
	if t, ok := s.fallbackQuestions[qid]; ok {
		return t
	}
	return idLabel(s.labels.QuestionPrefix, qid, 6)
}

func answerQuestionID(a AnswerRecord) string {
	if id := rawObjectID(a.QuestionID); id != "" {
		return id
	}
	return rawObjectID(a.Question)
}

// inlineQuestionText reads the text of a populated question object,
// whether the backend put it under "question" or "questionId".
func inlineQuestionText(a AnswerRecord) string {
	for _, raw := range []json.RawMessage{a.Question, a.QuestionID} {
		var q QuestionRecord
		if err := json.Unmarshal(raw, &q); err != nil {
			continue
		}
		if t := strings.TrimSpace(q.Label()); t != "" {
			return t
		}
	}
	return ""
}

// answerValue reduces an answer payload to string, float64 or bool.
// Lists of strings are joined; anything else is kept as compact JSON.
func answerValue(a AnswerRecord) any {
	raw := bytes.TrimSpace(a.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = bytes.TrimSpace(a.Answer)
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	switch val := v.(type) {
	case string, float64, bool:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			str, ok := item.(string)
			if !ok {
				return compactJSON(raw)
			}
			parts = append(parts, str)
		}
		return strings.Join(parts, ", ")
	default:
		return compactJSON(raw)
	}
}

func compactJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp returns the zero time when no layout matches.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Epoch values at or above this are milliseconds.
const epochMillisThreshold = 1e12

// timestampOf accepts a date string or a Unix epoch number in seconds or
// milliseconds.
func timestampOf(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseTimestamp(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return time.Time{}
	}
	if f >= epochMillisThreshold {
		return time.UnixMilli(int64(f)).UTC()
	}
	return time.Unix(int64(f), 0).UTC()
}

// parsePoints accepts a JSON number or a numeric string. Values outside
// the int32 range are clamped and non-finite ones read as 0.
func parsePoints(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0
		}
	}
	return clampPoints(f)
}

func clampPoints(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(math.Round(f))
}

// approvalState reads pointsApproved (bool, or a bool or status string),
// then the legacy pointsStatus. Unknown values mean pending.
func approvalState(rec ResponseRecord) *bool {
	if v, ok := approvalValue(rec.PointsApproved); ok {
		return &v
	}
	if v, ok := approvalValue(rec.PointsStatus); ok {
		return &v
	}
	return nil
}

func approvalValue(raw json.RawMessage) (bool, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, true
	}
	switch strings.ToLower(rawString(raw)) {
	case "true", PointsApproved:
		return true, true
	case "false", PointsRejected:
		return false, true
	}
	return false, false
}
