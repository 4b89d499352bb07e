package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestReconcileTitlePriority(t *testing.T) {
	labels := DefaultLabels()
	catalog := CatalogFromTitles(TitleMap{"s1": "Real Title", "abc": "real title"})

	cases := []struct {
		name string
		es   EmbeddedSurvey
		want SurveyRef
	}{
		{"catalog wins", EmbeddedSurvey{ID: "s1", Title: "Other"}, SurveyRef{ID: "s1", Title: "Real Title"}},
		{"catalog beats doubled embedded", EmbeddedSurvey{ID: "abc", Title: "denemedeneme"}, SurveyRef{ID: "abc", Title: "real title"}},
		{"embedded cleaned", EmbeddedSurvey{ID: "s9", Title: "AbcAbc", Description: " d "}, SurveyRef{ID: "s9", Title: "Abc", Description: "d"}},
		{"placeholder embedded", EmbeddedSurvey{ID: "abc123", Title: "Yanıt Formu"}, SurveyRef{ID: "abc123", Title: "Survey #abc123"}},
		{"long id truncated", EmbeddedSurvey{ID: "0123456789abcdef"}, SurveyRef{ID: "0123456789abcdef", Title: "Survey #01234567"}},
		{"derived id", EmbeddedSurvey{ID: "s1", Derived: true}, SurveyRef{Title: "Survey #s1"}},
		{"nothing", EmbeddedSurvey{}, SurveyRef{Title: "Unknown survey"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ReconcileTitle(tc.es, catalog, labels))
		})
	}
}

func TestEmbeddedSurveyOf(t *testing.T) {
	recs := rawList(`[
		{"survey":"s1"},
		{"survey":{"_id":"s2","title":"T","questions":[{"_id":"q","text":"Q"}]}},
		{"survey":null,"surveyId":{"id":"s3"}},
		{"answers":[{"questionId":""},{"question":{"_id":"qqqqqqqqqqqq"}}]},
		{}
	]`)
	want := []EmbeddedSurvey{
		{ID: "s1"},
		{ID: "s2", Title: "T", Questions: []QuestionRecord{{MongoID: "q", Text: "Q"}}},
		{ID: "s3"},
		{ID: "qqqqqqqq", Derived: true},
		{},
	}
	svc := NewResponseService(nil, nil, ResponseOptions{}, nil)
	for i, rec := range svc.decodeRecords(recs) {
		assert.Equal(t, want[i], embeddedSurveyOf(rec), "record %d", i)
	}
}

func TestPrefetchFetchesEachUnresolvedOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := newStubSurveySource()
	src.byID["s2"] = &SurveyRecord{MongoID: "different", Title: "Second"}
	src.getErr["s5"] = errors.New("backend down")
	r := NewTitleReconciler(src, nil, 4)

	catalog := CatalogFromTitles(TitleMap{"s1": "First"})
	surveys := []EmbeddedSurvey{
		{ID: "s1"},
		{ID: "s2", Title: "Yanıt Formu"},
		{ID: "s2"},
		{ID: "abcdefgh", Derived: true},
		{ID: "s4", Title: "Embedded"},
		{ID: "s5"},
		{},
	}
	out := r.Prefetch(context.Background(), catalog, surveys)

	assert.Equal(t, map[string]int{"s2": 1, "s5": 1}, src.getCalls)
	title, ok := out.Title("s2")
	require.True(t, ok, "fetched survey is indexed under the requested id")
	assert.Equal(t, "Second", title)
	_, ok = out.Title("different")
	assert.False(t, ok)
	_, ok = catalog.Title("s2")
	assert.False(t, ok, "input catalog must not change")

	labels := DefaultLabels()
	assert.Equal(t, "Second", ReconcileTitle(surveys[1], out, labels).Title)
	assert.Equal(t, "Second", ReconcileTitle(surveys[2], out, labels).Title)
	assert.Equal(t, "Survey #s5", ReconcileTitle(surveys[5], out, labels).Title)
}

type slowSurveySource struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *slowSurveySource) ListSurveysByBusiness(context.Context, string) ([]SurveyRecord, error) {
	return nil, nil
}

func (s *slowSurveySource) GetSurvey(_ context.Context, id string) (*SurveyRecord, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return &SurveyRecord{MongoID: id, Title: "Title " + id}, nil
}

func TestPrefetchRespectsConcurrencyLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &slowSurveySource{}
	r := NewTitleReconciler(src, nil, 2)
	surveys := make([]EmbeddedSurvey, 10)
	for i := range surveys {
		surveys[i] = EmbeddedSurvey{ID: fmt.Sprintf("s%d", i)}
	}
	out := r.Prefetch(context.Background(), nil, surveys)

	assert.Equal(t, 10, out.Len())
	assert.LessOrEqual(t, src.peak.Load(), int32(2))
}

func TestUnresolvedIDsEmpty(t *testing.T) {
	assert.Empty(t, unresolvedIDs(nil, nil))
}
