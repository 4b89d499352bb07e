package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestCollapseDuplicateHalf(t *testing.T) {
	cases := map[string]string{
		"FooFoo":            "Foo",
		"FooBar":            "FooBar",
		"Foo":               "Foo",
		"":                  "",
		"aa":                "a",
		"ŞikayetŞikayet":    "Şikayet",
		"Memnuniyet Anketi": "Memnuniyet Anketi",
		"abcabcabc":         "abcabcabc",
		"Anket 1Anket 1":    "Anket 1",
	}
	for in, want := range cases {
		assert.Equal(t, want, CollapseDuplicateHalf(in), "input %q", in)
	}
}

func TestIsPlaceholderTitle(t *testing.T) {
	assert.True(t, IsPlaceholderTitle(""))
	assert.True(t, IsPlaceholderTitle("   "))
	assert.True(t, IsPlaceholderTitle("Yanıt Formu"))
	assert.True(t, IsPlaceholderTitle("  denemedeneme "))
	assert.False(t, IsPlaceholderTitle("Customer Survey"))
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "", cleanTitle("Yanıt FormuYanıt Formu"))
	assert.Equal(t, "Feedback", cleanTitle(" FeedbackFeedback "))
	// decomposed input compares equal to the composed form
	decomposed := norm.NFD.String("Şikayet")
	assert.Equal(t, "Şikayet", cleanTitle(decomposed+decomposed))
}

func TestNewSurveyCatalogSkipsUnusable(t *testing.T) {
	c := NewSurveyCatalog([]SurveyRecord{
		{MongoID: "s1", Title: "Memnuniyet", Questions: []QuestionRecord{{MongoID: "q1", Text: "Nasıldı?"}, {PlainID: "q2", Title: "Puan"}}},
		{PlainID: "s2", Title: "Yanıt Formu", Description: "desc"},
		{Title: "No id"},
	})
	require.Equal(t, 1, c.Len())
	title, ok := c.Title("s1")
	require.True(t, ok)
	assert.Equal(t, "Memnuniyet", title)
	_, ok = c.Title("s2")
	assert.False(t, ok)
	assert.Equal(t, "desc", c.Description("s2"))
	q, ok := c.QuestionText("s1", "q2")
	assert.True(t, ok)
	assert.Equal(t, "Puan", q)
}

func TestSurveyCatalogWithSurveysCopies(t *testing.T) {
	base := CatalogFromTitles(TitleMap{"a": "Alpha", "b": "denemedeneme"})
	ext := base.withSurveys([]SurveyRecord{{MongoID: "c", Title: "Gamma"}})
	assert.Equal(t, 1, base.Len())
	assert.Equal(t, TitleMap{"a": "Alpha", "c": "Gamma"}, ext.Titles())

	var nilCatalog *SurveyCatalog
	_, ok := nilCatalog.Title("a")
	assert.False(t, ok)
	assert.Equal(t, 0, nilCatalog.Len())
}

func TestBuildTitleMap(t *testing.T) {
	src := newStubSurveySource()
	src.byBusiness["b1"] = []SurveyRecord{{MongoID: "s1", Title: "Alpha"}, {MongoID: "s2", Title: "BetaBeta"}}
	svc := NewCatalogService(src, nil)

	c := svc.BuildTitleMap(context.Background(), "b1")
	assert.Equal(t, TitleMap{"s1": "Alpha", "s2": "Beta"}, c.Titles())

	assert.Equal(t, 0, svc.BuildTitleMap(context.Background(), "").Len())
	assert.Equal(t, 1, src.listCalls, "empty business id must not hit the backend")

	src.listErr = errors.New("boom")
	assert.Equal(t, 0, svc.BuildTitleMap(context.Background(), "b1").Len())
}
