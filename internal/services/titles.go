package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// Titles the backend seeds into responses instead of the real survey title.
var placeholderTitles = map[string]struct{}{
	"Yanıt Formu":  {},
	"denemedeneme": {},
}

// TitleMap maps survey ID to a clean, non-placeholder title.
type TitleMap map[string]string

func normalizeTitle(s string) string { return strings.TrimSpace(norm.NFC.String(s)) }

// IsPlaceholderTitle reports whether title is empty or one of the known
// placeholder sentinels.
func IsPlaceholderTitle(title string) bool {
	t := normalizeTitle(title)
	if t == "" {
		return true
	}
	_, ok := placeholderTitles[t]
	return ok
}

// CollapseDuplicateHalf undoes the backend bug that stores a title twice
// back to back: "FooFoo" becomes "Foo", "FooBar" is returned unchanged.
// The split is on runes, so odd-length titles never collapse.
func CollapseDuplicateHalf(title string) string {
	r := []rune(title)
	if len(r) == 0 || len(r)%2 != 0 {
		return title
	}
	half := len(r) / 2
	if string(r[:half]) == string(r[half:]) {
		return string(r[:half])
	}
	return title
}

// cleanTitle returns the displayable form of a backend title, or "" when
// nothing usable is left.
func cleanTitle(title string) string {
	t := normalizeTitle(title)
	if IsPlaceholderTitle(t) {
		return ""
	}
	t = CollapseDuplicateHalf(t)
	if IsPlaceholderTitle(t) {
		return ""
	}
	return t
}

// SurveyCatalog is the per-fetch lookup of survey titles, descriptions and
// question texts. It is never mutated after construction; withSurveys
// returns an extended copy.
type SurveyCatalog struct {
	titles       TitleMap
	descriptions map[string]string
	questions    map[string]map[string]string
}

func newEmptyCatalog() *SurveyCatalog {
	return &SurveyCatalog{
		titles:       TitleMap{},
		descriptions: map[string]string{},
		questions:    map[string]map[string]string{},
	}
}

// NewSurveyCatalog indexes surveys. Records without an ID are skipped and
// records without a usable title contribute questions only.
func NewSurveyCatalog(surveys []SurveyRecord) *SurveyCatalog {
	c := newEmptyCatalog()
	c.add(surveys)
	return c
}

// CatalogFromTitles builds a catalog holding only titles.
func CatalogFromTitles(titles TitleMap) *SurveyCatalog {
	c := newEmptyCatalog()
	for id, title := range titles {
		if t := cleanTitle(title); id != "" && t != "" {
			c.titles[id] = t
		}
	}
	return c
}

func (c *SurveyCatalog) add(surveys []SurveyRecord) {
	for _, sv := range surveys {
		id := sv.SurveyID()
		if id == "" {
			continue
		}
		if t := cleanTitle(sv.Title); t != "" {
			c.titles[id] = t
		}
		if d := strings.TrimSpace(sv.Description); d != "" {
			c.descriptions[id] = d
		}
		if len(sv.Questions) > 0 {
			qs := make(map[string]string, len(sv.Questions))
			for _, q := range sv.Questions {
				if qid, text := q.QuestionID(), strings.TrimSpace(q.Label()); qid != "" && text != "" {
					qs[qid] = text
				}
			}
			c.questions[id] = qs
		}
	}
}

func (c *SurveyCatalog) withSurveys(surveys []SurveyRecord) *SurveyCatalog {
	out := newEmptyCatalog()
	if c != nil {
		for k, v := range c.titles {
			out.titles[k] = v
		}
		for k, v := range c.descriptions {
			out.descriptions[k] = v
		}
		for k, v := range c.questions {
			out.questions[k] = v
		}
	}
	out.add(surveys)
	return out
}

func (c *SurveyCatalog) Title(surveyID string) (string, bool) {
	if c == nil || surveyID == "" {
		return "", false
	}
	t, ok := c.titles[surveyID]
	return t, ok
}

func (c *SurveyCatalog) Description(surveyID string) string {
	if c == nil {
		return ""
	}
	return c.descriptions[surveyID]
}

func (c *SurveyCatalog) QuestionText(surveyID, questionID string) (string, bool) {
	if c == nil {
		return "", false
	}
	t, ok := c.questions[surveyID][questionID]
	return t, ok
}

// Titles returns a copy of the title map.
func (c *SurveyCatalog) Titles() TitleMap {
	out := TitleMap{}
	if c == nil {
		return out
	}
	for k, v := range c.titles {
		out[k] = v
	}
	return out
}

func (c *SurveyCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.titles)
}

// SurveySource is the read side of the backend used to resolve surveys.
type SurveySource interface {
	ListSurveysByBusiness(ctx context.Context, businessID string) ([]SurveyRecord, error)
	GetSurvey(ctx context.Context, surveyID string) (*SurveyRecord, error)
}

// CatalogService builds the survey catalog for one business.
type CatalogService struct {
	source SurveySource
	log    *zap.Logger
}

func NewCatalogService(source SurveySource, log *zap.Logger) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{source: source, log: log}
}

// BuildTitleMap fetches every survey of the business and indexes it. It
// never fails: without a business ID or on a fetch error the catalog is
// empty and titles degrade downstream.
func (s *CatalogService) BuildTitleMap(ctx context.Context, businessID string) *SurveyCatalog {
	if strings.TrimSpace(businessID) == "" || s.source == nil {
		return newEmptyCatalog()
	}
	surveys, err := s.source.ListSurveysByBusiness(ctx, businessID)
	if err != nil {
		s.log.Warn("survey list unavailable, titles will degrade",
			zap.String("business_id", businessID), zap.Error(err))
		return newEmptyCatalog()
	}
	c := NewSurveyCatalog(surveys)
	s.log.Debug("survey catalog built",
		zap.String("business_id", businessID), zap.Int("surveys", len(surveys)), zap.Int("titles", c.Len()))
	return c
}
