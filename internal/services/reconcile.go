package services

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EmbeddedSurvey is the survey reference a response carries. Derived is
// set when the ID was guessed from answer question IDs; such IDs are only
// good for a label and are never fetched.
type EmbeddedSurvey struct {
	ID          string
	Title       string
	Description string
	Questions   []QuestionRecord
	Derived     bool
}

func embeddedSurveyOf(rec ResponseRecord) EmbeddedSurvey {
	var es EmbeddedSurvey
	if raw := bytes.TrimSpace(rec.Survey); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		var id string
		if err := json.Unmarshal(raw, &id); err == nil {
			es.ID = strings.TrimSpace(id)
		} else {
			var sv SurveyRecord
			if err := json.Unmarshal(raw, &sv); err == nil {
				es = EmbeddedSurvey{
					ID:          strings.TrimSpace(sv.SurveyID()),
					Title:       sv.Title,
					Description: sv.Description,
					Questions:   sv.Questions,
				}
			}
		}
	}
	if es.ID == "" {
		es.ID = rawObjectID(rec.SurveyID)
	}
	if es.ID == "" {
		if qid := firstAnswerQuestionID(rec.Answers); qid != "" {
			es.ID = truncateRunes(qid, 8)
			es.Derived = true
		}
	}
	return es
}

// rawObjectID reads an ID that is a bare string or number, or an object
// with "_id", "id" or an extended-JSON "$oid".
func rawObjectID(raw json.RawMessage) string {
	if s := rawString(raw); s != "" {
		return s
	}
	var obj struct {
		MongoID json.RawMessage `json:"_id"`
		PlainID json.RawMessage `json:"id"`
		OID     string          `json:"$oid"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(raw), &obj); err == nil {
		return firstNonEmpty(rawString(obj.MongoID), strings.TrimSpace(obj.OID), rawObjectIDOf(obj.MongoID), rawString(obj.PlainID))
	}
	return ""
}

// rawObjectIDOf unwraps one level of {"_id":{"$oid":...}}.
func rawObjectIDOf(raw json.RawMessage) string {
	var obj struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(raw), &obj); err != nil {
		return ""
	}
	return strings.TrimSpace(obj.OID)
}

// rawString reads a JSON string or number as trimmed text. Anything else,
// null included, is "".
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func firstAnswerQuestionID(answers []AnswerRecord) string {
	for _, a := range answers {
		if id := answerQuestionID(a); id != "" {
			return id
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

// TitleReconciler turns embedded survey references into clean SurveyRefs,
// fetching surveys the catalog cannot name.
type TitleReconciler struct {
	source        SurveySource
	log           *zap.Logger
	maxConcurrent int
}

func NewTitleReconciler(source SurveySource, log *zap.Logger, maxConcurrent int) *TitleReconciler {
	if log == nil {
		log = zap.NewNop()
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &TitleReconciler{source: source, log: log, maxConcurrent: maxConcurrent}
}

// unresolvedIDs lists, once each and in first-seen order, the survey IDs
// that neither the catalog nor the response itself can title.
func unresolvedIDs(catalog *SurveyCatalog, surveys []EmbeddedSurvey) []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, es := range surveys {
		if es.ID == "" || es.Derived {
			continue
		}
		if _, ok := catalog.Title(es.ID); ok {
			continue
		}
		if cleanTitle(es.Title) != "" {
			continue
		}
		if _, dup := seen[es.ID]; dup {
			continue
		}
		seen[es.ID] = struct{}{}
		ids = append(ids, es.ID)
	}
	return ids
}

// Prefetch fetches every unresolved survey concurrently and returns the
// catalog extended with what came back. It waits for all fetches to
// settle; failed fetches are logged and leave the survey unresolved.
func (r *TitleReconciler) Prefetch(ctx context.Context, catalog *SurveyCatalog, surveys []EmbeddedSurvey) *SurveyCatalog {
	ids := unresolvedIDs(catalog, surveys)
	if len(ids) == 0 || r.source == nil {
		return catalog
	}
	fetched := make([]SurveyRecord, len(ids))
	ok := make([]bool, len(ids))
	var g errgroup.Group
	g.SetLimit(r.maxConcurrent)
	for i, id := range ids {
		g.Go(func() error {
			sv, err := r.source.GetSurvey(ctx, id)
			if err != nil {
				r.log.Warn("survey fetch failed", zap.String("survey_id", id), zap.Error(err))
				return nil
			}
			if sv == nil {
				return nil
			}
			rec := *sv
			rec.MongoID, rec.PlainID = id, ""
			fetched[i], ok[i] = rec, true
			return nil
		})
	}
	_ = g.Wait()

	records := make([]SurveyRecord, 0, len(ids))
	for i := range fetched {
		if ok[i] {
			records = append(records, fetched[i])
		}
	}
	r.log.Debug("surveys prefetched", zap.Int("requested", len(ids)), zap.Int("resolved", len(records)))
	return catalog.withSurveys(records)
}

// ReconcileTitle resolves the display title: catalog first, then the
// embedded title, then an ID-derived label, then the unknown-survey label.
func ReconcileTitle(es EmbeddedSurvey, catalog *SurveyCatalog, labels Labels) SurveyRef {
	ref := SurveyRef{Description: strings.TrimSpace(es.Description)}
	if !es.Derived {
		ref.ID = es.ID
		if d := catalog.Description(es.ID); d != "" {
			ref.Description = d
		}
	}
	if t, ok := catalog.Title(ref.ID); ok {
		ref.Title = t
		return ref
	}
	if t := cleanTitle(es.Title); t != "" {
		ref.Title = t
		return ref
	}
	if es.ID != "" {
		ref.Title = idLabel(labels.SurveyPrefix, es.ID, 8)
		return ref
	}
	ref.Title = labels.UnknownSurvey
	return ref
}
