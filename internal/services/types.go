package services

import (
	"encoding/json"
	"time"
)

// SurveyRecord is a survey as the backend returns it. Older deployments
// send "_id", newer ones "id".
type SurveyRecord struct {
	MongoID     string           `json:"_id,omitempty"`
	PlainID     string           `json:"id,omitempty"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Questions   []QuestionRecord `json:"questions,omitempty"`
	Business    json.RawMessage  `json:"business,omitempty"`
}

func (s SurveyRecord) SurveyID() string { return firstNonEmpty(s.MongoID, s.PlainID) }

type QuestionRecord struct {
	MongoID string `json:"_id,omitempty"`
	PlainID string `json:"id,omitempty"`
	Text    string `json:"text,omitempty"`
	Title   string `json:"title,omitempty"`
	Type    string `json:"type,omitempty"`
}

func (q QuestionRecord) QuestionID() string { return firstNonEmpty(q.MongoID, q.PlainID) }

// Label is the display text of the question; "text" wins over "title".
func (q QuestionRecord) Label() string { return firstNonEmpty(q.Text, q.Title) }

// ResponseRecord is one raw response. The backend is loose about types,
// so every field except the ID pair and answers stays raw JSON and is
// interpreted by the pipeline; a mistyped field never fails the record.
type ResponseRecord struct {
	MongoID        json.RawMessage `json:"_id"`
	PlainID        json.RawMessage `json:"id"`
	Survey         json.RawMessage `json:"survey"`
	SurveyID       json.RawMessage `json:"surveyId"`
	Customer       json.RawMessage `json:"customer"`
	User           json.RawMessage `json:"user"`
	UserID         json.RawMessage `json:"userId"`
	CustomerName   json.RawMessage `json:"customerName"`
	CustomerEmail  json.RawMessage `json:"customerEmail"`
	CustomerPhone  json.RawMessage `json:"customerPhone"`
	Answers        AnswerList      `json:"answers"`
	CreatedAt      json.RawMessage `json:"createdAt"`
	RewardPoints   json.RawMessage `json:"rewardPoints"`
	PointsApproved json.RawMessage `json:"pointsApproved"`
	PointsStatus   json.RawMessage `json:"pointsStatus"`
}

func (r ResponseRecord) ResponseID() string {
	return firstNonEmpty(rawObjectID(r.MongoID), rawObjectID(r.PlainID))
}

type AnswerRecord struct {
	QuestionID json.RawMessage `json:"questionId"`
	Question   json.RawMessage `json:"question"`
	Value      json.RawMessage `json:"value"`
	Answer     json.RawMessage `json:"answer"`
}

// AnswerList decodes element by element. Elements that are not objects
// are dropped and a value that is not an array decodes as empty.
type AnswerList []AnswerRecord

func (l *AnswerList) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		*l = nil
		return nil
	}
	out := make(AnswerList, 0, len(items))
	for _, item := range items {
		var a AnswerRecord
		if err := json.Unmarshal(item, &a); err == nil {
			out = append(out, a)
		}
	}
	*l = out
	return nil
}

// SurveyRef is the cleaned survey reference attached to every view.
// Title is never empty nor a known placeholder.
type SurveyRef struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CustomerInfo is always fully populated; Name is never empty.
type CustomerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AnswerView holds Value as string, float64 or bool.
type AnswerView struct {
	QuestionID   string `json:"questionId"`
	QuestionText string `json:"questionText"`
	Value        any    `json:"value"`
}

// ResponseView is the per-response view model. PointsApproved is nil
// while pending, true when approved and false when rejected.
type ResponseView struct {
	ID             string       `json:"id"`
	Survey         SurveyRef    `json:"survey"`
	Customer       CustomerInfo `json:"customer"`
	Answers        []AnswerView `json:"answers"`
	CreatedAt      time.Time    `json:"createdAt"`
	RewardPoints   int          `json:"rewardPoints"`
	PointsApproved *bool        `json:"pointsApproved"`
}

const (
	PointsPending  = "pending"
	PointsApproved = "approved"
	PointsRejected = "rejected"
)

func (v ResponseView) PointsStatus() string {
	switch {
	case v.PointsApproved == nil:
		return PointsPending
	case *v.PointsApproved:
		return PointsApproved
	default:
		return PointsRejected
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
