package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

var responsesHeader = []string{
	"response_id", "survey_id", "survey_title", "customer_id", "customer_name", "customer_email",
	"created_at", "answers", "reward_points", "points_status",
}

// ExportResponsesCSV renders one row per response. Answers are folded into a
// single "question: value" column separated by " | ".
func ExportResponsesCSV(views []ResponseView) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write(responsesHeader)
	for _, v := range views {
		rec := []string{
			v.ID,
			v.Survey.ID,
			v.Survey.Title,
			v.Customer.ID,
			v.Customer.Name,
			v.Customer.Email,
			formatCreatedAt(v.CreatedAt),
			joinAnswers(v.Answers),
			strconv.Itoa(v.RewardPoints),
			v.PointsStatus(),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportAnswersCSV renders the long format: one row per answer.
func ExportAnswersCSV(views []ResponseView) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"response_id", "survey_title", "customer_name", "question_id", "question_text", "value", "created_at"})
	for _, v := range views {
		for _, a := range v.Answers {
			rec := []string{
				v.ID,
				v.Survey.Title,
				v.Customer.Name,
				a.QuestionID,
				a.QuestionText,
				FormatAnswerValue(a.Value),
				formatCreatedAt(v.CreatedAt),
			}
			if err := w.Write(rec); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// FormatAnswerValue renders an answer value for tables.
func FormatAnswerValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func joinAnswers(answers []AnswerView) string {
	var b bytes.Buffer
	for i, a := range answers {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(a.QuestionText)
		b.WriteString(": ")
		b.WriteString(FormatAnswerValue(a.Value))
	}
	return b.String()
}

func formatCreatedAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
