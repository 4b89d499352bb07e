package services

import (
	"context"
	"encoding/json"
	"sync"
)

type stubSurveySource struct {
	mu         sync.Mutex
	byBusiness map[string][]SurveyRecord
	byID       map[string]*SurveyRecord
	listErr    error
	getErr     map[string]error
	listCalls  int
	getCalls   map[string]int
}

func newStubSurveySource() *stubSurveySource {
	return &stubSurveySource{
		byBusiness: map[string][]SurveyRecord{},
		byID:       map[string]*SurveyRecord{},
		getErr:     map[string]error{},
		getCalls:   map[string]int{},
	}
}

func (s *stubSurveySource) ListSurveysByBusiness(_ context.Context, businessID string) ([]SurveyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]SurveyRecord(nil), s.byBusiness[businessID]...), nil
}

func (s *stubSurveySource) GetSurvey(_ context.Context, surveyID string) (*SurveyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls[surveyID]++
	if err := s.getErr[surveyID]; err != nil {
		return nil, err
	}
	sv, ok := s.byID[surveyID]
	if !ok {
		return nil, NewNotFoundError("survey not found")
	}
	copy := *sv
	return &copy, nil
}

func (s *stubSurveySource) totalGets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.getCalls {
		n += c
	}
	return n
}

type stubResponseSource struct {
	mu         sync.Mutex
	byBusiness map[string][]json.RawMessage
	bySurvey   map[string][]json.RawMessage
	listErr    error
	listCalls  int
}

func newStubResponseSource() *stubResponseSource {
	return &stubResponseSource{byBusiness: map[string][]json.RawMessage{}, bySurvey: map[string][]json.RawMessage{}}
}

func (s *stubResponseSource) ListResponsesByBusiness(_ context.Context, businessID string) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.byBusiness[businessID], nil
}

func (s *stubResponseSource) ListResponsesBySurvey(_ context.Context, surveyID string) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.bySurvey[surveyID], nil
}

// rawList splits a JSON array literal into records.
func rawList(s string) []json.RawMessage {
	var out []json.RawMessage
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		panic(err)
	}
	return out
}
