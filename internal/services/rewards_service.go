package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

type PointsOperation string

const (
	PointsAdd      PointsOperation = "add"
	PointsSubtract PointsOperation = "subtract"
)

// ParsePointsOperation accepts the operation names used by the backend.
func ParsePointsOperation(s string) (PointsOperation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add", "+":
		return PointsAdd, nil
	case "subtract", "sub", "-":
		return PointsSubtract, nil
	}
	return "", NewInvalidError("operation must be add or subtract")
}

// RewardsBackend holds the write endpoints for reward points.
type RewardsBackend interface {
	ApproveResponsePoints(ctx context.Context, responseID string, points int) error
	RejectResponsePoints(ctx context.Context, responseID string) error
	DeleteResponse(ctx context.Context, responseID string) error
	AdjustCustomerPoints(ctx context.Context, customer string, amount int, op PointsOperation) error
}

type RewardsSummary struct {
	Total          int `json:"total"`
	Pending        int `json:"pending"`
	Approved       int `json:"approved"`
	Rejected       int `json:"rejected"`
	PointsPending  int `json:"points_pending"`
	PointsApproved int `json:"points_approved"`
	PointsRejected int `json:"points_rejected"`
}

type RewardsDashboard struct {
	Summary   RewardsSummary `json:"summary"`
	Responses []ResponseView `json:"responses"`
}

// RewardsService approves, rejects and adjusts reward points, re-running
// the response pipeline after every successful write.
type RewardsService struct {
	backend      RewardsBackend
	responses    *ResponseService
	writeTimeout time.Duration
	log          *zap.Logger
}

func NewRewardsService(backend RewardsBackend, responses *ResponseService, writeTimeout time.Duration, log *zap.Logger) *RewardsService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RewardsService{backend: backend, responses: responses, writeTimeout: writeTimeout, log: log}
}

func (s *RewardsService) Dashboard(ctx context.Context, businessID string) (*RewardsDashboard, error) {
	views, err := s.responses.ListBusinessResponses(ctx, businessID)
	if err != nil {
		return nil, err
	}
	return &RewardsDashboard{Summary: SummarizeRewards(views), Responses: views}, nil
}

// SummarizeRewards counts responses and points per approval state.
func SummarizeRewards(views []ResponseView) RewardsSummary {
	var sum RewardsSummary
	for _, v := range views {
		sum.Total++
		switch v.PointsStatus() {
		case PointsApproved:
			sum.Approved++
			sum.PointsApproved += v.RewardPoints
		case PointsRejected:
			sum.Rejected++
			sum.PointsRejected += v.RewardPoints
		default:
			sum.Pending++
			sum.PointsPending += v.RewardPoints
		}
	}
	return sum
}

func (s *RewardsService) Approve(ctx context.Context, businessID, responseID string, points int) ([]ResponseView, error) {
	if strings.TrimSpace(responseID) == "" {
		return nil, NewInvalidError("response id required")
	}
	if points < 0 {
		return nil, NewInvalidError("points must not be negative")
	}
	return s.writeThenRefresh(ctx, businessID, "approve", func(ctx context.Context) error {
		return s.backend.ApproveResponsePoints(ctx, responseID, points)
	})
}

func (s *RewardsService) Reject(ctx context.Context, businessID, responseID string) ([]ResponseView, error) {
	if strings.TrimSpace(responseID) == "" {
		return nil, NewInvalidError("response id required")
	}
	return s.writeThenRefresh(ctx, businessID, "reject", func(ctx context.Context) error {
		return s.backend.RejectResponsePoints(ctx, responseID)
	})
}

func (s *RewardsService) Delete(ctx context.Context, businessID, responseID string) ([]ResponseView, error) {
	if strings.TrimSpace(responseID) == "" {
		return nil, NewInvalidError("response id required")
	}
	return s.writeThenRefresh(ctx, businessID, "delete", func(ctx context.Context) error {
		return s.backend.DeleteResponse(ctx, responseID)
	})
}

// AdjustCustomerPoints changes a customer's balance. customer is an ID,
// email or phone, whatever the backend accepts as identifier.
func (s *RewardsService) AdjustCustomerPoints(ctx context.Context, businessID, customer string, amount int, op PointsOperation) ([]ResponseView, error) {
	if strings.TrimSpace(customer) == "" {
		return nil, NewInvalidError("customer required")
	}
	if amount <= 0 {
		return nil, NewInvalidError("amount must be positive")
	}
	if op != PointsAdd && op != PointsSubtract {
		return nil, NewInvalidError("operation must be add or subtract")
	}
	return s.writeThenRefresh(ctx, businessID, "adjust_points", func(ctx context.Context) error {
		return s.backend.AdjustCustomerPoints(ctx, strings.TrimSpace(customer), amount, op)
	})
}

func (s *RewardsService) writeThenRefresh(ctx context.Context, businessID, action string, write func(context.Context) error) ([]ResponseView, error) {
	if err := s.write(ctx, write); err != nil {
		s.log.Info("reward write failed", zap.String("action", action), zap.Error(err))
		return nil, err
	}
	s.log.Info("reward write applied", zap.String("action", action), zap.String("business_id", businessID))
	if strings.TrimSpace(businessID) == "" {
		return nil, nil
	}
	views, err := s.responses.ListBusinessResponses(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("refresh after %s: %w", action, err)
	}
	return views, nil
}

// write applies the client-side timeout of the write path.
func (s *RewardsService) write(ctx context.Context, fn func(context.Context) error) error {
	if s.writeTimeout <= 0 {
		return fn(ctx)
	}
	wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	err := fn(wctx)
	if err != nil && errors.Is(wctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return NewNetworkError("request timed out")
	}
	return err
}
