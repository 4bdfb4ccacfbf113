package services

import (
	"context"
	"fmt"

	"github.com/tradeboard/backend/src/logger"
	"github.com/tradeboard/backend/src/security/validation"
	"github.com/tradeboard/backend/src/storage"
)

type closeQueueServiceImpl struct {
	backend storage.Backend
}

func NewCloseQueueService(backend storage.Backend) CloseQueueService {
	return &closeQueueServiceImpl{backend: backend}
}

// RequestClose queues ticket for the agent, replacing any earlier entry.
func (s *closeQueueServiceImpl) RequestClose(ctx context.Context, ticket int64) error {
	if ticket <= 0 {
		return validation.Failf("id must be a positive integer")
	}
	if err := s.backend.RequestClose(ctx, ticket); err != nil {
		return fmt.Errorf("request close of trade %d: %w", ticket, err)
	}
	logger.FromContext(ctx).Info("Close requested", "ticket", ticket)
	return nil
}

func (s *closeQueueServiceImpl) FilterPending(ctx context.Context, openTickets []int64) ([]int64, error) {
	pending, err := s.backend.PendingCloses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pending closes: %w", err)
	}

	queued := make(map[int64]struct{}, len(pending))
	for _, ticket := range pending {
		queued[ticket] = struct{}{}
	}

	toClose := []int64{}
	seen := make(map[int64]struct{}, len(openTickets))
	for _, ticket := range openTickets {
		if _, ok := queued[ticket]; !ok {
			continue
		}
		if _, dup := seen[ticket]; dup {
			continue
		}
		seen[ticket] = struct{}{}
		toClose = append(toClose, ticket)
	}
	return toClose, nil
}
