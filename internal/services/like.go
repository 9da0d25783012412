package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/domain"
)

type likeService struct {
	tx             domain.Transactor
	likeRepo       domain.LikeRepository
	eventRepo      domain.EventRepository
	now            func() time.Time
	contextTimeout time.Duration
}

// NewLikeService returns the likes subsystem. Likes are written only here; the event
// orchestrator reads them and removes them on event deletion.
func NewLikeService(tx domain.Transactor, likeRepo domain.LikeRepository, eventRepo domain.EventRepository, now func() time.Time, timeout time.Duration) domain.LikeService {
	if now == nil {
		now = time.Now
	}
	return &likeService{
		tx:             tx,
		likeRepo:       likeRepo,
		eventRepo:      eventRepo,
		now:            now,
		contextTimeout: timeout,
	}
}

// AddLike is idempotent. The event row is share-locked so a concurrent delete cannot
// remove it between the check and the insert.
func (s *likeService) AddLike(ctx context.Context, userID, eventID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.eventRepo.GetForShare(ctx, eventID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return noSuchEvent(eventID)
			}
			return fmt.Errorf("lock event: %w", err)
		}
		if err := s.likeRepo.Add(ctx, userID, eventID); err != nil {
			return fmt.Errorf("add like: %w", err)
		}
		return nil
	})
}

func (s *likeService) RemoveLike(ctx context.Context, userID, eventID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	n, err := s.likeRepo.Remove(ctx, userID, eventID)
	if err != nil {
		return fmt.Errorf("remove like: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d has not liked event %d: %w", userID, eventID, domain.ErrNotFound)
	}
	return nil
}

func (s *likeService) IsLiked(ctx context.Context, userID, eventID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ok, err := s.likeRepo.Exists(ctx, userID, eventID)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return ok, nil
}

func (s *likeService) ListLikedEvents(ctx context.Context, userID int64, frame domain.TimeFrame) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var events []*domain.Event
	err := s.tx.WithinReadTx(ctx, func(ctx context.Context) error {
		ids, err := s.likeRepo.ListEventIDsByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("list liked ids: %w", err)
		}
		events, err = s.eventRepo.ListByIDs(ctx, ids, frame, s.now())
		if err != nil {
			return fmt.Errorf("list liked events: %w", err)
		}
		return nil
	})
	return events, err
}
