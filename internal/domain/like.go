package domain

import "context"

// LikeRepository stores (user, event) likes; the pair is unique.
type LikeRepository interface {
	Add(ctx context.Context, userID, eventID int64) error
	Remove(ctx context.Context, userID, eventID int64) (int64, error)
	Exists(ctx context.Context, userID, eventID int64) (bool, error)
	ListUserIDsByEvent(ctx context.Context, eventID int64) ([]int64, error)
	ListEventIDsByUser(ctx context.Context, userID int64) ([]int64, error)
	DeleteByEvent(ctx context.Context, eventID int64) error
}

// LikeService exposes the likes subsystem to users.
type LikeService interface {
	AddLike(ctx context.Context, userID, eventID int64) error
	RemoveLike(ctx context.Context, userID, eventID int64) error
	IsLiked(ctx context.Context, userID, eventID int64) (bool, error)
	ListLikedEvents(ctx context.Context, userID int64, frame TimeFrame) ([]*Event, error)
}
