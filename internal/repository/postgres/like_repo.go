package postgres

import (
	"context"
	"database/sql"

	"eventhub/internal/domain"
)

type likeRepository struct {
	DB *sql.DB
}

func NewLikeRepository(db *sql.DB) domain.LikeRepository {
	return &likeRepository{DB: db}
}

func (r *likeRepository) Add(ctx context.Context, userID, eventID int64) error {
	query := `
		INSERT INTO likes (userid, eventid)
		VALUES ($1, $2)
		ON CONFLICT (userid, eventid) DO NOTHING
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query, userID, eventID)
	return storageErr(err)
}

func (r *likeRepository) Remove(ctx context.Context, userID, eventID int64) (int64, error) {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM likes WHERE userid = $1 AND eventid = $2`, userID, eventID)
	if err != nil {
		return 0, storageErr(err)
	}
	return rowsAffected(res)
}

func (r *likeRepository) Exists(ctx context.Context, userID, eventID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM likes WHERE userid = $1 AND eventid = $2)`
	return queryExists(ctx, conn(ctx, r.DB), query, userID, eventID)
}

func (r *likeRepository) ListUserIDsByEvent(ctx context.Context, eventID int64) ([]int64, error) {
	return queryIDs(ctx, conn(ctx, r.DB), `SELECT userid FROM likes WHERE eventid = $1 ORDER BY userid`, eventID)
}

func (r *likeRepository) ListEventIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	return queryIDs(ctx, conn(ctx, r.DB), `SELECT eventid FROM likes WHERE userid = $1 ORDER BY eventid`, userID)
}

func (r *likeRepository) DeleteByEvent(ctx context.Context, eventID int64) error {
	_, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM likes WHERE eventid = $1`, eventID)
	return storageErr(err)
}
