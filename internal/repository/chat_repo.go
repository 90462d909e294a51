package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatRepository exposes the maintenance slice of chat storage; the
// messaging surface itself lives in another service.
type ChatRepository interface {
	// PurgeExpired deletes chats whose retention deadline has passed.
	PurgeExpired(ctx context.Context) (int64, error)
}

type chatRepo struct {
	pool *pgxpool.Pool
}

// NewChatRepo creates a new ChatRepository.
func NewChatRepo(pool *pgxpool.Pool) ChatRepository {
	return &chatRepo{pool: pool}
}

func (r *chatRepo) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM chats WHERE delete_after IS NOT NULL AND delete_after <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("purge expired chats: %w", err)
	}
	return tag.RowsAffected(), nil
}
