package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"streamify/internal/model"
)

type subscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, tx *sqlx.Tx, subscriberID, channelID uuid.UUID) error {
	query := `INSERT INTO subscriptions (subscriber_id, channel_id) VALUES ($1, $2)`
	_, err := tx.ExecContext(ctx, query, subscriberID, channelID)
	if err != nil {
		if isPQError(err, pgForeignKeyViolation) {
			return model.ErrChannelNotFound
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// Delete removes the edge if present and reports whether a row was removed.
func (r *subscriptionRepository) Delete(ctx context.Context, tx *sqlx.Tx, subscriberID, channelID uuid.UUID) (bool, error) {
	query := `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`
	result, err := tx.ExecContext(ctx, query, subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("failed to delete subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *subscriptionRepository) Exists(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, subscriberID, channelID); err != nil {
		return false, fmt.Errorf("failed to check subscription existence: %w", err)
	}
	return exists, nil
}

// ListSubscribers returns users subscribed to the channel, most recent first.
func (r *subscriptionRepository) ListSubscribers(ctx context.Context, channelID uuid.UUID, p model.Pagination) ([]model.ChannelUser, int, error) {
	return r.listEdges(ctx, "channel_id", "subscriber_id", channelID, p)
}

// ListSubscribedChannels returns channels the user subscribes to, most recent first.
func (r *subscriptionRepository) ListSubscribedChannels(ctx context.Context, subscriberID uuid.UUID, p model.Pagination) ([]model.ChannelUser, int, error) {
	return r.listEdges(ctx, "subscriber_id", "channel_id", subscriberID, p)
}

// listEdges pages subscriptions filtered on one side and joined to the user on the other.
func (r *subscriptionRepository) listEdges(ctx context.Context, filterCol, joinCol string, id uuid.UUID, p model.Pagination) ([]model.ChannelUser, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM subscriptions WHERE ` + filterCol + ` = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, id); err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	query := `
		SELECT u.id, u.username, u.full_name, u.avatar_url, u.subscribers_count,
		       s.created_at AS subscribed_at
		FROM subscriptions s
		JOIN users u ON u.id = s.` + joinCol + `
		WHERE s.` + filterCol + ` = $1
		ORDER BY s.created_at DESC, u.id DESC
		LIMIT $2 OFFSET $3
	`
	users := []model.ChannelUser{}
	if err := r.db.SelectContext(ctx, &users, query, id, p.Limit, p.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return users, total, nil
}

// GetSubscriberIDs returns every subscriber of a channel for feed fan-out.
func (r *subscriptionRepository) GetSubscriberIDs(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `SELECT subscriber_id FROM subscriptions WHERE channel_id = $1`
	if err := r.db.SelectContext(ctx, &ids, query, channelID); err != nil {
		return nil, fmt.Errorf("failed to get subscriber ids: %w", err)
	}
	return ids, nil
}

// GetChannelIDs returns every channel a user subscribes to for feed warming.
func (r *subscriptionRepository) GetChannelIDs(ctx context.Context, subscriberID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `SELECT channel_id FROM subscriptions WHERE subscriber_id = $1`
	if err := r.db.SelectContext(ctx, &ids, query, subscriberID); err != nil {
		return nil, fmt.Errorf("failed to get channel ids: %w", err)
	}
	return ids, nil
}
