package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"streamify/internal/logging"
	"streamify/internal/model"
	"streamify/internal/queue"
	"streamify/internal/repository"
)

type SubscriptionService struct {
	subscriptionRepo repository.SubscriptionRepository
	userRepo         repository.UserRepository
	tx               repository.TxRunner
	publisher        queue.Publisher
}

func NewSubscriptionService(
	subscriptionRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	tx repository.TxRunner,
	publisher queue.Publisher,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		tx:               tx,
		publisher:        publisher,
	}
}

// Toggle subscribes subscriberID to channelID, or unsubscribes if already
// subscribed. Both users' counters move with the edge in one transaction.
func (s *SubscriptionService) Toggle(ctx context.Context, subscriberID, channelID uuid.UUID) (*model.SubscriptionToggleResult, error) {
	if subscriberID == channelID {
		return nil, model.ErrCannotSubscribeSelf
	}

	var result model.SubscriptionToggleResult
	err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		result = model.SubscriptionToggleResult{}

		if err := s.userRepo.LockForUpdate(ctx, tx, channelID); err != nil {
			if errors.Is(err, model.ErrUserNotFound) {
				return model.ErrChannelNotFound
			}
			return err
		}

		removed, err := s.subscriptionRepo.Delete(ctx, tx, subscriberID, channelID)
		if err != nil {
			return err
		}

		delta := 1
		if removed {
			delta = -1
		} else if err := s.subscriptionRepo.Create(ctx, tx, subscriberID, channelID); err != nil {
			return err
		}

		count, err := s.userRepo.IncrementSubscribersCount(ctx, tx, channelID, delta)
		if err != nil {
			return err
		}
		if err := s.userRepo.IncrementSubscriptionsCount(ctx, tx, subscriberID, delta); err != nil {
			return err
		}

		result.IsSubscribed = !removed
		result.SubscribersCount = count
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := queue.NewChannelUnsubscribedEvent(subscriberID, channelID)
	if result.IsSubscribed {
		event = queue.NewChannelSubscribedEvent(subscriberID, channelID)
	}
	if s.publisher != nil {
		if _, err := s.publisher.Publish(ctx, queue.StreamFeed, event); err != nil {
			logging.Component(ctx, "subscription_service").Error("publish feed event failed",
				"type", event.Type, "channel_id", channelID, "error", err)
		}
	}

	return &result, nil
}

// ListSubscribers lists the users subscribed to channelID.
func (s *SubscriptionService) ListSubscribers(ctx context.Context, channelID uuid.UUID, p model.Pagination) (*model.SubscriberPage, error) {
	if _, err := s.userRepo.GetByID(ctx, channelID); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrChannelNotFound
		}
		return nil, err
	}

	p = p.Normalize()
	users, total, err := s.subscriptionRepo.ListSubscribers(ctx, channelID, p)
	if err != nil {
		return nil, err
	}
	return &model.SubscriberPage{Subscribers: users, PageMeta: model.NewPageMeta(p, total)}, nil
}

// ListSubscribedChannels lists the channels subscriberID subscribes to.
func (s *SubscriptionService) ListSubscribedChannels(ctx context.Context, subscriberID uuid.UUID, p model.Pagination) (*model.SubscribedChannelPage, error) {
	if _, err := s.userRepo.GetByID(ctx, subscriberID); err != nil {
		return nil, err
	}

	p = p.Normalize()
	channels, total, err := s.subscriptionRepo.ListSubscribedChannels(ctx, subscriberID, p)
	if err != nil {
		return nil, err
	}
	return &model.SubscribedChannelPage{Channels: channels, PageMeta: model.NewPageMeta(p, total)}, nil
}
