package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"streamify/internal/cache"
	"streamify/internal/model"
	"streamify/internal/queue"
)

// =============================================================================
// MOCK REPOSITORIES
// =============================================================================
//
// Services depend on repository INTERFACES, so tests swap in mocks whose
// behavior each test sets through function fields. Unset fields return a
// harmless default.

type mockUserRepository struct {
	createFn                 func(ctx context.Context, user *model.User) error
	getByIDFn                func(ctx context.Context, id uuid.UUID) (*model.User, error)
	getByUsernameFn          func(ctx context.Context, username string) (*model.User, error)
	getByEmailFn             func(ctx context.Context, email string) (*model.User, error)
	existsFn                 func(ctx context.Context, username, email string) (bool, error)
	updatePasswordFn         func(ctx context.Context, id uuid.UUID, hashed string) error
	updateAvatarFn           func(ctx context.Context, id uuid.UUID, url, key string) (*model.User, error)
	lockForUpdateFn          func(ctx context.Context, id uuid.UUID) error
	incrementSubscribersFn   func(ctx context.Context, id uuid.UUID, delta int) (int, error)
	incrementSubscriptionsFn func(ctx context.Context, id uuid.UUID, delta int) error

	// Track calls for assertions
	createCalls []*model.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, username, email)
	}
	return false, nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hashed string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, hashed)
	}
	return nil
}

func (m *mockUserRepository) UpdateAccount(ctx context.Context, id uuid.UUID, fullName, email string) (*model.User, error) {
	return &model.User{ID: id, FullName: fullName, Email: email}, nil
}

func (m *mockUserRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, url, key string) (*model.User, error) {
	if m.updateAvatarFn != nil {
		return m.updateAvatarFn(ctx, id, url, key)
	}
	return &model.User{ID: id, Avatar: url, AvatarKey: &key}, nil
}

func (m *mockUserRepository) UpdateCoverImage(ctx context.Context, id uuid.UUID, url, key string) (*model.User, error) {
	return &model.User{ID: id, CoverImage: &url, CoverImageKey: &key}, nil
}

func (m *mockUserRepository) LockForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	if m.lockForUpdateFn != nil {
		return m.lockForUpdateFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepository) IncrementSubscribersCount(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, delta int) (int, error) {
	if m.incrementSubscribersFn != nil {
		return m.incrementSubscribersFn(ctx, id, delta)
	}
	return 0, nil
}

func (m *mockUserRepository) IncrementSubscriptionsCount(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, delta int) error {
	if m.incrementSubscriptionsFn != nil {
		return m.incrementSubscriptionsFn(ctx, id, delta)
	}
	return nil
}

type mockVideoRepository struct {
	createFn        func(ctx context.Context, v *model.Video) error
	getByIDFn       func(ctx context.Context, id uuid.UUID) (*model.Video, error)
	getByIDsFn      func(ctx context.Context, ids []uuid.UUID) ([]model.Video, error)
	listFn          func(ctx context.Context, params model.VideoListParams) ([]model.Video, int, error)
	updateFn        func(ctx context.Context, id, ownerID uuid.UUID, req model.UpdateVideoRequest) error
	deleteFn        func(ctx context.Context, id, ownerID uuid.UUID) (*model.Video, error)
	togglePublishFn func(ctx context.Context, id, ownerID uuid.UUID) (bool, error)
	existsFn        func(ctx context.Context, id uuid.UUID) (bool, error)
	feedVideoIDsFn  func(ctx context.Context, channelIDs []uuid.UUID, limit int) ([]cache.VideoScore, error)

	incrementViewsCalls int
}

func (m *mockVideoRepository) Create(ctx context.Context, v *model.Video) error {
	if m.createFn != nil {
		return m.createFn(ctx, v)
	}
	return nil
}

func (m *mockVideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrVideoNotFound
}

func (m *mockVideoRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Video, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return []model.Video{}, nil
}

func (m *mockVideoRepository) List(ctx context.Context, params model.VideoListParams) ([]model.Video, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, params)
	}
	return []model.Video{}, 0, nil
}

func (m *mockVideoRepository) Update(ctx context.Context, id, ownerID uuid.UUID, req model.UpdateVideoRequest) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, ownerID, req)
	}
	return nil
}

func (m *mockVideoRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) (*model.Video, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, ownerID)
	}
	return nil, model.ErrVideoNotFound
}

func (m *mockVideoRepository) TogglePublish(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	if m.togglePublishFn != nil {
		return m.togglePublishFn(ctx, id, ownerID)
	}
	return false, model.ErrVideoNotFound
}

func (m *mockVideoRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	m.incrementViewsCalls++
	return nil
}

func (m *mockVideoRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, id)
	}
	return true, nil
}

func (m *mockVideoRepository) GetRecentByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]cache.VideoScore, error) {
	return nil, nil
}

func (m *mockVideoRepository) GetFeedVideoIDs(ctx context.Context, channelIDs []uuid.UUID, limit int) ([]cache.VideoScore, error) {
	if m.feedVideoIDsFn != nil {
		return m.feedVideoIDsFn(ctx, channelIDs, limit)
	}
	return nil, nil
}

type mockSubscriptionRepository struct {
	createFn        func(ctx context.Context, subscriberID, channelID uuid.UUID) error
	deleteFn        func(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error)
	existsFn        func(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error)
	getChannelIDsFn func(ctx context.Context, subscriberID uuid.UUID) ([]uuid.UUID, error)
}

func (m *mockSubscriptionRepository) Create(ctx context.Context, tx *sqlx.Tx, subscriberID, channelID uuid.UUID) error {
	if m.createFn != nil {
		return m.createFn(ctx, subscriberID, channelID)
	}
	return nil
}

func (m *mockSubscriptionRepository) Delete(ctx context.Context, tx *sqlx.Tx, subscriberID, channelID uuid.UUID) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, subscriberID, channelID)
	}
	return false, nil
}

func (m *mockSubscriptionRepository) Exists(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, subscriberID, channelID)
	}
	return false, nil
}

func (m *mockSubscriptionRepository) ListSubscribers(ctx context.Context, channelID uuid.UUID, p model.Pagination) ([]model.ChannelUser, int, error) {
	return []model.ChannelUser{}, 0, nil
}

func (m *mockSubscriptionRepository) ListSubscribedChannels(ctx context.Context, subscriberID uuid.UUID, p model.Pagination) ([]model.ChannelUser, int, error) {
	return []model.ChannelUser{}, 0, nil
}

func (m *mockSubscriptionRepository) GetSubscriberIDs(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (m *mockSubscriptionRepository) GetChannelIDs(ctx context.Context, subscriberID uuid.UUID) ([]uuid.UUID, error) {
	if m.getChannelIDsFn != nil {
		return m.getChannelIDsFn(ctx, subscriberID)
	}
	return nil, nil
}

type mockHistoryRepository struct {
	recorded []uuid.UUID
}

func (m *mockHistoryRepository) Record(ctx context.Context, userID, videoID uuid.UUID) error {
	m.recorded = append(m.recorded, videoID)
	return nil
}

func (m *mockHistoryRepository) List(ctx context.Context, userID uuid.UUID, p model.Pagination) ([]model.Video, int, error) {
	return []model.Video{}, 0, nil
}

type mockCommentRepository struct {
	createFn      func(ctx context.Context, videoID, ownerID uuid.UUID, content string) (*model.Comment, error)
	updateFn      func(ctx context.Context, commentID, ownerID uuid.UUID, content string) (*model.Comment, error)
	deleteFn      func(ctx context.Context, commentID, ownerID uuid.UUID) error
	listByVideoFn func(ctx context.Context, videoID uuid.UUID, p model.Pagination) (*model.CommentPage, error)
}

func (m *mockCommentRepository) Create(ctx context.Context, videoID, ownerID uuid.UUID, content string) (*model.Comment, error) {
	if m.createFn != nil {
		return m.createFn(ctx, videoID, ownerID, content)
	}
	return &model.Comment{ID: uuid.New(), VideoID: videoID, OwnerID: &ownerID, Content: content}, nil
}

func (m *mockCommentRepository) GetByID(ctx context.Context, commentID uuid.UUID) (*model.Comment, error) {
	return nil, model.ErrCommentNotFound
}

func (m *mockCommentRepository) Update(ctx context.Context, commentID, ownerID uuid.UUID, content string) (*model.Comment, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, commentID, ownerID, content)
	}
	return &model.Comment{ID: commentID, OwnerID: &ownerID, Content: content}, nil
}

func (m *mockCommentRepository) Delete(ctx context.Context, commentID, ownerID uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, commentID, ownerID)
	}
	return nil
}

func (m *mockCommentRepository) ListByVideo(ctx context.Context, videoID uuid.UUID, p model.Pagination) (*model.CommentPage, error) {
	if m.listByVideoFn != nil {
		return m.listByVideoFn(ctx, videoID, p)
	}
	return &model.CommentPage{Comments: []model.Comment{}, PageMeta: model.NewPageMeta(p, 0)}, nil
}

type mockTweetRepository struct {
	listByOwnerFn func(ctx context.Context, ownerID uuid.UUID, p model.Pagination) ([]model.Tweet, int, error)
	createCalls   int
}

func (m *mockTweetRepository) Create(ctx context.Context, ownerID uuid.UUID, content string) (*model.Tweet, error) {
	m.createCalls++
	return &model.Tweet{ID: uuid.New(), OwnerID: ownerID, Content: content}, nil
}

func (m *mockTweetRepository) GetByID(ctx context.Context, tweetID uuid.UUID) (*model.Tweet, error) {
	return nil, model.ErrTweetNotFound
}

func (m *mockTweetRepository) Update(ctx context.Context, tweetID, ownerID uuid.UUID, content string) (*model.Tweet, error) {
	return &model.Tweet{ID: tweetID, OwnerID: ownerID, Content: content}, nil
}

func (m *mockTweetRepository) Delete(ctx context.Context, tweetID, ownerID uuid.UUID) error {
	return nil
}

func (m *mockTweetRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, p model.Pagination) ([]model.Tweet, int, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID, p)
	}
	return []model.Tweet{}, 0, nil
}

// fakeTxRunner runs fn once with a nil tx; the mocks never touch it.
type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) RunInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	f.calls++
	return fn(nil)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.FeedEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, stream string, event queue.FeedEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "0-1", nil
}
