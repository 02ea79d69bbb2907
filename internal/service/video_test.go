package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"streamify/internal/model"
	"streamify/internal/queue"
)

type videoFixture struct {
	videos  *mockVideoRepository
	users   *mockUserRepository
	likes   *memLikeRepository
	subs    *mockSubscriptionRepository
	history *mockHistoryRepository
	pub     *recordingPublisher
	svc     *VideoService
}

func newVideoFixture(video *model.Video) *videoFixture {
	f := &videoFixture{
		videos: &mockVideoRepository{
			getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.Video, error) {
				if video == nil || id != video.ID {
					return nil, model.ErrVideoNotFound
				}
				copied := *video
				return &copied, nil
			},
		},
		users: &mockUserRepository{
			getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.User, error) {
				return &model.User{ID: id, Username: "owner", SubscribersCount: 7}, nil
			},
		},
		likes:   newMemLikeRepository(),
		subs:    &mockSubscriptionRepository{},
		history: &mockHistoryRepository{},
		pub:     &recordingPublisher{},
	}
	f.svc = NewVideoService(f.videos, f.users, f.likes, f.subs, f.history, f.pub)
	return f
}

func TestVideoService_Publish(t *testing.T) {
	// ARRANGE
	owner := uuid.New()
	f := newVideoFixture(nil)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	f.videos.createFn = func(ctx context.Context, v *model.Video) error {
		v.ID = uuid.New()
		v.CreatedAt = created
		return nil
	}

	// ACT
	video, err := f.svc.Publish(context.Background(), owner, &model.CreateVideoRequest{
		Title:        "  First upload ",
		VideoURL:     "http://cdn.local/videos/a.mp4",
		VideoKey:     "videos/a.mp4",
		ThumbnailURL: "http://cdn.local/thumbnails/a.jpg",
		ThumbnailKey: "thumbnails/a.jpg",
		Duration:     12.5,
	})

	// ASSERT
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if video.Title != "First upload" || !video.IsPublished {
		t.Errorf("video = %+v", video)
	}
	if video.Owner == nil || video.Owner.ID != owner {
		t.Errorf("owner summary = %+v", video.Owner)
	}
	if len(f.pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(f.pub.events))
	}
	ev := f.pub.events[0]
	if ev.Type != queue.EventVideoPublished || ev.VideoID != video.ID || ev.OwnerID != owner {
		t.Errorf("event = %+v", ev)
	}
	if ev.PublishedAt != created.Unix() {
		t.Errorf("publishedAt = %d, want %d", ev.PublishedAt, created.Unix())
	}
}

func TestVideoService_Publish_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     model.CreateVideoRequest
		wantErr error
	}{
		{name: "missing title", req: model.CreateVideoRequest{VideoURL: "v", ThumbnailURL: "t"}, wantErr: model.ErrTitleRequired},
		{name: "missing video", req: model.CreateVideoRequest{Title: "t", ThumbnailURL: "t"}, wantErr: model.ErrVideoFileRequired},
		{name: "missing thumbnail", req: model.CreateVideoRequest{Title: "t", VideoURL: "v"}, wantErr: model.ErrThumbnailRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newVideoFixture(nil)

			_, err := f.svc.Publish(context.Background(), uuid.New(), &tt.req)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if len(f.pub.events) != 0 {
				t.Error("no event should be published")
			}
		})
	}
}

func TestVideoService_GetDetails(t *testing.T) {
	owner := uuid.New()
	viewer := uuid.New()
	video := &model.Video{ID: uuid.New(), OwnerID: owner, IsPublished: true, Views: 41}

	f := newVideoFixture(video)
	f.likes.edges[[2]uuid.UUID{viewer, video.ID}] = true
	f.subs.existsFn = func(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
		return subscriberID == viewer && channelID == owner, nil
	}

	details, err := f.svc.GetDetails(context.Background(), video.ID, &viewer)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.Views != 42 {
		t.Errorf("views = %d, want 42", details.Views)
	}
	if !details.IsLiked || !details.IsSubscribed || details.SubscribersCount != 7 {
		t.Errorf("details flags = liked %v subscribed %v subscribers %d",
			details.IsLiked, details.IsSubscribed, details.SubscribersCount)
	}
	if len(f.history.recorded) != 1 || f.history.recorded[0] != video.ID {
		t.Errorf("history = %v", f.history.recorded)
	}
}

func TestVideoService_GetDetails_Anonymous(t *testing.T) {
	video := &model.Video{ID: uuid.New(), OwnerID: uuid.New(), IsPublished: true}
	f := newVideoFixture(video)

	details, err := f.svc.GetDetails(context.Background(), video.ID, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.IsLiked || details.IsSubscribed {
		t.Error("anonymous viewer has no liked/subscribed state")
	}
	if len(f.history.recorded) != 0 {
		t.Error("anonymous views are not recorded in history")
	}
	if f.videos.incrementViewsCalls != 1 {
		t.Errorf("IncrementViews calls = %d, want 1", f.videos.incrementViewsCalls)
	}
}

func TestVideoService_GetDetails_UnpublishedHidden(t *testing.T) {
	owner := uuid.New()
	video := &model.Video{ID: uuid.New(), OwnerID: owner, IsPublished: false}
	f := newVideoFixture(video)
	stranger := uuid.New()

	_, err := f.svc.GetDetails(context.Background(), video.ID, &stranger)
	if !errors.Is(err, model.ErrVideoNotFound) {
		t.Errorf("stranger: error = %v, want %v", err, model.ErrVideoNotFound)
	}

	if _, err := f.svc.GetDetails(context.Background(), video.ID, &owner); err != nil {
		t.Errorf("owner should see the draft: %v", err)
	}
}

func TestVideoService_Update(t *testing.T) {
	owner := uuid.New()
	video := &model.Video{ID: uuid.New(), OwnerID: owner, Title: "Old", ThumbnailKey: "thumbnails/old.jpg"}
	f := newVideoFixture(video)
	f.videos.updateFn = func(ctx context.Context, id, ownerID uuid.UUID, req model.UpdateVideoRequest) error {
		if req.Title != nil {
			video.Title = *req.Title
		}
		if req.ThumbnailKey != nil {
			video.ThumbnailKey = *req.ThumbnailKey
		}
		return nil
	}

	t.Run("not owner", func(t *testing.T) {
		title := "Hijack"
		_, _, err := f.svc.Update(context.Background(), video.ID, uuid.New(), &model.UpdateVideoRequest{Title: &title})
		if !errors.Is(err, model.ErrNotVideoOwner) {
			t.Errorf("error = %v, want %v", err, model.ErrNotVideoOwner)
		}
	})

	t.Run("nothing to update", func(t *testing.T) {
		_, _, err := f.svc.Update(context.Background(), video.ID, owner, &model.UpdateVideoRequest{})
		if !errors.Is(err, model.ErrNothingToUpdate) {
			t.Errorf("error = %v, want %v", err, model.ErrNothingToUpdate)
		}
	})

	t.Run("new thumbnail returns replaced key", func(t *testing.T) {
		title := " New "
		url, key := "http://cdn.local/thumbnails/new.jpg", "thumbnails/new.jpg"
		updated, replaced, err := f.svc.Update(context.Background(), video.ID, owner, &model.UpdateVideoRequest{
			Title:        &title,
			ThumbnailURL: &url,
			ThumbnailKey: &key,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Title != "New" {
			t.Errorf("title = %q, want %q", updated.Title, "New")
		}
		if replaced != "thumbnails/old.jpg" {
			t.Errorf("replaced = %q, want thumbnails/old.jpg", replaced)
		}
	})
}

func TestVideoService_Delete_PublishesRemoval(t *testing.T) {
	owner := uuid.New()
	videoID := uuid.New()
	f := newVideoFixture(nil)
	f.videos.deleteFn = func(ctx context.Context, id, ownerID uuid.UUID) (*model.Video, error) {
		if ownerID != owner {
			return nil, model.ErrNotVideoOwner
		}
		return &model.Video{ID: id, OwnerID: owner, VideoKey: "videos/a.mp4"}, nil
	}

	_, err := f.svc.Delete(context.Background(), videoID, uuid.New())
	if !errors.Is(err, model.ErrNotVideoOwner) {
		t.Errorf("error = %v, want %v", err, model.ErrNotVideoOwner)
	}
	if len(f.pub.events) != 0 {
		t.Fatal("failed delete must not publish")
	}

	deleted, err := f.svc.Delete(context.Background(), videoID, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted.VideoKey != "videos/a.mp4" {
		t.Errorf("deleted video key = %q", deleted.VideoKey)
	}
	if len(f.pub.events) != 1 || f.pub.events[0].Type != queue.EventVideoRemoved {
		t.Errorf("events = %+v", f.pub.events)
	}
}

func TestVideoService_TogglePublish(t *testing.T) {
	owner := uuid.New()
	video := &model.Video{ID: uuid.New(), OwnerID: owner, IsPublished: true}
	f := newVideoFixture(video)
	f.videos.togglePublishFn = func(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
		video.IsPublished = !video.IsPublished
		return video.IsPublished, nil
	}

	got, err := f.svc.TogglePublish(context.Background(), video.ID, owner)
	if err != nil || got.IsPublished {
		t.Fatalf("first toggle = %v, %v; want unpublished", got, err)
	}
	got, err = f.svc.TogglePublish(context.Background(), video.ID, owner)
	if err != nil || !got.IsPublished {
		t.Fatalf("second toggle = %v, %v; want published", got, err)
	}

	if len(f.pub.events) != 2 {
		t.Fatalf("published %d events, want 2", len(f.pub.events))
	}
	if f.pub.events[0].Type != queue.EventVideoRemoved || f.pub.events[1].Type != queue.EventVideoPublished {
		t.Errorf("event types = %q, %q", f.pub.events[0].Type, f.pub.events[1].Type)
	}
}

func TestVideoService_List_OwnerSeesDrafts(t *testing.T) {
	owner := uuid.New()
	f := newVideoFixture(nil)
	var got model.VideoListParams
	f.videos.listFn = func(ctx context.Context, params model.VideoListParams) ([]model.Video, int, error) {
		got = params
		return []model.Video{}, 0, nil
	}

	_, _ = f.svc.List(context.Background(), model.VideoListParams{OwnerID: &owner}, &owner)
	if !got.IncludeUnpublished {
		t.Error("owner listing their channel should include drafts")
	}
	if got.Page != 1 || got.Limit != model.DefaultPageLimit {
		t.Errorf("pagination = %+v, want defaults", got.Pagination)
	}

	stranger := uuid.New()
	_, _ = f.svc.List(context.Background(), model.VideoListParams{OwnerID: &owner}, &stranger)
	if got.IncludeUnpublished {
		t.Error("other viewers must not see drafts")
	}
}
