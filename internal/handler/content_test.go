package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamify/internal/model"
)

func TestCreateComment_AcceptsContentField(t *testing.T) {
	userID, videoID := uuid.New(), uuid.New()
	comments := &fakeCommentService{
		addFn: func(gotVideo, gotUser uuid.UUID, content string) (*model.Comment, error) {
			assert.Equal(t, videoID, gotVideo)
			assert.Equal(t, userID, gotUser)
			return &model.Comment{ID: uuid.New(), VideoID: gotVideo, Content: content}, nil
		},
	}
	h := NewCommentHandler(comments)

	for _, body := range []map[string]string{{"comment": "nice"}, {"content": "nice"}} {
		rec := httptest.NewRecorder()
		req := withParams(jsonRequest(t, http.MethodPost, "/api/v1/comments/"+videoID.String(), body), "videoId", videoID.String())
		h.Create(rec, withUser(req, userID))

		require.Equal(t, http.StatusCreated, rec.Code)
		var c model.Comment
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &c))
		assert.Equal(t, "nice", c.Content)
	}
}

func TestCreateComment_MissingVideo(t *testing.T) {
	videoID := uuid.New()
	h := NewCommentHandler(&fakeCommentService{
		addFn: func(uuid.UUID, uuid.UUID, string) (*model.Comment, error) { return nil, model.ErrVideoNotFound },
	})

	rec := httptest.NewRecorder()
	req := withParams(jsonRequest(t, http.MethodPost, "/", map[string]string{"comment": "x"}), "videoId", videoID.String())
	h.Create(rec, withUser(req, uuid.New()))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTweet_QueryFallback(t *testing.T) {
	userID := uuid.New()
	var got string
	h := NewTweetHandler(&fakeTweetService{
		createFn: func(owner uuid.UUID, content string) (*model.Tweet, error) {
			got = content
			return &model.Tweet{ID: uuid.New(), Content: content}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Create(rec, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/tweets?tweet=hello", nil), userID))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "hello", got)

	rec = httptest.NewRecorder()
	h.Create(rec, withUser(jsonRequest(t, http.MethodPost, "/api/v1/tweets?tweet=ignored", model.TweetRequest{Content: "from body"}), userID))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "from body", got)
}

func TestToggleLike_RoutesTarget(t *testing.T) {
	userID, commentID := uuid.New(), uuid.New()
	var gotTarget model.LikeTarget
	h := NewLikeHandler(&fakeLikeService{
		toggleFn: func(target model.LikeTarget, user, id uuid.UUID) (*model.LikeToggleResult, error) {
			gotTarget = target
			assert.Equal(t, commentID, id)
			return &model.LikeToggleResult{IsLiked: true, LikesCount: 4}, nil
		},
	})

	rec := httptest.NewRecorder()
	req := withParams(httptest.NewRequest(http.MethodPost, "/", nil), "commentId", commentID.String())
	h.ToggleComment(rec, withUser(req, userID))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.LikeTargetComment, gotTarget)

	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Liked successfully", env.Message)
	var result model.LikeToggleResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, model.LikeToggleResult{IsLiked: true, LikesCount: 4}, result)
}

func TestToggleLike_MissingTarget(t *testing.T) {
	h := NewLikeHandler(&fakeLikeService{
		toggleFn: func(model.LikeTarget, uuid.UUID, uuid.UUID) (*model.LikeToggleResult, error) {
			return nil, model.ErrTweetNotFound
		},
	})

	rec := httptest.NewRecorder()
	req := withParams(httptest.NewRequest(http.MethodPost, "/", nil), "tweetId", uuid.NewString())
	h.ToggleTweet(rec, withUser(req, uuid.New()))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddVideoToPlaylist(t *testing.T) {
	userID, playlistID, videoID := uuid.New(), uuid.New(), uuid.New()
	h := NewPlaylistHandler(&fakePlaylistService{
		addFn: func(pl, v, u uuid.UUID) (*model.Playlist, error) {
			assert.Equal(t, playlistID, pl)
			assert.Equal(t, videoID, v)
			assert.Equal(t, userID, u)
			return &model.Playlist{ID: pl, Videos: []uuid.UUID{v}}, nil
		},
	})

	rec := httptest.NewRecorder()
	body := model.PlaylistVideoRequest{PlaylistID: playlistID.String(), VideoID: videoID.String()}
	h.AddVideo(rec, withUser(jsonRequest(t, http.MethodPost, "/api/v1/playlist/add-video", body), userID))

	require.Equal(t, http.StatusOK, rec.Code)
	var pl model.Playlist
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &pl))
	assert.Equal(t, []uuid.UUID{videoID}, pl.Videos)

	rec = httptest.NewRecorder()
	body.VideoID = "not-an-id"
	h.AddVideo(rec, withUser(jsonRequest(t, http.MethodPost, "/api/v1/playlist/add-video", body), userID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid videoId", decodeEnvelope(t, rec).Message)
}
