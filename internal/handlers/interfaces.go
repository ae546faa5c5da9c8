package handlers

import (
	"context"
	"io"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
)

// UserStore captures the persistence operations required by the auth and user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	UpdateAccount(ctx context.Context, id string, changes models.AccountChanges) (models.User, error)
	UpdateAvatar(ctx context.Context, id, url string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, url string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
}

// SessionManager issues, refreshes and revokes token pairs and verifies access tokens.
type SessionManager interface {
	auth.AccessVerifier
	Issue(ctx context.Context, userID string) (models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Revoke(ctx context.Context, userID string) error
}

// PasswordResets issues and redeems single-use reset tokens.
type PasswordResets interface {
	Issue(ctx context.Context, userID string) (token, link string, err error)
	Redeem(ctx context.Context, token string) (string, error)
}

// VideoStore captures persistence for videos.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Search(ctx context.Context, query models.VideoQuery) ([]models.Video, int64, error)
	ListByOwner(ctx context.Context, ownerID string, published *bool, page models.Page) ([]models.Video, int64, error)
	Update(ctx context.Context, id string, changes models.VideoChanges) (models.Video, error)
	Delete(ctx context.Context, id string) error
	TogglePublish(ctx context.Context, id string) (models.Video, error)
	IncrementViews(ctx context.Context, id string) error
}

// CommentStore captures persistence for comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) (models.Comment, error)
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListByVideo(ctx context.Context, videoID string, page models.Page) ([]models.Comment, int64, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) (models.Tweet, error)
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	Search(ctx context.Context, query models.TweetQuery) ([]models.Tweet, int64, error)
	UpdateContent(ctx context.Context, id, content string) (models.Tweet, error)
	Delete(ctx context.Context, id string) error
}

// PlaylistStore captures persistence for playlists.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) (models.Playlist, error)
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	Videos(ctx context.Context, playlistID, viewerID string) ([]models.Video, error)
	ListByUser(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, id string, changes models.PlaylistChanges) (models.Playlist, error)
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// LikeStore toggles likes.
type LikeStore interface {
	ToggleVideoLike(ctx context.Context, userID, videoID string) (bool, int64, error)
	ToggleCommentLike(ctx context.Context, userID, commentID string) (bool, int64, error)
	ToggleTweetLike(ctx context.Context, userID, tweetID string) (bool, int64, error)
	LikedVideos(ctx context.Context, userID string) ([]models.Video, error)
}

// SubscriptionStore toggles and lists subscriptions.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	Channels(ctx context.Context, subscriberID string) ([]models.UserSummary, error)
	Subscribers(ctx context.Context, channelID string) ([]models.UserSummary, error)
}

// HistoryStore records watched videos.
type HistoryStore interface {
	Record(ctx context.Context, userID, videoID string) error
	List(ctx context.Context, userID string, page models.Page) ([]models.WatchEntry, int64, error)
}

// DashboardStore aggregates channel statistics.
type DashboardStore interface {
	ChannelStats(ctx context.Context, ownerID string, window models.TimeWindow) (models.ChannelStats, error)
}

// MediaStorage persists uploaded files and returns their public URL.
type MediaStorage interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// DurationQueue schedules background duration probes for uploaded videos.
type DurationQueue interface {
	Enqueue(videoID, url string) error
}

// HealthChecker reports whether the database is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
