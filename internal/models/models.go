package models

import "time"

// User is a registered account. Password holds the bcrypt digest.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Fullname     string    `json:"fullname"`
	Avatar       *string   `json:"avatar"`
	CoverImage   *string   `json:"coverImage"`
	Password     string    `json:"-"`
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserSummary is the public owner information embedded in other resources.
type UserSummary struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Fullname string  `json:"fullname"`
	Avatar   *string `json:"avatar"`
}

// Summary trims a user down to its public fields.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Fullname: u.Fullname, Avatar: u.Avatar}
}

// ChannelProfile is a user seen as a channel.
type ChannelProfile struct {
	UserSummary
	Email             string    `json:"email"`
	CoverImage        *string   `json:"coverImage"`
	SubscribersCount  int64     `json:"subscribersCount"`
	SubscribedToCount int64     `json:"subscribedToCount"`
	IsSubscribed      bool      `json:"isSubscribed"`
	CreatedAt         time.Time `json:"createdAt"`
}

// AccountChanges lists the user fields a caller may edit. Nil means unchanged.
type AccountChanges struct {
	Fullname *string
	Username *string
	Email    *string
}

// Empty reports whether no field is being changed.
func (c AccountChanges) Empty() bool {
	return c.Fullname == nil && c.Username == nil && c.Email == nil
}

// Video is an uploaded video and its denormalized counters.
type Video struct {
	ID           string       `json:"id"`
	OwnerID      string       `json:"userId"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	VideoURL     string       `json:"videoUrl"`
	ThumbnailURL *string      `json:"thumbnailUrl"`
	Duration     float64      `json:"duration"`
	ViewCount    int64        `json:"viewCount"`
	LikeCount    int64        `json:"likeCount"`
	CommentCount int64        `json:"commentCount"`
	IsPublished  bool         `json:"isPublished"`
	PublishedAt  *time.Time   `json:"publishedAt"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	Owner        *UserSummary `json:"user,omitempty"`
}

// VideoChanges lists the editable video fields. Nil means unchanged.
type VideoChanges struct {
	Title        *string
	Description  *string
	IsPublished  *bool
	ThumbnailURL *string
}

// VideoQuery filters the public video listing.
type VideoQuery struct {
	Search    string
	OwnerID   string
	SortBy    string
	SortOrder string
	Page      Page
}

// Comment belongs to a video and optionally replies to another comment.
type Comment struct {
	ID              string       `json:"id"`
	VideoID         string       `json:"videoId"`
	OwnerID         string       `json:"userId"`
	ParentCommentID *string      `json:"parentCommentId"`
	Content         string       `json:"content"`
	LikeCount       int64        `json:"likeCount"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
	Owner           *UserSummary `json:"user,omitempty"`
}

// Tweet is a short text post.
type Tweet struct {
	ID        string       `json:"id"`
	OwnerID   string       `json:"userId"`
	Content   string       `json:"content"`
	LikeCount int64        `json:"likeCount"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Owner     *UserSummary `json:"user,omitempty"`
}

// TweetQuery filters the tweet search.
type TweetQuery struct {
	Search    string
	OwnerID   string
	SortBy    string
	SortOrder string
	Page      Page
}

// Playlist is an ordered collection of videos owned by a user.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoCount  int64     `json:"videoCount"`
	Videos      []Video   `json:"videos,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistChanges lists the editable playlist fields.
type PlaylistChanges struct {
	Name        *string
	Description *string
}

// WatchEntry is one video in a user's watch history.
type WatchEntry struct {
	Video     Video     `json:"video"`
	WatchedAt time.Time `json:"watchedAt"`
}

// ChannelStats aggregates a creator's channel.
type ChannelStats struct {
	TotalVideos     int64 `json:"totalVideos"`
	TotalViews      int64 `json:"totalViews"`
	TotalLikes      int64 `json:"totalLikes"`
	TotalComments   int64 `json:"totalComments"`
	SubscriberCount int64 `json:"subscriberCount"`
}

// VideoStats describes one video for its owner.
type VideoStats struct {
	VideoID      string     `json:"videoId"`
	Title        string     `json:"title"`
	ViewCount    int64      `json:"viewCount"`
	LikeCount    int64      `json:"likeCount"`
	CommentCount int64      `json:"commentCount"`
	Duration     float64    `json:"duration"`
	IsPublished  bool       `json:"isPublished"`
	PublishedAt  *time.Time `json:"publishedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// TimeWindow bounds dashboard aggregation. Zero values are open ends.
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// TokenPair groups the bearer credentials issued to an authenticated user.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}
