package handlers

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// memDB backs every in-memory store used by the handler tests.
type memDB struct {
	mu sync.Mutex

	users          map[string]models.User
	videos         map[string]models.Video
	comments       map[string]models.Comment
	tweets         map[string]models.Tweet
	playlists      map[string]models.Playlist
	playlistVideos map[string][]string
	likes          map[string]bool
	subscriptions  map[string]time.Time
	history        map[string]map[string]time.Time
}

func newMemDB() *memDB {
	return &memDB{
		users:          make(map[string]models.User),
		videos:         make(map[string]models.Video),
		comments:       make(map[string]models.Comment),
		tweets:         make(map[string]models.Tweet),
		playlists:      make(map[string]models.Playlist),
		playlistVideos: make(map[string][]string),
		likes:          make(map[string]bool),
		subscriptions:  make(map[string]time.Time),
		history:        make(map[string]map[string]time.Time),
	}
}

func page[T any](items []T, p models.Page) []T {
	start := min(p.Offset(), len(items))
	end := min(start+p.Limit, len(items))
	return items[start:end]
}

type memUsers struct{ db *memDB }

func (s memUsers) Create(_ context.Context, user models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.db.users[user.ID] = user
	return nil
}

func (s memUsers) FindByID(_ context.Context, id string) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	user, ok := s.db.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s memUsers) find(match func(models.User) bool) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s memUsers) FindByUsername(_ context.Context, username string) (models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return s.find(func(u models.User) bool { return u.Username == username })
}

func (s memUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.find(func(u models.User) bool { return u.Email == email })
}

func (s memUsers) UpdateAccount(_ context.Context, id string, changes models.AccountChanges) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	user, ok := s.db.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	for otherID, u := range s.db.users {
		if otherID == id {
			continue
		}
		if (changes.Username != nil && u.Username == *changes.Username) || (changes.Email != nil && u.Email == *changes.Email) {
			return models.User{}, repositories.ErrConflict
		}
	}
	if changes.Fullname != nil {
		user.Fullname = *changes.Fullname
	}
	if changes.Username != nil {
		user.Username = *changes.Username
	}
	if changes.Email != nil {
		user.Email = *changes.Email
	}
	s.db.users[id] = user
	return user, nil
}

func (s memUsers) update(id string, apply func(*models.User)) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	user, ok := s.db.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	apply(&user)
	s.db.users[id] = user
	return user, nil
}

func (s memUsers) UpdateAvatar(_ context.Context, id, url string) (models.User, error) {
	return s.update(id, func(u *models.User) { u.Avatar = &url })
}

func (s memUsers) UpdateCoverImage(_ context.Context, id, url string) (models.User, error) {
	return s.update(id, func(u *models.User) { u.CoverImage = &url })
}

func (s memUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	_, err := s.update(id, func(u *models.User) { u.Password = passwordHash })
	return err
}

func (s memUsers) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		return models.ChannelProfile{}, err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	profile := models.ChannelProfile{UserSummary: user.Summary(), Email: user.Email, CoverImage: user.CoverImage, CreatedAt: user.CreatedAt}
	for key := range s.db.subscriptions {
		subscriber, channel, _ := strings.Cut(key, ":")
		if channel == user.ID {
			profile.SubscribersCount++
			if subscriber == viewerID {
				profile.IsSubscribed = true
			}
		}
		if subscriber == user.ID {
			profile.SubscribedToCount++
		}
	}
	return profile, nil
}

type memVideos struct{ db *memDB }

func (s memVideos) Create(_ context.Context, video models.Video) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[video.OwnerID]; !ok {
		return repositories.ErrNotFound
	}
	s.db.videos[video.ID] = video
	return nil
}

func (s memVideos) FindByID(_ context.Context, id string) (models.Video, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	video, ok := s.db.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s memVideos) sorted(keep func(models.Video) bool) []models.Video {
	var out []models.Video
	for _, v := range s.db.videos {
		if keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s memVideos) Search(_ context.Context, query models.VideoQuery) ([]models.Video, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	all := s.sorted(func(v models.Video) bool {
		if !v.IsPublished {
			return false
		}
		if query.OwnerID != "" && v.OwnerID != query.OwnerID {
			return false
		}
		return query.Search == "" || strings.Contains(strings.ToLower(v.Title+" "+v.Description), strings.ToLower(query.Search))
	})
	return page(all, query.Page), int64(len(all)), nil
}

func (s memVideos) ListByOwner(_ context.Context, ownerID string, published *bool, p models.Page) ([]models.Video, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	all := s.sorted(func(v models.Video) bool {
		return v.OwnerID == ownerID && (published == nil || v.IsPublished == *published)
	})
	return page(all, p), int64(len(all)), nil
}

func (s memVideos) update(id string, apply func(*models.Video)) (models.Video, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	video, ok := s.db.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	apply(&video)
	s.db.videos[id] = video
	return video, nil
}

func (s memVideos) Update(_ context.Context, id string, changes models.VideoChanges) (models.Video, error) {
	return s.update(id, func(v *models.Video) {
		if changes.Title != nil {
			v.Title = *changes.Title
		}
		if changes.Description != nil {
			v.Description = *changes.Description
		}
		if changes.IsPublished != nil {
			v.IsPublished = *changes.IsPublished
		}
		if changes.ThumbnailURL != nil {
			v.ThumbnailURL = changes.ThumbnailURL
		}
	})
}

func (s memVideos) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.db.videos, id)
	for cid, c := range s.db.comments {
		if c.VideoID == id {
			delete(s.db.comments, cid)
		}
	}
	return nil
}

func (s memVideos) TogglePublish(_ context.Context, id string) (models.Video, error) {
	return s.update(id, func(v *models.Video) { v.IsPublished = !v.IsPublished })
}

func (s memVideos) IncrementViews(_ context.Context, id string) error {
	_, err := s.update(id, func(v *models.Video) { v.ViewCount++ })
	return err
}

type memComments struct{ db *memDB }

func (s memComments) Create(_ context.Context, comment models.Comment) (models.Comment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	video, ok := s.db.videos[comment.VideoID]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	video.CommentCount++
	s.db.videos[video.ID] = video
	s.db.comments[comment.ID] = comment
	return comment, nil
}

func (s memComments) FindByID(_ context.Context, id string) (models.Comment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	comment, ok := s.db.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s memComments) ListByVideo(_ context.Context, videoID string, p models.Page) ([]models.Comment, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.Comment
	for _, c := range s.db.comments {
		if c.VideoID == videoID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, p), int64(len(out)), nil
}

func (s memComments) UpdateContent(_ context.Context, id, content string) (models.Comment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	comment, ok := s.db.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	comment.Content = content
	s.db.comments[id] = comment
	return comment, nil
}

func (s memComments) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	comment, ok := s.db.comments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	delete(s.db.comments, id)
	if video, ok := s.db.videos[comment.VideoID]; ok {
		video.CommentCount = max(video.CommentCount-1, 0)
		s.db.videos[video.ID] = video
	}
	return nil
}

type memTweets struct{ db *memDB }

func (s memTweets) Create(_ context.Context, tweet models.Tweet) (models.Tweet, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[tweet.OwnerID]; !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	s.db.tweets[tweet.ID] = tweet
	return tweet, nil
}

func (s memTweets) FindByID(_ context.Context, id string) (models.Tweet, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	tweet, ok := s.db.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return tweet, nil
}

func (s memTweets) Search(_ context.Context, query models.TweetQuery) ([]models.Tweet, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.Tweet
	for _, t := range s.db.tweets {
		if query.OwnerID != "" && t.OwnerID != query.OwnerID {
			continue
		}
		if query.Search != "" && !strings.Contains(strings.ToLower(t.Content), strings.ToLower(query.Search)) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, query.Page), int64(len(out)), nil
}

func (s memTweets) UpdateContent(_ context.Context, id, content string) (models.Tweet, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	tweet, ok := s.db.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	tweet.Content = content
	s.db.tweets[id] = tweet
	return tweet, nil
}

func (s memTweets) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.tweets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.db.tweets, id)
	return nil
}

type memPlaylists struct{ db *memDB }

func (s memPlaylists) Create(_ context.Context, playlist models.Playlist) (models.Playlist, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.playlists[playlist.ID] = playlist
	return playlist, nil
}

func (s memPlaylists) FindByID(_ context.Context, id string) (models.Playlist, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	playlist, ok := s.db.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	playlist.VideoCount = int64(len(s.db.playlistVideos[id]))
	return playlist, nil
}

func (s memPlaylists) Videos(_ context.Context, playlistID, viewerID string) ([]models.Video, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.Video
	for _, id := range s.db.playlistVideos[playlistID] {
		if v, ok := s.db.videos[id]; ok && (v.IsPublished || v.OwnerID == viewerID) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s memPlaylists) ListByUser(_ context.Context, ownerID string) ([]models.Playlist, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.Playlist
	for _, p := range s.db.playlists {
		if p.OwnerID == ownerID {
			p.VideoCount = int64(len(s.db.playlistVideos[p.ID]))
			out = append(out, p)
		}
	}
	return out, nil
}

func (s memPlaylists) Update(_ context.Context, id string, changes models.PlaylistChanges) (models.Playlist, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	playlist, ok := s.db.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	if changes.Name != nil {
		playlist.Name = *changes.Name
	}
	if changes.Description != nil {
		playlist.Description = *changes.Description
	}
	s.db.playlists[id] = playlist
	return playlist, nil
}

func (s memPlaylists) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.db.playlists, id)
	delete(s.db.playlistVideos, id)
	return nil
}

func (s memPlaylists) AddVideo(_ context.Context, playlistID, videoID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.videos[videoID]; !ok {
		return repositories.ErrNotFound
	}
	for _, id := range s.db.playlistVideos[playlistID] {
		if id == videoID {
			return repositories.ErrConflict
		}
	}
	s.db.playlistVideos[playlistID] = append(s.db.playlistVideos[playlistID], videoID)
	return nil
}

func (s memPlaylists) RemoveVideo(_ context.Context, playlistID, videoID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ids := s.db.playlistVideos[playlistID]
	for i, id := range ids {
		if id == videoID {
			s.db.playlistVideos[playlistID] = append(ids[:i:i], ids[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

type memLikes struct{ db *memDB }

func (s memLikes) toggle(kind, userID, targetID string, counter func() (*int64, bool)) (bool, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	count, ok := counter()
	if !ok {
		return false, 0, repositories.ErrNotFound
	}
	key := fmt.Sprintf("%s:%s:%s", kind, userID, targetID)
	if s.db.likes[key] {
		delete(s.db.likes, key)
		*count = max(*count-1, 0)
		return false, *count, nil
	}
	s.db.likes[key] = true
	*count++
	return true, *count, nil
}

func (s memLikes) ToggleVideoLike(_ context.Context, userID, videoID string) (bool, int64, error) {
	var video models.Video
	liked, count, err := s.toggle("v", userID, videoID, func() (*int64, bool) {
		var ok bool
		video, ok = s.db.videos[videoID]
		return &video.LikeCount, ok && (video.IsPublished || video.OwnerID == userID)
	})
	if err == nil {
		s.db.mu.Lock()
		s.db.videos[videoID] = video
		s.db.mu.Unlock()
	}
	return liked, count, err
}

func (s memLikes) ToggleCommentLike(_ context.Context, userID, commentID string) (bool, int64, error) {
	var comment models.Comment
	liked, count, err := s.toggle("c", userID, commentID, func() (*int64, bool) {
		var ok bool
		comment, ok = s.db.comments[commentID]
		return &comment.LikeCount, ok
	})
	if err == nil {
		s.db.mu.Lock()
		s.db.comments[commentID] = comment
		s.db.mu.Unlock()
	}
	return liked, count, err
}

func (s memLikes) ToggleTweetLike(_ context.Context, userID, tweetID string) (bool, int64, error) {
	var tweet models.Tweet
	liked, count, err := s.toggle("t", userID, tweetID, func() (*int64, bool) {
		var ok bool
		tweet, ok = s.db.tweets[tweetID]
		return &tweet.LikeCount, ok
	})
	if err == nil {
		s.db.mu.Lock()
		s.db.tweets[tweetID] = tweet
		s.db.mu.Unlock()
	}
	return liked, count, err
}

func (s memLikes) LikedVideos(_ context.Context, userID string) ([]models.Video, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.Video
	for key := range s.db.likes {
		parts := strings.Split(key, ":")
		if parts[0] == "v" && parts[1] == userID {
			if v, ok := s.db.videos[parts[2]]; ok {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

type memSubscriptions struct{ db *memDB }

func (s memSubscriptions) Toggle(_ context.Context, subscriberID, channelID string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[channelID]; !ok {
		return false, repositories.ErrNotFound
	}
	key := subscriberID + ":" + channelID
	if _, ok := s.db.subscriptions[key]; ok {
		delete(s.db.subscriptions, key)
		return false, nil
	}
	s.db.subscriptions[key] = time.Now()
	return true, nil
}

func (s memSubscriptions) list(match func(subscriber, channel string) (string, bool)) []models.UserSummary {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.UserSummary
	for key := range s.db.subscriptions {
		subscriber, channel, _ := strings.Cut(key, ":")
		if id, ok := match(subscriber, channel); ok {
			out = append(out, s.db.users[id].Summary())
		}
	}
	return out
}

func (s memSubscriptions) Channels(_ context.Context, subscriberID string) ([]models.UserSummary, error) {
	return s.list(func(subscriber, channel string) (string, bool) { return channel, subscriber == subscriberID }), nil
}

func (s memSubscriptions) Subscribers(_ context.Context, channelID string) ([]models.UserSummary, error) {
	return s.list(func(subscriber, channel string) (string, bool) { return subscriber, channel == channelID }), nil
}

type memHistory struct{ db *memDB }

func (s memHistory) Record(_ context.Context, userID, videoID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.history[userID] == nil {
		s.db.history[userID] = make(map[string]time.Time)
	}
	s.db.history[userID][videoID] = time.Now()
	return nil
}

func (s memHistory) List(_ context.Context, userID string, p models.Page) ([]models.WatchEntry, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.WatchEntry
	for videoID, at := range s.db.history[userID] {
		out = append(out, models.WatchEntry{Video: s.db.videos[videoID], WatchedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WatchedAt.After(out[j].WatchedAt) })
	return page(out, p), int64(len(out)), nil
}

type memDashboard struct{ db *memDB }

func (s memDashboard) ChannelStats(_ context.Context, ownerID string, window models.TimeWindow) (models.ChannelStats, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	inside := func(t time.Time) bool {
		return (window.From.IsZero() || !t.Before(window.From)) && (window.To.IsZero() || !t.After(window.To))
	}
	var stats models.ChannelStats
	for _, v := range s.db.videos {
		if v.OwnerID != ownerID || !inside(v.CreatedAt) {
			continue
		}
		stats.TotalVideos++
		stats.TotalViews += v.ViewCount
		stats.TotalLikes += v.LikeCount
		stats.TotalComments += v.CommentCount
	}
	for key, at := range s.db.subscriptions {
		_, channel, _ := strings.Cut(key, ":")
		if channel == ownerID && inside(at) {
			stats.SubscriberCount++
		}
	}
	return stats, nil
}

type memStorage struct {
	mu      sync.Mutex
	keys    []string
	deleted []string
	fail    error
}

func (s *memStorage) Save(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	if s.fail != nil {
		return "", s.fail
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return "https://cdn.test/" + key, nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i:i], s.keys[i+1:]...)
			break
		}
	}
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *memStorage) stored() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []string
}

func (q *recordingQueue) Enqueue(videoID, _ string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, videoID)
	return nil
}

type capturingNotifier struct {
	mu    sync.Mutex
	links map[string]string
}

func (n *capturingNotifier) SendPasswordReset(_ context.Context, email, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.links == nil {
		n.links = make(map[string]string)
	}
	n.links[email] = link
	return nil
}

func (n *capturingNotifier) link(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.links[email]
}

// staleLookupUsers misses existing accounts on lookup, as a concurrent
// registration would, so only the insert reports the clash.
type staleLookupUsers struct{ memUsers }

func (staleLookupUsers) FindByUsername(context.Context, string) (models.User, error) {
	return models.User{}, repositories.ErrNotFound
}

func (staleLookupUsers) FindByEmail(context.Context, string) (models.User, error) {
	return models.User{}, repositories.ErrNotFound
}
