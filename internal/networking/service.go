package networking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/bdays-network/bdays/internal/directory"
)

const (
	// PointsPerConnection is awarded to the attendee who initiates a connection.
	PointsPerConnection = 50
	leaderboardSize     = 10
)

// Directory is the subset of the directory client the service depends on.
type Directory interface {
	WriteUser(ctx context.Context, name, email, phone, linkedin string) (directory.WriteResult, error)
	ReadUser(ctx context.Context, id string) (directory.Lookup, error)
	ReadByName(ctx context.Context, name string) (directory.Lookup, error)
	ReadUserByEmail(ctx context.Context, email string) (directory.Lookup, error)
	AddFriends(ctx context.Context, first, second string) (bool, error)
	GetLeaderboard(ctx context.Context) (directory.Lookup, error)
}

// LeaderboardEntry is a ranked attendee.
type LeaderboardEntry struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Points int    `json:"points"`
}

// Service composes directory calls into attendee operations. Failures are
// logged and reported as false, nil or an empty list.
type Service struct {
	dir    Directory
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a networking service.
func NewService(dir Directory, logger *slog.Logger) *Service {
	return &Service{dir: dir, logger: logger, now: time.Now}
}

// RegisterUser writes the attendee to the directory.
func (s *Service) RegisterUser(ctx context.Context, u directory.User) bool {
	res, err := s.dir.WriteUser(ctx, u.Name, u.Email, u.Phone, u.LinkedIn)
	if err != nil {
		s.logger.Error("register user", slog.String("email", u.Email), slog.Any("error", err))
		return false
	}
	if !res.OK() {
		s.logger.Error("directory rejected registration", slog.String("email", u.Email), slog.String("reason", res.Reason()))
		return false
	}
	return true
}

// LoginUser fetches the attendee by e-mail and accepts it when the stored name
// matches name case-insensitively. Nil means no match or a failed lookup.
func (s *Service) LoginUser(ctx context.Context, email, name string) *directory.User {
	res, err := s.dir.ReadUserByEmail(ctx, email)
	if err != nil {
		s.logger.Error("login user", slog.String("email", email), slog.Any("error", err))
		return nil
	}
	u, ok := res.First()
	if !ok || u.Name == "" || strings.ToLower(u.Name) != strings.ToLower(name) {
		return nil
	}
	return &u
}

// SearchUsers looks attendees up by name.
func (s *Service) SearchUsers(ctx context.Context, query string) []directory.Friend {
	friends := []directory.Friend{}
	res, err := s.dir.ReadByName(ctx, query)
	if err != nil {
		s.logger.Error("search users", slog.String("query", query), slog.Any("error", err))
		return friends
	}
	for _, u := range res.All() {
		friends = append(friends, u.AsFriend())
	}
	return friends
}

// ConnectWithUser records a connection between current and friend. Both need
// directory ids; otherwise no call is made.
func (s *Service) ConnectWithUser(ctx context.Context, current directory.User, friend directory.Friend) bool {
	if current.ID == "" || friend.ID == "" {
		s.logger.Warn("cannot connect users: missing id",
			slog.String("user_email", current.Email), slog.String("friend_email", friend.Email))
		return false
	}
	ok, err := s.dir.AddFriends(ctx, current.ID, friend.ID)
	if err != nil {
		s.logger.Error("connect users", slog.String("user_id", current.ID), slog.String("friend_id", friend.ID), slog.Any("error", err))
		return false
	}
	return ok
}

// GetUserByID fetches a fresh copy of an attendee record.
func (s *Service) GetUserByID(ctx context.Context, id string) *directory.User {
	res, err := s.dir.ReadUser(ctx, id)
	if err != nil {
		s.logger.Error("get user", slog.String("user_id", id), slog.Any("error", err))
		return nil
	}
	u, ok := res.First()
	if !ok {
		return nil
	}
	if res.Shape() == directory.ShapeSingle && u.ID == "" {
		return nil
	}
	return &u
}

// GetLeaderboard returns at most ten attendees ordered by points, highest
// first, whatever order the directory used.
func (s *Service) GetLeaderboard(ctx context.Context) []LeaderboardEntry {
	entries := []LeaderboardEntry{}
	res, err := s.dir.GetLeaderboard(ctx)
	if err != nil {
		s.logger.Error("get leaderboard", slog.Any("error", err))
		return entries
	}
	for _, u := range res.All() {
		entries = append(entries, LeaderboardEntry{ID: u.ID, Name: u.Name, Email: u.Email, Points: u.Points})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Points > entries[j].Points })
	if len(entries) > leaderboardSize {
		entries = entries[:leaderboardSize]
	}
	return entries
}

// TestRegistration writes a synthetic attendee with a unique e-mail. It is a
// diagnostics aid for checking the write path end to end.
func (s *Service) TestRegistration(ctx context.Context) (directory.WriteResult, error) {
	u := directory.User{
		Name:     "Test User",
		Email:    fmt.Sprintf("test.user.%d@example.com", s.now().UnixMilli()),
		Phone:    "+905551234567",
		LinkedIn: "https://linkedin.com/in/testuser",
	}
	s.logger.Info("sending test registration", slog.String("email", u.Email))
	return s.dir.WriteUser(ctx, u.Name, u.Email, u.Phone, u.LinkedIn)
}
