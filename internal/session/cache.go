// Package session mirrors the logged-in attendee's directory record for one
// browser session. The cache never owns data: the directory stays the system
// of record and the cache is rebuilt on login or refresh.
//
// A session moves Anonymous -> Registered (SaveUser) -> Anonymous (ClearAll).
// Storage failures never surface as errors; they read as absent data.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/bdays-network/bdays/internal/directory"
)

const (
	userKey       = "bd_user"
	registeredKey = "bd_registered"
)

// UserPatch is a partial user. Nil fields are left untouched by UpdateUser.
type UserPatch struct {
	ID       *string
	Name     *string
	Email    *string
	Phone    *string
	LinkedIn *string
	Points   *int
	Friends  []directory.Friend
}

// Cache is the view of a single session over a Store.
type Cache struct {
	store     Store
	sessionID string
	logger    *slog.Logger
}

// NewCache scopes store to sessionID.
func NewCache(store Store, sessionID string, logger *slog.Logger) *Cache {
	return &Cache{store: store, sessionID: sessionID, logger: logger}
}

func (c *Cache) key(name string) string {
	return "session:" + c.sessionID + ":" + name
}

func (c *Cache) available(ctx context.Context) bool {
	if c == nil || c.store == nil {
		return false
	}
	if err := c.store.Ping(ctx); err != nil {
		c.warn("session store unavailable", err)
		return false
	}
	return true
}

func (c *Cache) warn(msg string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(msg, slog.String("session_id", c.sessionID), slog.Any("error", err))
}

// GetUser returns the cached user or nil.
func (c *Cache) GetUser(ctx context.Context) *directory.User {
	if !c.available(ctx) {
		return nil
	}
	raw, ok, err := c.store.Get(ctx, c.key(userKey))
	if err != nil {
		c.warn("read cached user", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var u directory.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		c.warn("decode cached user", err)
		return nil
	}
	if u.Friends == nil {
		u.Friends = []directory.Friend{}
	}
	return &u
}

// SaveUser replaces the cached user and marks the session registered.
func (c *Cache) SaveUser(ctx context.Context, u directory.User) {
	if !c.available(ctx) {
		return
	}
	if u.Friends == nil {
		u.Friends = []directory.Friend{}
	}
	payload, err := json.Marshal(u)
	if err != nil {
		c.warn("encode user", err)
		return
	}
	if err := c.store.Set(ctx, c.key(userKey), string(payload)); err != nil {
		c.warn("write cached user", err)
		return
	}
	c.SetRegistered(ctx, true)
}

// UpdateUser merges the set fields of patch onto the cached user and saves
// the result. Without a cached user it does nothing.
func (c *Cache) UpdateUser(ctx context.Context, patch UserPatch) {
	if !c.available(ctx) {
		return
	}
	current := c.GetUser(ctx)
	if current == nil {
		return
	}
	merged := *current
	if patch.ID != nil {
		merged.ID = *patch.ID
	}
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Email != nil {
		merged.Email = *patch.Email
	}
	if patch.Phone != nil {
		merged.Phone = *patch.Phone
	}
	if patch.LinkedIn != nil {
		merged.LinkedIn = *patch.LinkedIn
	}
	if patch.Points != nil {
		merged.Points = *patch.Points
	}
	if patch.Friends != nil {
		merged.Friends = patch.Friends
	}
	c.SaveUser(ctx, merged)
}

// AddFriend appends friend unless one with the same e-mail is already listed.
// It reports whether the list changed.
func (c *Cache) AddFriend(ctx context.Context, friend directory.Friend) bool {
	if !c.available(ctx) {
		return false
	}
	u := c.GetUser(ctx)
	if u == nil || HasFriend(u, friend.Email) {
		return false
	}
	friends := make([]directory.Friend, 0, len(u.Friends)+1)
	friends = append(friends, u.Friends...)
	friends = append(friends, friend)
	c.UpdateUser(ctx, UserPatch{Friends: friends})
	return true
}

// HasFriend reports whether u lists a friend with the given e-mail.
func HasFriend(u *directory.User, email string) bool {
	if u == nil {
		return false
	}
	for _, f := range u.Friends {
		if f.Email == email {
			return true
		}
	}
	return false
}

// IsRegistered reports the registered flag.
func (c *Cache) IsRegistered(ctx context.Context) bool {
	if !c.available(ctx) {
		return false
	}
	raw, ok, err := c.store.Get(ctx, c.key(registeredKey))
	if err != nil {
		c.warn("read registered flag", err)
		return false
	}
	return ok && raw == "true"
}

// SetRegistered stores the registered flag.
func (c *Cache) SetRegistered(ctx context.Context, registered bool) {
	if !c.available(ctx) {
		return
	}
	if err := c.store.Set(ctx, c.key(registeredKey), strconv.FormatBool(registered)); err != nil {
		c.warn("write registered flag", err)
	}
}

// ClearAll drops the cached user and the registered flag.
func (c *Cache) ClearAll(ctx context.Context) {
	if !c.available(ctx) {
		return
	}
	if err := c.store.Delete(ctx, c.key(userKey), c.key(registeredKey)); err != nil {
		c.warn("clear session", err)
	}
}
