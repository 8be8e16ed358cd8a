package networking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/bdays-network/bdays/internal/directory"
	"github.com/bdays-network/bdays/internal/middleware"
	"github.com/bdays-network/bdays/internal/notification"
	"github.com/bdays-network/bdays/internal/session"
)

// Handler exposes the attendee flows over HTTP. Each request works on the
// session cache of the calling browser.
type Handler struct {
	service  *Service
	store    session.Store
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewHandler constructs a networking HTTP handler.
func NewHandler(service *Service, store session.Store, notifier notification.Notifier, logger *slog.Logger) *Handler {
	return &Handler{service: service, store: store, notifier: notifier, logger: logger}
}

type profileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LinkedIn string `json:"linkedin"`
}

type loginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type profilePatch struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	LinkedIn *string `json:"linkedin"`
}

type sessionResponse struct {
	User       *directory.User `json:"user"`
	Registered bool            `json:"registered"`
	Message    string          `json:"message,omitempty"`
}

type searchResult struct {
	directory.Friend
	IsFriend bool `json:"is_friend"`
}

func (h *Handler) cache(c *fiber.Ctx) *session.Cache {
	return session.NewCache(h.store, middleware.SessionID(c), h.logger)
}

func (h *Handler) notify(c *fiber.Ctx, kind string, level notification.Level, body string) string {
	if h.notifier != nil {
		msg := notification.Message{Kind: kind, Level: level, Destination: middleware.SessionID(c), Body: body}
		if err := h.notifier.Send(c.UserContext(), msg); err != nil {
			h.logger.Warn("send notification", slog.String("kind", kind), slog.Any("error", err))
		}
	}
	return body
}

// Register writes a new attendee to the directory, then logs in to learn the
// directory id. When that lookup fails the submitted profile is cached
// without an id.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "name and email are required")
	}

	ctx := c.UserContext()
	user := directory.User{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    strings.TrimSpace(req.Phone),
		LinkedIn: strings.TrimSpace(req.LinkedIn),
		Friends:  []directory.Friend{},
	}
	if !h.service.RegisterUser(ctx, user) {
		h.notify(c, notification.KindRegistration, notification.LevelError, "registration failed")
		return fiber.NewError(http.StatusBadGateway, "registration failed, please try again")
	}

	if registered := h.service.LoginUser(ctx, user.Email, user.Name); registered != nil {
		user = *registered
	} else {
		h.logger.Warn("registered user not found by email yet", slog.String("email", user.Email))
	}

	cache := h.cache(c)
	cache.SaveUser(ctx, user)
	msg := h.notify(c, notification.KindRegistration, notification.LevelSuccess, "registration complete")
	return c.Status(http.StatusCreated).JSON(sessionResponse{User: &user, Registered: cache.IsRegistered(ctx), Message: msg})
}

// Login looks the attendee up by e-mail and name.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "email and name are required")
	}

	ctx := c.UserContext()
	user := h.service.LoginUser(ctx, req.Email, req.Name)
	if user == nil {
		return fiber.NewError(http.StatusUnauthorized, "no attendee matches this email and name")
	}

	cache := h.cache(c)
	cache.SaveUser(ctx, *user)
	msg := h.notify(c, notification.KindLogin, notification.LevelSuccess, "welcome back, "+user.Name)
	return c.Status(http.StatusOK).JSON(sessionResponse{User: user, Registered: cache.IsRegistered(ctx), Message: msg})
}

// Me returns the cached attendee.
func (h *Handler) Me(c *fiber.Ctx) error {
	ctx := c.UserContext()
	cache := h.cache(c)
	user := cache.GetUser(ctx)
	if user == nil {
		return fiber.NewError(http.StatusNotFound, "not logged in")
	}
	return c.JSON(sessionResponse{User: user, Registered: cache.IsRegistered(ctx)})
}

// UpdateProfile edits the cached profile. The directory has no update
// operation, so the change stays local until the next refresh.
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var req profilePatch
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return fiber.NewError(http.StatusBadRequest, "name cannot be empty")
	}
	if req.Email != nil && strings.TrimSpace(*req.Email) == "" {
		return fiber.NewError(http.StatusBadRequest, "email cannot be empty")
	}

	ctx := c.UserContext()
	cache := h.cache(c)
	if cache.GetUser(ctx) == nil {
		return fiber.NewError(http.StatusNotFound, "not logged in")
	}
	cache.UpdateUser(ctx, session.UserPatch{Name: req.Name, Email: req.Email, Phone: req.Phone, LinkedIn: req.LinkedIn})

	msg := h.notify(c, notification.KindProfileUpdate, notification.LevelSuccess, "profile updated")
	return c.JSON(sessionResponse{User: cache.GetUser(ctx), Registered: cache.IsRegistered(ctx), Message: msg})
}

// Refresh replaces the cached attendee with the directory's current record.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	ctx := c.UserContext()
	cache := h.cache(c)
	current := cache.GetUser(ctx)
	if current == nil {
		return fiber.NewError(http.StatusNotFound, "not logged in")
	}
	if current.ID == "" {
		return fiber.NewError(http.StatusConflict, "profile has no directory id yet, log in again")
	}

	fresh := h.service.GetUserByID(ctx, current.ID)
	if fresh == nil {
		h.notify(c, notification.KindRefresh, notification.LevelError, "refresh failed")
		return fiber.NewError(http.StatusBadGateway, "could not refresh profile")
	}
	cache.SaveUser(ctx, *fresh)
	msg := h.notify(c, notification.KindRefresh, notification.LevelSuccess, "profile refreshed")
	return c.JSON(sessionResponse{User: fresh, Registered: cache.IsRegistered(ctx), Message: msg})
}

// Search finds attendees by name and flags those already connected.
func (h *Handler) Search(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return fiber.NewError(http.StatusBadRequest, "missing search query")
	}

	ctx := c.UserContext()
	current := h.cache(c).GetUser(ctx)
	friends := h.service.SearchUsers(ctx, query)
	results := make([]searchResult, 0, len(friends))
	for _, f := range friends {
		results = append(results, searchResult{Friend: f, IsFriend: session.HasFriend(current, f.Email)})
	}
	return c.JSON(fiber.Map{"results": results})
}

// Connect adds friend to the attendee's connections and awards points.
func (h *Handler) Connect(c *fiber.Ctx) error {
	var friend directory.Friend
	if err := c.BodyParser(&friend); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(friend.Email) == "" {
		return fiber.NewError(http.StatusBadRequest, "friend email is required")
	}

	ctx := c.UserContext()
	cache := h.cache(c)
	current := cache.GetUser(ctx)
	if current == nil {
		return fiber.NewError(http.StatusUnauthorized, "log in to connect with attendees")
	}
	if session.HasFriend(current, friend.Email) {
		return fiber.NewError(http.StatusConflict, "already connected")
	}
	if current.ID == "" || friend.ID == "" {
		h.notify(c, notification.KindConnection, notification.LevelWarning, "missing attendee details")
		return fiber.NewError(http.StatusBadRequest, "attendee details are incomplete, cannot connect")
	}

	if !h.service.ConnectWithUser(ctx, *current, friend) {
		h.notify(c, notification.KindConnection, notification.LevelError, "connection failed")
		return fiber.NewError(http.StatusBadGateway, "could not connect, please try again")
	}

	cache.AddFriend(ctx, friend)
	points := current.Points + PointsPerConnection
	cache.UpdateUser(ctx, session.UserPatch{Points: &points})

	msg := h.notify(c, notification.KindConnection, notification.LevelSuccess, fmt.Sprintf("connected with %s", friend.Name))
	return c.JSON(fiber.Map{
		"user":           cache.GetUser(ctx),
		"points_awarded": PointsPerConnection,
		"message":        msg,
	})
}

// Leaderboard returns the top attendees by points.
func (h *Handler) Leaderboard(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"leaderboard": h.service.GetLeaderboard(c.UserContext())})
}

// Logout clears the session cache.
func (h *Handler) Logout(c *fiber.Ctx) error {
	ctx := c.UserContext()
	cache := h.cache(c)
	cache.ClearAll(ctx)
	msg := h.notify(c, notification.KindLogout, notification.LevelInfo, "logged out")
	return c.JSON(sessionResponse{Registered: cache.IsRegistered(ctx), Message: msg})
}

// TestRegistration writes a synthetic attendee and returns the raw directory
// answer. Diagnostics only.
func (h *Handler) TestRegistration(c *fiber.Ctx) error {
	res, err := h.service.TestRegistration(c.UserContext())
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	resp := fiber.Map{"success": res.OK()}
	if body := res.Body(); len(body) > 0 {
		if json.Valid(body) {
			resp["data"] = body
		} else {
			resp["data"] = string(body)
		}
	}
	if !res.OK() {
		resp["error"] = res.Reason()
	}
	return c.JSON(resp)
}
