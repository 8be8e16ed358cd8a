// Package directory is a thin typed client for the remote attendee directory.
// Every exported call issues exactly one HTTP request. Nothing is retried and
// no timeout is imposed beyond the caller's context and the supplied
// http.Client.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrUnexpectedStatus is wrapped by StatusError.
var ErrUnexpectedStatus = errors.New("unexpected directory status")

// StatusError is returned for non-2xx directory responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("directory responded %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// FriendParams names the two query parameters of add-friends.
type FriendParams struct {
	First  string
	Second string
}

// DefaultFriendParams are the names used by the service layer. The debug
// tooling of the directory used user1/user2; which one the live endpoint
// honours is unconfirmed, so the pair is configurable.
var DefaultFriendParams = FriendParams{First: "id1", Second: "id2"}

// Options tune the request shapes of a Client.
type Options struct {
	// WriteMethod is http.MethodPost (JSON body) or http.MethodGet (query).
	WriteMethod  string
	FriendParams FriendParams
	HTTPClient   *http.Client
}

// Client issues directory calls.
type Client struct {
	endpoints    Endpoints
	http         *http.Client
	writeMethod  string
	friendParams FriendParams
}

// NewClient builds a directory client. Zero-valued options fall back to GET
// writes, DefaultFriendParams and a plain http.Client. Calls are bounded only
// by the context passed in.
func NewClient(endpoints Endpoints, opts Options) *Client {
	c := &Client{
		endpoints:    endpoints,
		http:         opts.HTTPClient,
		writeMethod:  strings.ToUpper(opts.WriteMethod),
		friendParams: opts.FriendParams,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.writeMethod != http.MethodPost {
		c.writeMethod = http.MethodGet
	}
	if c.friendParams.First == "" || c.friendParams.Second == "" {
		c.friendParams = DefaultFriendParams
	}
	return c
}

// WriteUser creates or updates an attendee record.
func (c *Client) WriteUser(ctx context.Context, name, email, phone, linkedin string) (WriteResult, error) {
	var (
		body []byte
		err  error
	)
	if c.writeMethod == http.MethodGet {
		body, err = c.get(ctx, c.endpoints.WriteUser, url.Values{
			"name":     {name},
			"email":    {email},
			"phone":    {phone},
			"linkedin": {linkedin},
		})
	} else {
		body, err = c.postJSON(ctx, c.endpoints.WriteUser, map[string]string{
			"name":     name,
			"email":    email,
			"phone":    phone,
			"linkedin": linkedin,
		})
	}
	if err != nil {
		return WriteResult{}, fmt.Errorf("write user: %w", err)
	}
	return classifyWrite(body), nil
}

// ReadUser fetches an attendee by directory id.
func (c *Client) ReadUser(ctx context.Context, id string) (Lookup, error) {
	return c.lookup(ctx, "read user", c.endpoints.ReadUser, url.Values{"id": {id}})
}

// ReadByName searches attendees by name. Matching happens on the directory side.
func (c *Client) ReadByName(ctx context.Context, name string) (Lookup, error) {
	return c.lookup(ctx, "read by name", c.endpoints.ReadByName, url.Values{"name": {name}})
}

// ReadUserByEmail fetches an attendee by e-mail.
func (c *Client) ReadUserByEmail(ctx context.Context, email string) (Lookup, error) {
	return c.lookup(ctx, "read user by email", c.endpoints.ReadUserByEmail, url.Values{"email": {email}})
}

// AddFriends records a connection between two attendee ids and reports
// whether the directory answered with a truthy body.
func (c *Client) AddFriends(ctx context.Context, first, second string) (bool, error) {
	body, err := c.get(ctx, c.endpoints.AddFriends, url.Values{
		c.friendParams.First:  {first},
		c.friendParams.Second: {second},
	})
	if err != nil {
		return false, fmt.Errorf("add friends: %w", err)
	}
	return truthy(body), nil
}

// GetLeaderboard fetches the raw leaderboard.
func (c *Client) GetLeaderboard(ctx context.Context) (Lookup, error) {
	return c.lookup(ctx, "get leaderboard", c.endpoints.GetLeaderboard, nil)
}

func (c *Client) lookup(ctx context.Context, op, endpoint string, params url.Values) (Lookup, error) {
	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return Lookup{}, fmt.Errorf("%s: %w", op, err)
	}
	res, err := decodeLookup(body)
	if err != nil {
		return Lookup{}, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	target := endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
