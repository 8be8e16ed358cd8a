package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/bdays-network/bdays/internal/logging"
)

type testEnv struct {
	app   *fiber.App
	mr    *miniredis.Miniredis
	cache *redis.Client
	calls *int
}

func setupTestApp(t *testing.T, status int) testEnv {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	calls := 0
	app := fiber.New()
	app.Use(Session(false, 0))
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/connect", func(c *fiber.Ctx) error {
		calls++
		return c.Status(status).JSON(fiber.Map{"calls": calls})
	})

	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})
	return testEnv{app: app, mr: mr, cache: cache, calls: &calls}
}

func postConnect(t *testing.T, app *fiber.App, key, cookie string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/connect", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	return resp, string(body)
}

const testSession = "0b5f7c3e-4b8f-4a57-9d7e-0d5c9b1f2a11"

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	env := setupTestApp(t, fiber.StatusOK)

	postConnect(t, env.app, "", testSession)
	postConnect(t, env.app, "", testSession)

	if *env.calls != 2 {
		t.Fatalf("expected handler to run twice, ran %d", *env.calls)
	}
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	env := setupTestApp(t, fiber.StatusOK)

	resp, first := postConnect(t, env.app, "abc123", testSession)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected status %d got %d", fiber.StatusOK, resp.StatusCode)
	}

	resp2, second := postConnect(t, env.app, "abc123", testSession)
	if resp2.StatusCode != fiber.StatusOK {
		t.Fatalf("expected cached status %d got %d", fiber.StatusOK, resp2.StatusCode)
	}
	if first != second {
		t.Fatalf("expected cached payload %s got %s", first, second)
	}
	if *env.calls != 1 {
		t.Fatalf("expected handler to run once, ran %d", *env.calls)
	}
}

func TestIdempotencyKeysAreScopedBySession(t *testing.T) {
	env := setupTestApp(t, fiber.StatusOK)

	postConnect(t, env.app, "same", testSession)
	postConnect(t, env.app, "same", "9a1f1f0e-1c1e-4a4a-8b8b-123456789abc")

	if *env.calls != 2 {
		t.Fatalf("expected each session to run the handler, ran %d", *env.calls)
	}
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	env := setupTestApp(t, fiber.StatusBadGateway)

	postConnect(t, env.app, "retry-me", testSession)
	postConnect(t, env.app, "retry-me", testSession)

	if *env.calls != 2 {
		t.Fatalf("expected failed attempt to be retryable, ran %d", *env.calls)
	}
}

func TestIdempotencyFailsOpenWhenRedisDown(t *testing.T) {
	env := setupTestApp(t, fiber.StatusOK)
	env.mr.Close()

	resp, _ := postConnect(t, env.app, "k", testSession)
	if resp.StatusCode != fiber.StatusOK || *env.calls != 1 {
		t.Fatalf("expected request to run without redis, status=%d calls=%d", resp.StatusCode, *env.calls)
	}
}
