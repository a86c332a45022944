package client

import (
	"context"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	logouts atomic.Int64
}

func (s *recordingSink) Logout() { s.logouts.Add(1) }

// startApp serves a fiber app on a loopback listener and returns its
// base URL.
func startApp(t *testing.T, app *fiber.App) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ready := make(chan struct{})
	app.Hooks().OnListen(func(fiber.ListenData) error {
		close(ready)
		return nil
	})
	go func() { _ = app.Listener(ln) }()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("backend never came up")
	}
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String()
}

func newGateway(baseURL string, sink SessionSink) *Gateway {
	return New(baseURL, "en", "", 2*time.Second, sink, zap.NewNop())
}

func TestGetAttachesHeadersAndParams(t *testing.T) {
	var gotAuth, gotLang, gotSearch string

	app := fiber.New()
	app.Get("/api/order/all", func(c *fiber.Ctx) error {
		gotAuth = c.Get("Authorization")
		gotLang = c.Get("lang")
		gotSearch = c.Query("search")
		return c.JSON(fiber.Map{"docs": []any{}, "totalDocs": 0})
	})

	gw := newGateway(startApp(t, app), nil)
	res, err := gw.Get(context.Background(), "/api/order/all",
		map[string]string{"search": "1042"}, "tok-123")

	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "en", gotLang)
	assert.Equal(t, "1042", gotSearch)

	var payload struct {
		TotalDocs int `json:"totalDocs"`
	}
	require.NoError(t, res.Decode(&payload))
	assert.Equal(t, 0, payload.TotalDocs)
}

func TestNoTokenMeansNoAuthorizationHeader(t *testing.T) {
	var sawAuth bool

	app := fiber.New()
	app.Get("/public", func(c *fiber.Ctx) error {
		sawAuth = c.Get("Authorization") != ""
		return c.SendString("{}")
	})

	gw := newGateway(startApp(t, app), nil)
	_, err := gw.Get(context.Background(), "/public", nil, "")

	require.NoError(t, err)
	assert.False(t, sawAuth)
}

func TestServerErrorResolvesWithBody(t *testing.T) {
	app := fiber.New()
	app.Put("/api/order/status", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusUnprocessableEntity).
			JSON(fiber.Map{"error": "invalid transition"})
	})

	sink := &recordingSink{}
	gw := newGateway(startApp(t, app), sink)
	res, err := gw.Put(context.Background(), "/api/order/status",
		fiber.Map{"orderId": "x"}, "tok")

	// Resolved, not rejected: the caller must branch on the kind.
	require.NoError(t, err)
	assert.Equal(t, KindServer, res.Kind)
	assert.Equal(t, fiber.StatusUnprocessableEntity, res.Status)
	assert.Contains(t, string(res.Body), "invalid transition")
	assert.Equal(t, int64(0), sink.logouts.Load())
}

func TestUnauthorizedFiresLogoutSink(t *testing.T) {
	app := fiber.New()
	app.Get("/api/order/all", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"error": "token expired"})
	})

	sink := &recordingSink{}
	gw := newGateway(startApp(t, app), sink)
	res, err := gw.Get(context.Background(), "/api/order/all", nil, "stale")

	require.NoError(t, err)
	assert.Equal(t, KindAuth, res.Kind)
	assert.Contains(t, string(res.Body), "token expired")
	assert.Equal(t, int64(1), sink.logouts.Load())
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	// A port nothing listens on.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	gw := newGateway("http://"+addr, nil)
	_, err = gw.Get(context.Background(), "/api/order/all", nil, "")

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
}

func TestPatchAndDelete(t *testing.T) {
	var patched fiber.Map
	var deleted bool

	app := fiber.New()
	app.Patch("/api/profile", func(c *fiber.Ctx) error {
		require.NoError(t, c.BodyParser(&patched))
		return c.JSON(fiber.Map{"success": true})
	})
	app.Delete("/api/notification/n1", func(c *fiber.Ctx) error {
		deleted = true
		return c.SendStatus(fiber.StatusNoContent)
	})

	gw := newGateway(startApp(t, app), nil)

	res, err := gw.Patch(context.Background(), "/api/profile",
		fiber.Map{"name": "Asha"}, "tok")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "Asha", patched["name"])

	res, err = gw.Delete(context.Background(), "/api/notification/n1", "tok")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.True(t, deleted)
}

func TestMultipartPassesRawForm(t *testing.T) {
	var gotContentType, gotName string

	app := fiber.New()
	app.Post("/api/food", func(c *fiber.Ctx) error {
		gotContentType = c.Get("Content-Type")
		gotName = c.FormValue("name")
		return c.SendStatus(fiber.StatusCreated)
	})

	gw := newGateway(startApp(t, app), nil)
	res, err := gw.PostMultipart(context.Background(), "/api/food",
		map[string]string{"name": "Margherita"}, "tok")

	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.True(t, strings.HasPrefix(gotContentType, "multipart/form-data"))
	assert.Equal(t, "Margherita", gotName)
}

func TestCallerIPResolvedOnceAtConstruction(t *testing.T) {
	var resolves atomic.Int64
	var gotIP string

	app := fiber.New()
	app.Get("/ip", func(c *fiber.Ctx) error {
		resolves.Add(1)
		return c.JSON(fiber.Map{"ip": "203.0.113.7"})
	})
	app.Get("/echo", func(c *fiber.Ctx) error {
		gotIP = c.Get("ipAddress")
		return c.SendString("{}")
	})

	base := startApp(t, app)
	gw := New(base, "en", base+"/ip", 2*time.Second, nil, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := gw.Get(context.Background(), "/echo", nil, "")
		require.NoError(t, err)
	}

	assert.Equal(t, "203.0.113.7", gotIP)
	assert.Equal(t, int64(1), resolves.Load())
}

func TestResolverFailureLeavesHeaderEmpty(t *testing.T) {
	var gotIP = "unset"

	app := fiber.New()
	app.Get("/echo", func(c *fiber.Ctx) error {
		gotIP = c.Get("ipAddress")
		return c.SendString("{}")
	})

	base := startApp(t, app)
	gw := New(base, "en", "http://127.0.0.1:1/ip", 2*time.Second, nil, zap.NewNop())

	_, err := gw.Get(context.Background(), "/echo", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "", gotIP)
}
