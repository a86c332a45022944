package services

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/chefdesk/internal/client"
	"github.com/example/chefdesk/internal/models"
)

type staticTokens string

func (t staticTokens) Token() string { return string(t) }

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

func newGateway(t *testing.T, app *fiber.App) *client.Gateway {
	return client.New(startApp(t, app), "en", "", 2*time.Second, nil, zap.NewNop())
}

func TestFetchOrdersDecodesPage(t *testing.T) {
	var gotStatus, gotPage, gotLimit string

	app := fiber.New()
	app.Get(ordersPath, func(c *fiber.Ctx) error {
		gotStatus = c.Query("orderStatus")
		gotPage = c.Query("page")
		gotLimit = c.Query("limit")
		return c.JSON(fiber.Map{
			"docs": []fiber.Map{{
				"_id":       "g1",
				"orderId":   "1042",
				"createdAt": "2025-03-01T12:00:00Z",
				"order": []fiber.Map{{
					"_id":         "i1",
					"orderId":     "1042-1",
					"orderStatus": "Preparing",
					"count":       2,
					"foodDetails": fiber.Map{"name": "Dosa", "price": 50},
				}},
			}},
			"totalDocs": 1,
		})
	})

	svc := NewOrderService(newGateway(t, app), staticTokens("tok"), zap.NewNop())
	page, err := svc.FetchOrders(context.Background(),
		models.Filters{OrderStatus: models.StatusPreparing}, 1, 10)

	require.NoError(t, err)
	assert.Equal(t, "Preparing", gotStatus)
	assert.Equal(t, "1", gotPage)
	assert.Equal(t, "10", gotLimit)

	require.Len(t, page.Docs, 1)
	assert.Equal(t, 1, page.TotalDocs)
	group := page.Docs[0]
	assert.Equal(t, "g1", group.ID)
	require.Len(t, group.Items, 1)
	assert.Equal(t, models.StatusPreparing, group.Items[0].Status)
	assert.Equal(t, int64(100), group.Items[0].TotalPrice())
}

func TestFetchOrdersServerError(t *testing.T) {
	app := fiber.New()
	app.Get(ordersPath, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "db unavailable"})
	})

	svc := NewOrderService(newGateway(t, app), staticTokens("tok"), zap.NewNop())
	_, err := svc.FetchOrders(context.Background(), models.Filters{}, 1, 10)

	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, "db unavailable", srvErr.Message)
}

func TestUpdateOrderStatusBody(t *testing.T) {
	var got statusUpdateRequest

	app := fiber.New()
	app.Put(orderStatusPath, func(c *fiber.Ctx) error {
		require.NoError(t, c.BodyParser(&got))
		return c.JSON(fiber.Map{"success": true})
	})

	svc := NewOrderService(newGateway(t, app), staticTokens("tok"), zap.NewNop())
	err := svc.UpdateOrderStatus(context.Background(), "i1", models.StatusComplete, true)

	require.NoError(t, err)
	assert.Equal(t, "i1", got.OrderID)
	assert.Equal(t, models.StatusComplete, got.NewStatus)
	assert.True(t, got.Completed)
}

func TestLogin(t *testing.T) {
	app := fiber.New()
	app.Post(loginPath, func(c *fiber.Ctx) error {
		var req loginRequest
		require.NoError(t, c.BodyParser(&req))
		if req.Email != "chef@example.com" || req.Password != "secret" {
			return c.JSON(fiber.Map{"messageID": 404})
		}
		return c.JSON(fiber.Map{"data": fiber.Map{"token": "tok-1", "name": "Asha"}})
	})

	svc := NewAuthService(newGateway(t, app))

	result, err := svc.Login(context.Background(), "chef@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", result.Token)
	assert.Equal(t, "Asha", result.Name)

	_, err = svc.Login(context.Background(), "chef@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestFetchCategories(t *testing.T) {
	app := fiber.New()
	app.Get(categoriesPath, func(c *fiber.Ctx) error {
		return c.JSON([]fiber.Map{
			{"_id": "c1", "name": "South Indian"},
			{"_id": "c2", "name": "Beverages"},
		})
	})

	svc := NewCategoryService(newGateway(t, app), staticTokens("tok"))
	categories, err := svc.FetchCategories(context.Background())

	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "South Indian", categories[0].Name)
}

func TestUpdatePaymentStatus(t *testing.T) {
	var got paymentStatusRequest

	app := fiber.New()
	app.Put(paymentStatusPath, func(c *fiber.Ctx) error {
		require.NoError(t, c.BodyParser(&got))
		return c.JSON(fiber.Map{"success": true})
	})

	svc := NewPaymentService(newGateway(t, app), staticTokens("tok"))
	require.NoError(t, svc.UpdatePaymentStatus(context.Background(), "g1", true))

	assert.Equal(t, "g1", got.OrderID)
	assert.True(t, got.Success)
}

func TestCreatePayment(t *testing.T) {
	app := fiber.New()
	app.Post(paymentPath, func(c *fiber.Ctx) error {
		var req PaymentRequest
		require.NoError(t, c.BodyParser(&req))
		assert.Equal(t, int64(250), req.Amount)
		return c.JSON(fiber.Map{"_id": "p1", "success": true})
	})

	svc := NewPaymentService(newGateway(t, app), staticTokens("tok"))
	result, err := svc.CreatePayment(context.Background(),
		PaymentRequest{OrderID: "g1", Amount: 250, Method: "cash"})

	require.NoError(t, err)
	assert.Equal(t, "p1", result.ID)
	assert.True(t, result.Success)
}

func TestCreateOrder(t *testing.T) {
	app := fiber.New()
	app.Post(createOrderPath, func(c *fiber.Ctx) error {
		var req CreateOrderRequest
		require.NoError(t, c.BodyParser(&req))
		require.Len(t, req.Items, 1)
		assert.Equal(t, int64(3), req.Items[0].Count)
		return c.Status(fiber.StatusCreated).
			JSON(fiber.Map{"_id": "g9", "orderId": "1100"})
	})

	svc := NewOrderService(newGateway(t, app), staticTokens("tok"), zap.NewNop())
	created, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []CreateOrderItem{{FoodID: "f1", Count: 3}},
	})

	require.NoError(t, err)
	assert.Equal(t, "g9", created.ID)
	assert.Equal(t, "1100", created.OrderID)
}
