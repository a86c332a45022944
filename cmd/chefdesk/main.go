package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/example/chefdesk/internal/client"
	"github.com/example/chefdesk/internal/config"
	"github.com/example/chefdesk/internal/logger"
	"github.com/example/chefdesk/internal/orderstore"
	"github.com/example/chefdesk/internal/realtime"
	"github.com/example/chefdesk/internal/services"
	"github.com/example/chefdesk/internal/session"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer zlog.Sync()

	sessions, err := session.Open(cfg.StateDBPath, zlog)
	if err != nil {
		zlog.Fatal("state db init failed", zap.Error(err))
	}

	deviceID, err := sessions.DeviceID()
	if err != nil {
		zlog.Fatal("device id init failed", zap.Error(err))
	}
	zlog.Info("starting chefdesk", zap.String("device_id", deviceID))

	gw := client.New(cfg.APIBaseURL, cfg.Lang, cfg.IPResolverURL, cfg.HTTPTimeout, sessions, zlog)

	auth := services.NewAuthService(gw)
	orders := services.NewOrderService(gw, sessions, zlog)
	categories := services.NewCategoryService(gw, sessions)
	payments := services.NewPaymentService(gw, sessions)

	store := orderstore.New(orders, cfg.PageLimit, zlog)

	channel := realtime.NewChannel(cfg.SocketURL, zlog)
	realtime.SubscribeOrderStatus(channel, zlog, store.ApplyRealtimeUpdate)
	if err := channel.Connect(context.Background()); err != nil {
		// The feed still works over REST; pushes resume once the
		// channel reconnects.
		zlog.Warn("socket connect failed", zap.Error(err))
	}
	defer channel.Close()

	console := newConsole(os.Stdin, os.Stdout, store, auth, orders, categories, payments, sessions, zlog)
	if err := console.run(context.Background()); err != nil {
		zlog.Fatal("console exited", zap.Error(err))
	}
}
