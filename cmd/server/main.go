package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/dernsupport/service-desk/internal/config"
	"github.com/dernsupport/service-desk/internal/database"
	"github.com/dernsupport/service-desk/internal/handler"
	"github.com/dernsupport/service-desk/internal/queue"
	"github.com/dernsupport/service-desk/internal/repository"
	"github.com/dernsupport/service-desk/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client turns the cache and rate limiter
	// into pass-through middleware.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	types := repository.NewServiceTypeRepo(db)
	requests := repository.NewServiceRequestRepo(db)
	items := repository.NewInventoryRepo(db)
	notifications := repository.NewNotificationRepo(db)
	tickets := repository.NewSupportRepo(db)

	notifier := handler.NewNotifier(notifications)

	auth := handler.NewAuthHandler(cfg, users, notifier)
	admin := handler.NewAdminHandler(cfg, users)
	catalog := handler.NewServiceTypeHandler(types, requests)
	reqs := handler.NewRequestHandler(cfg, requests, types, users, notifier)
	inventory := handler.NewInventoryHandler(items, notifier)
	notif := handler.NewNotificationHandler(notifications)
	support := handler.NewSupportHandler(tickets, users, notifier)
	payments := handler.NewPaymentHandler(requests, notifier)
	dashboard := handler.NewDashboardHandler(users, requests, tickets)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterPublic(e, cfg, rdb, auth, catalog, reqs, support)
	router.RegisterCustomer(e, cfg.JWTSecret, auth, reqs, payments, support, dashboard)
	router.RegisterStaff(e, cfg.JWTSecret, reqs, inventory, catalog, admin, payments, support, notif)

	// Background consumer for completed-request events; it reconnects
	// on its own and never takes the server down.
	go func() {
		if err := queue.StartCompletedConsumer(); err != nil {
			log.Printf("completed-consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
