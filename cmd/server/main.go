package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/safaria/booking-server/internal/config"
	"github.com/safaria/booking-server/internal/database"
	"github.com/safaria/booking-server/internal/handler"
	"github.com/safaria/booking-server/internal/queue"
	"github.com/safaria/booking-server/internal/receipt"
	"github.com/safaria/booking-server/internal/repository"
	"github.com/safaria/booking-server/internal/router"
	qp "github.com/safaria/booking-server/internal/service"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	cld, err := config.NewCloudinary()
	if err != nil {
		log.Fatalf("cloudinary: %v", err)
	}

	// Redis only backs the rate limiter; the server runs without it.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	catalog := repository.NewCatalogRepo(db)
	reservations := repository.NewReservationRepo(db)
	payments := repository.NewPaymentRepo(db)
	outbox := repository.NewReceiptOutboxRepo(db)

	completer := &receipt.Completer{
		Reservations: reservations,
		Payments:     payments,
		Outbox:       outbox,
		Store:        receipt.NewStore(cld),
	}

	// The broker is optional: without it, deferred receipts are picked
	// up by the worker's outbox sweep alone.
	var requester handler.ReceiptRequester
	if cfg.AMQPURL != "" {
		requester = qp.Publisher{}
	}

	worker := &queue.ReceiptWorker{Completer: completer, Outbox: outbox, BrokerURL: cfg.AMQPURL}
	go worker.Start(context.Background())

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, users, tokens),
		Catalog: handler.NewCatalogHandler(cfg, catalog),
		Payment: handler.NewPaymentHandler(cfg, catalog, reservations, payments, outbox, completer, requester),
		Admin:   handler.NewAdminReservationHandler(cfg, reservations),
	}, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
