package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-booking/internal/config"
	"github.com/iliyamo/villa-booking/internal/database"
	"github.com/iliyamo/villa-booking/internal/handler"
	"github.com/iliyamo/villa-booking/internal/middleware"
	"github.com/iliyamo/villa-booking/internal/payment"
	"github.com/iliyamo/villa-booking/internal/queue"
	"github.com/iliyamo/villa-booking/internal/repository"
	"github.com/iliyamo/villa-booking/internal/router"
	"github.com/iliyamo/villa-booking/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis is optional; rate limiting and catalog caching turn into
	// no-ops when the client is nil.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting and response cache disabled")
	}

	villaRepo := repository.NewVillaRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	blockRepo := repository.NewBlockedDateRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	if err := seedAdmin(cfg, userRepo); err != nil {
		log.Fatalf("admin seed: %v", err)
	}

	gateway := payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpaySecret)
	bookingSvc := service.NewBookingService(
		villaRepo, bookingRepo, blockRepo,
		gateway, cfg.RazorpaySecret, cfg.Currency,
		service.PublishBookingConfirmed,
	)

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPublicHandler(villaRepo, bookingRepo, blockRepo), cache)
	router.RegisterBooking(e, handler.NewBookingHandler(bookingSvc, bookingRepo))
	router.RegisterAdmin(e, handler.NewAdminHandler(villaRepo, bookingRepo, blockRepo), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// seedAdmin creates the bootstrap admin account from ADMIN_EMAIL and
// ADMIN_PASSWORD when both are set. An account that already exists is
// left untouched, so the seed is safe to run on every start.
func seedAdmin(cfg config.Config, users *repository.UserRepo) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := users.Create(ctx, cfg.AdminEmail, cfg.AdminPassword, "ADMIN", cfg.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return nil
	}
	if err == nil {
		log.Printf("seeded admin account %s", cfg.AdminEmail)
	}
	return err
}
