package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/benbeisheim/movegen-backend/internal/config"
	"github.com/benbeisheim/movegen-backend/internal/controller"
	"github.com/benbeisheim/movegen-backend/internal/service"
	"github.com/benbeisheim/movegen-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(cfg.LogLevel)

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	// Initialize services
	gameManager := service.NewGameManager(store)
	restored, err := gameManager.Restore()
	if err != nil {
		log.Fatal(err)
	}
	log.Infow("games restored", "count", restored, "dataDir", cfg.DataDir)
	gameService := service.NewGameService(gameManager)

	app := fiber.New(fiber.Config{
		AppName: "movegen-backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: cfg.AllowCredentials,
	}))

	controller.SetupRoutes(app, gameService, cfg.AllowedOrigins)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Errorw("shutdown failed", "error", err)
		}
	}()

	if err := app.Listen(cfg.Addr); err != nil {
		log.Errorw("server stopped", "error", err)
	}
}
