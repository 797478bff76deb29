package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/robfig/cron"

	config "github.com/maheshrc27/postpipe/configs"
	"github.com/maheshrc27/postpipe/internal/api/handlers"
	"github.com/maheshrc27/postpipe/internal/api/middleware"
	"github.com/maheshrc27/postpipe/internal/bootstrap"
	job "github.com/maheshrc27/postpipe/internal/jobs"
	"github.com/maheshrc27/postpipe/internal/logging"
	"github.com/maheshrc27/postpipe/internal/queue"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	slog.SetDefault(logging.New(cfg.LogLevel))

	ctx := context.Background()
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer app.Close()

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	server := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	server.Use(logger.New())
	server.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	authMiddleware := middleware.NewAuthMiddleware(*cfg)
	handlers.RegisterRoutes(server, authMiddleware.AuthMiddleware(),
		handlers.NewWorkflowHandler(app.Workflow, client),
		handlers.NewPostHandler(app.Workflow))

	// cron jobs
	runJob := job.NewRunJob(client)
	c := cron.New()
	if err := runJob.Register(c, cfg.ScheduleCron, cfg.PublishCron); err != nil {
		log.Fatalf("Invalid cron spec: %v", err)
	}
	c.Start()
	defer c.Stop()

	//queue: shares app.Workflow with the handlers, so queued and inline runs take the same platform locks
	queueW := queue.NewQueue(app.Workflow)
	worker := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 2,
	})

	mux := asynq.NewServeMux()
	queueW.Register(mux)

	log.Println("Starting the Asynq server...")
	if err := worker.Start(mux); err != nil {
		log.Fatalf("Could not start Asynq server: %v", err)
	}

	go func() {
		if err := server.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(server, worker)
}

func gracefulShutdown(server *fiber.App, worker *asynq.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := server.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}
	worker.Shutdown()

	log.Println("Server shutdown complete.")
}
