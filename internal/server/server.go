package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"backend-fittrack/internal/auth"
	"backend-fittrack/internal/config"
	"backend-fittrack/internal/db"
	"backend-fittrack/internal/stream"
	"backend-fittrack/internal/workout"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Stream  *stream.Hub
	Workout *workout.Service
	Log     *slog.Logger
}

func NewServer(cfg config.Config, pg *pgxpool.Pool, redisClient *redis.Client, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler(log)})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     pg,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient, log),
		Log:    log,
	}

	var idem workout.IdempotencyStore
	if redisClient != nil {
		idem = workout.NewRedisIdempotency(redisClient, cfg.IdempotencyTTL)
	}
	s.Workout = workout.NewService(
		workout.NewStructuredStore(pg),
		workout.NewLegacyStore(pg),
		idem,
		s.Stream,
		log,
	)

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/health/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := db.Ready(ctx, s.DB, s.Redis); err != nil {
			s.Log.Warn("readiness check failed", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	api := s.App.Group("/api")
	workout.RegisterUserRoutes(api.Group("/user"), s.Workout, jwtMiddleware)
	workout.RegisterRoutes(api.Group("/workouts"), s.Workout, jwtMiddleware)
	stream.RegisterRoutes(api.Group("/stream"), s.Stream, jwtMiddleware)
}

// errorHandler renders errors as JSON. Anything that is not a *fiber.Error
// is reported as a bare 500.
func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			if code != fiber.StatusInternalServerError {
				msg = fe.Message
			}
		} else {
			log.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}
