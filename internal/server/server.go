package server

import (
	"github.com/Bera0422/WalkWays/internal/auth"
	"github.com/Bera0422/WalkWays/internal/config"
	"github.com/Bera0422/WalkWays/internal/directions"
	"github.com/Bera0422/WalkWays/internal/feedback"
	"github.com/Bera0422/WalkWays/internal/route"
	"github.com/Bera0422/WalkWays/internal/snapshot"
	"github.com/Bera0422/WalkWays/internal/stream"
	"github.com/Bera0422/WalkWays/internal/tracking"
	"github.com/Bera0422/WalkWays/internal/walk"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	routeSvc := route.NewService(s.DB)
	feedbackSvc := feedback.NewService(s.DB)

	var dir walk.DirectionsProvider
	if s.Cfg.MapsAPIKey != "" {
		dir = directions.NewClient(s.Cfg.MapsAPIKey, s.Cfg.WaypointBatchSize)
	}

	mgr := tracking.NewManager(walkConfig(s.Cfg), dir, snapshot.NewStore(s.Redis), routeSvc, feedbackSvc, s.Stream)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	route.RegisterRoutes(s.App.Group("/routes"), routeSvc, jwtMiddleware)
	feedback.RegisterRoutes(s.App.Group("/feedback"), feedbackSvc, jwtMiddleware)
	tracking.RegisterRoutes(s.App.Group("/walks"), mgr, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

func walkConfig(cfg config.Config) walk.Config {
	return walk.Config{
		RecordMinMoveM:  cfg.RecordMinMoveM,
		TrackProximityM: cfg.TrackProximityM,
		StepLengthM:     cfg.StepLengthM,
		BatchSize:       cfg.WaypointBatchSize,
		Reconciler:      walk.ReconcilePolicy(cfg.DistanceReconciler),
	}
}
