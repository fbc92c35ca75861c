package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"careerpath/config"
	"careerpath/internal/domain"
	"careerpath/internal/usecase"
)

// Advisor is the consumer-facing surface served over HTTP.
type Advisor interface {
	AskQuestion(ctx context.Context, text string) string
	AnalyzeResume(ctx context.Context, upload usecase.Upload, email string) usecase.Analysis
}

// Matcher exposes the direct job lookups.
type Matcher interface {
	RecommendJobsFromSkills(ctx context.Context, skills []string) domain.JobMatches
	SkillsForJobTitle(ctx context.Context, title string) string
}

type Server struct {
	app    *fiber.App
	addr   string
	logger *zap.Logger
}

func New(cfg config.ServerConfig, advisor Advisor, matcher Matcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}

	app := fiber.New(fiber.Config{
		AppName:      "careerpath",
		BodyLimit:    cfg.MaxUploadBytes,
		ErrorHandler: errorHandler(logger),
	})
	app.Use(recoverPanic(logger))
	app.Use(accessLog(logger))

	h := &handler{advisor: advisor, matcher: matcher, maxUpload: int64(cfg.MaxUploadBytes)}
	app.Get("/health", h.health)

	api := app.Group("/api")
	api.Post("/ask", h.ask)
	api.Post("/resume", h.resume)
	api.Post("/recommend", h.recommend)
	api.Get("/jobs/skills", h.jobSkills)

	return &Server{app: app, addr: cfg.Addr, logger: logger}
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.addr))
		errCh <- s.app.Listen(s.addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}
