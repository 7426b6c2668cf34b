// Package web assembles the fiber application: middleware, error handling
// and the route handlers of the JSON API.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"gorm.io/gorm"

	"github.com/GoUserHub/GoUserHub/internal/auth"
	"github.com/GoUserHub/GoUserHub/internal/config"
	fiberlogger "github.com/GoUserHub/GoUserHub/internal/logger/adapter/fiber"
	"github.com/GoUserHub/GoUserHub/internal/notify"
	adminsettings "github.com/GoUserHub/GoUserHub/internal/web/handler/admin/settings"
	adminuser "github.com/GoUserHub/GoUserHub/internal/web/handler/admin/user"
	"github.com/GoUserHub/GoUserHub/internal/web/handler/profile"
	"github.com/GoUserHub/GoUserHub/internal/web/handler/session"
	"github.com/GoUserHub/GoUserHub/internal/web/handler/settings"
	"github.com/GoUserHub/GoUserHub/internal/web/handler/twofactor"
)

// CheckAlivePath is the liveness probe path.
const CheckAlivePath = "/checkalive"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	authService  *auth.Service
}

// Start starts the web service on the configured port and blocks until the
// server stops.
func (s *Service) Start() error {
	var doneFiber = make(chan bool)

	go func() {
		addr := fmt.Sprintf(":%d", s.cfg.Webserver.Port)

		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	go s.WaitShutdown()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and shuts the server down.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: fail the liveness probe first so
	// the LB removes this instance before connections are dropped.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB remove this instance from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// errorHandler converts unhandled errors into the uniform JSON envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	} else {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}

	return c.Status(code).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "GoUserHub",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   errorHandler,
		},
	)

	// access log middleware
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	authService, err := auth.NewService(db, notify.LogNotifier{})
	if err != nil {
		panic(err)
	}

	service := &Service{
		cfg:         cfg,
		App:         app,
		db:          db,
		authService: authService,
	}

	service.alive.Store(true)

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())

		return nil
	})

	// init handlers (they register their own routes)
	mustInit(session.Handler.Init(app, cfg, db, authService))
	mustInit(settings.Handler.Init(app, cfg, db, authService))
	mustInit(profile.Handler.Init(app, cfg, db, authService))
	mustInit(twofactor.Handler.Init(app, cfg, db, authService))
	mustInit(adminuser.Handler.Init(app, cfg, db, authService))
	mustInit(adminsettings.Handler.Init(app, cfg, db, authService))

	return service
}

func mustInit(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("handler init failed")
	}
}
