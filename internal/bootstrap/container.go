package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"pdf-annotator-be/internal/config"
	"pdf-annotator-be/internal/controller"
	"pdf-annotator-be/internal/pkg/logger"
	"pdf-annotator-be/internal/repository/contract"
	"pdf-annotator-be/internal/repository/memory"
	"pdf-annotator-be/internal/repository/redisstore"
	"pdf-annotator-be/internal/service"
	"pdf-annotator-be/pkg/annotation"
	pktNats "pdf-annotator-be/pkg/nats"
	"pdf-annotator-be/pkg/render"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	DocumentController   controller.IDocumentController
	AnnotationController controller.IAnnotationController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	CleanupService  service.ICleanupService
	IconWatcher     *render.IconWatcher

	Logger logger.ILogger

	closers []func() error
}

func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)
	c := &Container{Logger: sysLogger}
	c.closers = append(c.closers, sysLogger.Sync, auditLogger.Sync)

	if err := os.MkdirAll(cfg.Annotation.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)
	c.closers = append(c.closers, pubSub.Close)

	var natsPub *pktNats.Publisher
	if cfg.Events.NatsURL != "" {
		p, err := pktNats.NewPublisher(pktNats.Config{
			URL:    cfg.Events.NatsURL,
			Stream: cfg.Events.NatsStream,
		})
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			natsPub = p
			c.closers = append(c.closers, func() error { p.Close(); return nil })
		}
	}

	publisherService := service.NewPublisherService(cfg.Events.Topic, pubSub, natsPub, sysLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Events.Topic, auditLogger)

	// 3. Session Storage
	sessionRepo, err := newSessionRepository(cfg, sysLogger, c)
	if err != nil {
		return nil, err
	}

	// 4. Renderer collaborators
	icons, err := loadIcons(cfg, sysLogger)
	if err != nil {
		return nil, err
	}
	if cfg.Annotation.WatchIcons {
		c.IconWatcher = render.NewIconWatcher(icons, sysLogger)
	}
	renderer := render.NewPdfcpuRenderer(icons)
	rasterizer := render.NewFitzRasterizer()

	// 5. Core + Services
	engine := annotation.NewEngine(cfg.Annotation.Tolerance)
	reconciler := annotation.NewReconciler(renderer, cfg.Annotation.IconSize, cfg.Annotation.StampSummary)

	annotationService := service.NewAnnotationService(
		sessionRepo,
		renderer,
		rasterizer,
		reconciler,
		engine,
		publisherService,
		sysLogger,
		service.AnnotationServiceConfig{
			UploadDir:   cfg.Annotation.UploadDir,
			RenderScale: cfg.Annotation.RenderScale,
		},
	)

	// Sweep threshold leaves a grace period past the session TTL
	c.CleanupService = service.NewCleanupService(
		cfg.Annotation.UploadDir,
		cfg.Session.TTL+cfg.Session.TTL/6,
		cfg.Annotation.CleanupCron,
		sysLogger,
	)

	// 6. Controllers
	c.DocumentController = controller.NewDocumentController(annotationService, cfg.App.StartPath)
	c.AnnotationController = controller.NewAnnotationController(annotationService)

	return c, nil
}

func newSessionRepository(cfg *config.Config, log logger.ILogger, c *Container) (contract.SessionRepository, error) {
	switch cfg.Session.Store {
	case "redis":
		opt, err := redis.ParseURL(cfg.Session.RedisURL)
		if err != nil {
			log.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.Session.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.closers = append(c.closers, rdb.Close)
		log.Info("Bootstrap", "Using Redis session store", nil)
		return redisstore.NewSessionRepository(rdb, cfg.Session.TTL), nil
	case "memory", "":
		log.Info("Bootstrap", "Using in-memory session store", nil)
		return memory.NewSessionRepository(cfg.Session.TTL, func(s *annotation.Session) {
			if s.DocumentRef == "" {
				return
			}
			if err := os.Remove(s.DocumentRef); err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Warn("SessionRepository", "Error deleting temporary file", map[string]interface{}{
					"path":  s.DocumentRef,
					"error": err.Error(),
				})
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.Session.Store)
	}
}

func loadIcons(cfg *config.Config, log logger.ILogger) (*render.IconSet, error) {
	if cfg.Annotation.IconDir == "" {
		return render.BuiltinIcons(64)
	}
	icons, err := render.LoadIconDir(cfg.Annotation.IconDir)
	if err != nil {
		// records of types without an icon are skipped at export
		log.Warn("Bootstrap", "Some annotation icons are missing", map[string]interface{}{
			"dir":   cfg.Annotation.IconDir,
			"error": err.Error(),
		})
	}
	return icons, nil
}

// Close releases connections and flushes logs, in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}
