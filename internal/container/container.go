package container

import (
	"fmt"
	"net/http"

	"go-vision-tools/internal/config"
	"go-vision-tools/internal/detect"
	"go-vision-tools/internal/encode"
	"go-vision-tools/internal/logger"
	"go-vision-tools/internal/media"
	"go-vision-tools/internal/model"
	"go-vision-tools/internal/observer"
	"go-vision-tools/internal/service"
	"go-vision-tools/internal/transport"
	"go-vision-tools/internal/video"
)

// Container holds all application dependencies
type Container struct {
	config    *config.Config
	resolver  media.Resolver
	registry  *model.Registry
	detectors *detect.Cache
	encoder   *encode.Encoder
	metrics   *observer.MetricsObserver
	service   service.VisionService
	handler   http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	resolver := media.NewResolver(cfg.FetchTimeout)
	registry := model.NewRegistry(cfg.ModelRoot)
	detectors := detect.NewCache(registry)

	var store encode.ArtifactStore
	if cfg.ArtifactUploadEnabled() {
		store, err = encode.NewAzureArtifactStore(cfg.AzureAccount, cfg.AzureKey, cfg.AzureContainer)
		if err != nil {
			return nil, fmt.Errorf("failed to configure artifact store: %w", err)
		}
	}
	encoder := encode.NewEncoder(cfg.OutputDir, store)
	videoProcessor := video.NewProcessor(encoder)

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	visionService := service.NewVisionService(resolver, detectors, encoder, videoProcessor, events)
	handler := transport.NewHandler(visionService, metrics, cfg)

	return &Container{
		config:    cfg,
		resolver:  resolver,
		registry:  registry,
		detectors: detectors,
		encoder:   encoder,
		metrics:   metrics,
		service:   visionService,
		handler:   handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases loaded detectors
func (c *Container) Close() error {
	return c.detectors.Close()
}
