package container

import (
	"context"
	"fmt"
	"io"

	"gouq/app"
	"gouq/internal"
	"gouq/internal/config"
	"gouq/internal/uncertainty"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	Logger  *internal.Logger
	logFile io.Closer

	// Engine
	Options uncertainty.Options

	// Services
	Quantification *app.QuantificationService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
	}

	if err := c.initLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := c.initServices(); err != nil {
		_ = c.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	c.Logger.Debug("Container initialized successfully")
	return c, nil
}

// initLogger writes to LOG_FILE when set, stderr otherwise
func (c *Container) initLogger() error {
	level := internal.ParseLogLevel(c.Config.Logging.Level)
	if c.Config.Logging.File == "" {
		c.Logger = internal.NewLogger(level)
		return nil
	}
	logger, closer, err := internal.NewFileLogger(level, c.Config.Logging.File)
	if err != nil {
		return err
	}
	c.Logger = logger
	c.logFile = closer
	return nil
}

// initServices builds the engine options and the quantification service
func (c *Container) initServices() error {
	opts, err := c.Config.Engine.Options()
	if err != nil {
		return err
	}
	c.Options = opts
	c.Quantification = app.NewQuantificationService(opts, c.Config.Engine.CPUs, c.Logger)
	return nil
}

// Shutdown releases the log file, if any
func (c *Container) Shutdown(ctx context.Context) error {
	if c.logFile != nil {
		err := c.logFile.Close()
		c.logFile = nil
		return err
	}
	return nil
}
