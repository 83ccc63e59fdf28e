// Package di provides dependency injection container
package di

import (
	"fmt"
	"os"

	"github.com/ssargent/ecudatalog/pkg/api" //nolint:depguard
	"github.com/ssargent/ecudatalog/pkg/config"
	"github.com/ssargent/ecudatalog/pkg/datalog"
	"github.com/ssargent/ecudatalog/pkg/diag"
	"github.com/ssargent/ecudatalog/pkg/log"
	"github.com/ssargent/ecudatalog/pkg/opdl"
	"github.com/ssargent/ecudatalog/pkg/storage"
)

// ArchiveOpener opens the archive stored under dir.
type ArchiveOpener func(dir string, opts ...storage.Option) (*storage.Archive, error)

// Container holds all the dependencies for the application
type Container struct {
	config        *config.Config
	logger        log.Logger
	table         *diag.Table
	archiveOpener ArchiveOpener
}

// NewContainer creates a new dependency injection container from cfg. A nil
// cfg uses config.DefaultConfig.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	table, err := loadFaultTable(cfg.Datalog.FaultCodeTable)
	if err != nil {
		return nil, err
	}

	return &Container{
		config:        cfg,
		logger:        log.NewZerologAdapter(cfg.Logging.Level),
		table:         table,
		archiveOpener: storage.Open,
	}, nil
}

func loadFaultTable(path string) (*diag.Table, error) {
	if path == "" {
		return diag.DefaultTable(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fault code table: %w", err)
	}
	defer f.Close()
	return diag.LoadTable(f)
}

// Config returns the configuration the container was built from
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application logger
func (c *Container) Logger() log.Logger {
	return c.logger
}

// FaultTable returns the fault code table used to decode fault bitfields
func (c *Container) FaultTable() *diag.Table {
	return c.table
}

// DatalogOptions returns the options every document read or written by the
// application should use.
func (c *Container) DatalogOptions() []datalog.Option {
	return []datalog.Option{
		datalog.WithLogger(c.logger),
		datalog.WithFaultTable(c.table),
		datalog.WithDefaultStoich(c.config.Datalog.DefaultStoich),
		datalog.WithBlockSize(c.config.Compression.BlockSize),
		datalog.WithTranscoderOptions(opdl.WithStrictFooter(c.config.Compression.StrictFooter)),
	}
}

// TranscoderOptions returns the options for standalone OPDL conversion
func (c *Container) TranscoderOptions() []opdl.Option {
	return []opdl.Option{
		opdl.WithLogger(c.logger),
		opdl.WithStrictFooter(c.config.Compression.StrictFooter),
	}
}

// OpenArchive opens the archive in the configured data directory
func (c *Container) OpenArchive() (*storage.Archive, error) {
	if err := os.MkdirAll(c.config.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return c.archiveOpener(c.config.DataDir,
		storage.WithLogger(c.logger),
		storage.WithDatalogOptions(c.DatalogOptions()...),
	)
}

// NewServer builds the API server over store
func (c *Container) NewServer(store api.DatalogStore) *api.Server {
	serverConfig := api.ServerConfig{
		Bind:           c.config.Bind,
		Port:           c.config.Port,
		APIKey:         c.config.Security.APIKey,
		MaxUploadBytes: c.config.Security.MaxUploadBytes,
	}
	return api.NewServer(store, serverConfig, c.logger, c.DatalogOptions()...)
}

// SetLogger allows overriding the logger (for testing)
func (c *Container) SetLogger(logger log.Logger) {
	c.logger = logger
}

// SetArchiveOpener allows overriding how the archive is opened (for testing)
func (c *Container) SetArchiveOpener(opener ArchiveOpener) {
	c.archiveOpener = opener
}
