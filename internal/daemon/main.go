// Package daemon wires configuration, database and web service together.
package daemon

import (
	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/GoUserHub/GoUserHub/internal/config"
	"github.com/GoUserHub/GoUserHub/internal/db/dsn"
	"github.com/GoUserHub/GoUserHub/internal/db/models"
	"github.com/GoUserHub/GoUserHub/internal/logger"
	"github.com/GoUserHub/GoUserHub/internal/web"
)

// ErrConfigNil is returned when no configuration was provided.
var ErrConfigNil = errors.New("config is nil")

// Daemon represents the main application daemon.
type Daemon struct {
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until shutdown.
func (d *Daemon) Start() error {
	return d.webService.Start()
}

// OpenDB opens a database connection for the configured engine.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	var dialector gorm.Dialector

	switch cfg.DB.Engine {
	case config.DBEnginePostgres:
		dialector = gormpostgres.Open(dsn.Create(cfg))
	case config.DBEngineSQLite:
		dialector = sqlite.Open(dsn.Create(cfg))
	default:
		dialector = gormmysql.Open(dsn.Create(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	return db, nil
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	if err := logger.Init(cfg.Log); err != nil {
		return nil, err
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.Setting{},
		&models.AccessToken{},
	); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	if err = seed(db); err != nil {
		return nil, err
	}

	return &Daemon{
		webService: web.New(cfg, db),
	}, nil
}
