// Package daemon wires configuration into running services: database,
// directory client, identity cache and the web boundary.
package daemon

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/doorkeep/doorkeep/internal/access"
	"github.com/doorkeep/doorkeep/internal/account"
	"github.com/doorkeep/doorkeep/internal/config"
	"github.com/doorkeep/doorkeep/internal/db/dsn"
	"github.com/doorkeep/doorkeep/internal/db/models"
	"github.com/doorkeep/doorkeep/internal/directory"
	"github.com/doorkeep/doorkeep/internal/group"
	"github.com/doorkeep/doorkeep/internal/identity"
	"github.com/doorkeep/doorkeep/internal/web"
)

// Services bundles the shared state the daemon and the CLI commands run
// on.
type Services struct {
	DB       *gorm.DB
	Dir      *directory.Client
	Cache    identity.Cache
	Resolver *identity.Resolver
	Accounts *account.Service
	Groups   *group.Service
	Access   *access.Service

	redisClient *redis.Client
}

// NewServices opens the database, migrates the schema and constructs the
// service layer from the configuration.
func NewServices(cfg *config.Config) (*Services, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	if err = db.AutoMigrate(
		&models.Principal{},
		&models.Group{},
		&models.AccessTag{},
		&models.Resource{},
		&models.ResourceGrant{},
		&models.AccessEvent{},
		&models.Token{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	dir := directory.NewClient(&directory.Config{
		Host:         cfg.Directory.Host,
		Port:         cfg.Directory.Port,
		UseSSL:       cfg.Directory.UseSSL,
		UseTLS:       cfg.Directory.UseTLS,
		SkipVerify:   cfg.Directory.SkipVerify,
		BindDN:       cfg.Directory.BindDN,
		BindPassword: cfg.Directory.BindPassword,
		Timeout:      cfg.Directory.Timeout,
	})

	var (
		cache       identity.Cache
		redisClient *redis.Client
	)

	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		cache = identity.NewRedisCache(redisClient)
	default:
		cache = identity.NewMemoryCache()
	}

	ttl := time.Duration(cfg.Cache.TTLDays) * 24 * time.Hour
	resolver := identity.NewResolver(dir, cache, cfg.Directory.BaseDN, ttl)

	accounts := account.NewService(dir, resolver, db, account.Config{
		Domain:       cfg.Directory.Domain,
		AdminGroupDN: resolver.DNFor(cfg.Directory.AdminGroup),
	})

	return &Services{
		DB:          db,
		Dir:         dir,
		Cache:       cache,
		Resolver:    resolver,
		Accounts:    accounts,
		Groups:      group.NewService(dir, resolver, db),
		Access:      access.NewService(db, access.NewHTTPActuator(0)),
		redisClient: redisClient,
	}, nil
}

// Close releases the database and cache connections.
func (s *Services) Close() {
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis client")
		}
	}

	sqlDB, err := s.DB.DB()
	if err != nil {
		return
	}

	if err = sqlDB.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close database")
	}
}

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	services   *Services
	webService *web.Service
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	services, err := NewServices(cfg)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:        cfg,
		services:   services,
		webService: web.New(cfg, services.Accounts, services.Access),
	}, nil
}

// Start runs the web service until a shutdown signal arrives.
func (d *Daemon) Start() error {
	defer d.services.Close()

	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// openDB connects gorm with the configured engine.
func openDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case "postgres":
		dialector = gormpostgres.Open(dsn.Create(cfg))
	case "sqlite":
		dialector = gormsqlite.Open(dsn.Create(cfg))
	default: // mysql
		dialector = gormmysql.Open(dsn.Create(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	return db, nil
}
