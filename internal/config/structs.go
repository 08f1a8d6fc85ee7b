package config

import (
	"github.com/doorkeep/doorkeep/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Directory Directory
	Cache     Cache
	Log       logger.Log
	Title     string
	Webserver Webserver
}

// Directory holds the settings for the remote directory service.
type Directory struct {
	Host         string // directory server hostname or IP address
	Port         int    // directory server port (389 for ldap, 636 for ldaps)
	UseSSL       bool   // connect with ldaps
	UseTLS       bool   // upgrade the connection with StartTLS
	SkipVerify   bool   // skip TLS certificate verification (testing only)
	BindDN       string // service identity used for searches and mutations
	BindPassword string // password for the service identity
	BaseDN       string // base DN that member and group entries live under
	Domain       string // domain appended to usernames to form the userPrincipalName
	AdminGroup   string // CN of the group whose members are staff
	Timeout      int    // connection timeout in seconds
}

// Identity cache backends.
const (
	// CacheBackendMemory is the process-local cache.
	CacheBackendMemory = "memory"
	// CacheBackendRedis is the shared cache for multi-node deployments.
	CacheBackendRedis = "redis"
)

// Cache holds the identity cache settings.
type Cache struct {
	Backend  string // "memory" or "redis"
	Addr     string // redis address (host:port)
	Password string // redis password
	DB       int    // redis database number
	TTLDays  int    // entry lifetime; 0 uses the default of 70 days
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool   // use clean path middleware to allow multi slash requests
	DisableRecover bool   // disable recover middleware
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
}
