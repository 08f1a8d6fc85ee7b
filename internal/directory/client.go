package directory

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
)

// Config holds directory service connection settings.
type Config struct {
	// Host is the directory server hostname or IP address.
	Host string
	// Port is the directory server port (typically 389 for LDAP, 636 for LDAPS).
	Port int
	// UseSSL enables LDAPS on connect.
	UseSSL bool
	// UseTLS enables StartTLS to upgrade a plain connection.
	UseTLS bool
	// SkipVerify skips TLS certificate verification (insecure, for testing only).
	SkipVerify bool
	// BindDN is the service identity used for searches and mutations.
	BindDN string
	// BindPassword is the password for the service identity.
	BindPassword string
	// Timeout is the connection and search timeout in seconds.
	Timeout int
}

// Directory is the session-scoped access contract services depend on.
// Client implements it against a live server; directorytest.Fake
// implements it in memory.
type Directory interface {
	// Do runs fn inside a session bound as the service identity. The
	// session is released on every exit path.
	Do(fn func(Session) error) error
	// CheckBind attempts a bind with the given user identity and
	// password. It returns nil on success and ErrInvalidCredentials on a
	// credential rejection.
	CheckBind(user, password string) error
}

// Client connects to the remote directory service.
type Client struct {
	config *Config
}

// NewClient creates a directory client.
func NewClient(config *Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 10
	}

	return &Client{config: config}
}

// connect establishes a connection to the directory server.
func (c *Client) connect() (*ldap.Conn, error) {
	hostPort := net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))

	var url string
	if c.config.UseSSL {
		url = "ldaps://" + hostPort
	} else {
		url = "ldap://" + hostPort
	}

	var tlsConfig *tls.Config
	if c.config.UseSSL || c.config.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: c.config.SkipVerify, //nolint:gosec // skipping verifying tls is ok
			ServerName:         c.config.Host,
		}
	}

	conn, err := ldap.DialURL(url, ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, classify(fmt.Errorf("failed to connect to directory server: %w", err))
	}

	// Upgrade to TLS if requested (for non-SSL connections)
	if !c.config.UseSSL && c.config.UseTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			if errClose := conn.Close(); errClose != nil {
				log.Error().Err(errClose).Msg("failed to close directory connection")
			}

			return nil, classify(fmt.Errorf("failed to start TLS: %w", errStartTLS))
		}
	}

	if c.config.Timeout > 0 {
		conn.SetTimeout(time.Duration(c.config.Timeout) * time.Second)
	}

	return conn, nil
}

// Do acquires a session bound as the service identity, runs fn and closes
// the connection unconditionally.
func (c *Client) Do(fn func(Session) error) error {
	conn, err := c.connect()
	if err != nil {
		return err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close directory connection")
		}
	}()

	if c.config.BindDN != "" {
		if errBind := conn.Bind(c.config.BindDN, c.config.BindPassword); errBind != nil {
			return classify(fmt.Errorf("failed to bind with service identity: %w", errBind))
		}
	}

	return fn(&ldapSession{conn: conn, timeLimit: c.config.Timeout})
}

// CheckBind verifies user credentials with a dedicated bind-as-user
// session. The connection is closed before returning on every path.
func (c *Client) CheckBind(user, password string) error {
	conn, err := c.connect()
	if err != nil {
		return err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close directory connection")
		}
	}()

	return classify(conn.Bind(user, password))
}

// TestConnection establishes a connection and binds the service identity.
// Returns nil when both succeed.
func (c *Client) TestConnection() error {
	return c.Do(func(Session) error { return nil })
}
