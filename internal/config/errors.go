package config

import (
	"errors"
)

var (
	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrDirectoryHostEmpty error if config directory.host is empty.
	ErrDirectoryHostEmpty = errors.New("toml config directory.host can not be empty")

	// ErrDirectoryBaseDNEmpty error if config directory.basedn is empty.
	ErrDirectoryBaseDNEmpty = errors.New("toml config directory.basedn can not be empty")

	// ErrDirectoryDomainEmpty error if config directory.domain is empty.
	ErrDirectoryDomainEmpty = errors.New("toml config directory.domain can not be empty")

	// ErrUnknownCacheBackend error if config cache.backend is not memory or redis.
	ErrUnknownCacheBackend = errors.New("toml config cache.backend must be \"memory\" or \"redis\"")
)
