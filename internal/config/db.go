package config

// DB holds the local database configuration settings.
// GormEngine selects the driver: mysql, postgres or sqlite.
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	GormEngine string
}
