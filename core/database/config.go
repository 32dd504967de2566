package database

// Config holds configuration for the database connection.
type Config struct {
	// Host is the database host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port.
	Port int `mapstructure:"port" default:"5432"`
	// User is the database user.
	User string `mapstructure:"user" default:"admin"`
	// Password is the database password.
	Password string `mapstructure:"password" default:"strongpassword"`
	// Name is the database name.
	Name string `mapstructure:"name" default:"medicamentos_db"`
	// SSLMode is the libpq sslmode (disable, require, verify-full).
	SSLMode string `mapstructure:"ssl_mode" default:"disable"`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
