package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	configFile string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithConfigFile enables hot reload of the log level from the given
// config file.
func WithConfigFile(path string) Option {
	return func(a *application) {
		a.configFile = path
	}
}
