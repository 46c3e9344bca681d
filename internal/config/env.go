package config

// EnvConfig holds process-level settings that come from the
// environment rather than the YAML deployment file, parsed with
// github.com/caarlos0/env/v6.
type EnvConfig struct {
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"DEV"`
	JWTSecret string `env:"JWT_SECRET,required"`
	Debug     bool   `env:"DEBUG" envDefault:"0"`
	ConfigDir string `env:"CONFIG_DIR" envDefault:"."`
	DBPath    string `env:"DB_PATH" envDefault:"./tmp/offboard.db"`
	Listen    string `env:"LISTEN" envDefault:"0.0.0.0:8080"`
	Simulate  bool   `env:"SIMULATE" envDefault:"0"`
}
