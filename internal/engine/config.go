package engine

import (
	"github.com/caarlos0/env/v11"
)

// Config хранит параметры запуска сервера. Все значения приходят из
// окружения, флаги командной строки их переопределяют в main.
type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"vision.db"`

	// AllowedOrigin - для CORS и проверки Origin при апгрейде WebSocket.
	// Звездочка пускает всех: сервер живет в локальной сети за столом.
	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"*"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
