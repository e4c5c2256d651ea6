package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_SERVER_URL points at a running server's websocket endpoint. Suites are skipped when empty.
	ServerURL string `envconfig:"E2E_SERVER_URL"`
	// E2E_DEBUG_FRAMES logs every frame received by the suite clients
	DebugFrames bool `envconfig:"E2E_DEBUG_FRAMES" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
