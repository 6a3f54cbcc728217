package orchestrator

import "time"

type Config struct {
	ReadyPollInterval   time.Duration `envconfig:"WSORCH_READY_POLL_INTERVAL" default:"5s"`
	ReadyTimeout        time.Duration `envconfig:"WSORCH_READY_TIMEOUT" default:"120s"`
	ReleasePollInterval time.Duration `envconfig:"WSORCH_RELEASE_POLL_INTERVAL" default:"1s"`
	ReleaseTimeout      time.Duration `envconfig:"WSORCH_RELEASE_TIMEOUT" default:"120s"`
	DefaultCPU          string        `envconfig:"WSORCH_DEFAULT_CPU" default:"1000m"`
	DefaultMemory       string        `envconfig:"WSORCH_DEFAULT_MEMORY" default:"2048Mi"`
	IngressClass        string        `envconfig:"WSORCH_INGRESS_CLASS" default:"nginx"`
	URLScheme           string        `envconfig:"WSORCH_URL_SCHEME" default:"https"`
}

// DefaultConfig mirrors the envconfig defaults.
func DefaultConfig() Config {
	return Config{
		ReadyPollInterval:   5 * time.Second,
		ReadyTimeout:        120 * time.Second,
		ReleasePollInterval: time.Second,
		ReleaseTimeout:      120 * time.Second,
		DefaultCPU:          "1000m",
		DefaultMemory:       "2048Mi",
		IngressClass:        "nginx",
		URLScheme:           "https",
	}
}
