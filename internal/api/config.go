package api

import "time"

type Config struct {
	HTTPAddr        string        `envconfig:"WSORCH_HTTP_ADDR" default:"0.0.0.0:8080"`
	MetricsAddr     string        `envconfig:"WSORCH_METRICS_ADDR" default:"0.0.0.0:9090"`
	LogLevel        string        `envconfig:"WSORCH_LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration `envconfig:"WSORCH_SHUTDOWN_TIMEOUT" default:"30s"`
	Kubeconfig      string        `envconfig:"WSORCH_KUBECONFIG"`
	Namespace       string        `envconfig:"WSORCH_NAMESPACE" default:"default"`
	DBDSN           string        `envconfig:"WSORCH_DB_DSN"`
}
