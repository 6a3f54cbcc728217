package worker

import "time"

type Config struct {
	Workers         int           `envconfig:"WSORCH_WORKERS" default:"4"`
	QueueSize       int           `envconfig:"WSORCH_QUEUE_SIZE" default:"64"`
	ShutdownTimeout time.Duration `envconfig:"WSORCH_WORKER_SHUTDOWN_TIMEOUT" default:"150s"`
}
