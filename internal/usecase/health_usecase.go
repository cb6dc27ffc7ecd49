package usecase

import (
	"context"
	"time"
)

// Pinger is any dependency that can report its own reachability.
type Pinger func(ctx context.Context) error

type HealthUsecase interface {
	Check(ctx context.Context) (map[string]string, bool)
}

type healthUsecase struct {
	required map[string]Pinger
	optional map[string]Pinger
}

// NewHealthUsecase takes required dependencies (a failure makes the service
// unhealthy) and optional ones (reported as degraded).
func NewHealthUsecase(required, optional map[string]Pinger) HealthUsecase {
	return &healthUsecase{required: required, optional: optional}
}

func (u *healthUsecase) Check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	healthy := true
	for name, ping := range u.required {
		if err := ping(ctx); err != nil {
			status[name] = "down"
			status["status"] = "unavailable"
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	for name, ping := range u.optional {
		if err := ping(ctx); err != nil {
			status[name] = "degraded"
			continue
		}
		status[name] = "ok"
	}
	return status, healthy
}
