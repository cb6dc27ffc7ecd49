package security

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertAccessEvent = `
	INSERT INTO access_events (
		event_type, service, environment, level, subject_type, subject_value,
		ip_address, user_agent, request_id, path, details, created_at
	) VALUES (
		@event_type, @service, @environment, @level, @subject_type, @subject_value,
		@ip_address, @user_agent, @request_id, @path, @details, @created_at
	)`

// AccessEventRepository keeps access events in Postgres next to the portal
// data so they survive log rotation.
type AccessEventRepository struct {
	db *pgxpool.Pool
}

func NewAccessEventRepository(db *pgxpool.Pool) *AccessEventRepository {
	return &AccessEventRepository{db: db}
}

// Persist matches the signature SecurityLogger.SetPersistFunc expects.
func (r *AccessEventRepository) Persist(ctx context.Context, event SecurityEvent) error {
	if _, err := r.db.Exec(ctx, insertAccessEvent, eventArgs(event)); err != nil {
		return fmt.Errorf("failed to persist access event: %w", err)
	}
	return nil
}

func eventArgs(event SecurityEvent) pgx.NamedArgs {
	args := pgx.NamedArgs{
		"event_type":    string(event.Event),
		"service":       event.Service,
		"environment":   event.Environment,
		"level":         event.Level,
		"subject_type":  event.SubjectType,
		"subject_value": event.SubjectValue,
		"ip_address":    nil,
		"user_agent":    event.UserAgent,
		"request_id":    event.RequestID,
		"path":          event.Path,
		"details":       nil,
		"created_at":    event.Timestamp,
	}
	// INET rejects the empty string.
	if event.IP != "" {
		args["ip_address"] = event.IP
	}
	if len(event.Details) > 0 {
		if raw, err := json.Marshal(event.Details); err == nil {
			args["details"] = raw
		}
	}
	return args
}
