package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lzjever/wsorch/internal/core"
)

// Auditor records API-initiated actions.
type Auditor interface {
	Record(ctx context.Context, ev core.AuditEvent) error
}

// NopAuditor discards events. It is used when no database is configured.
type NopAuditor struct{}

func (NopAuditor) Record(context.Context, core.AuditEvent) error { return nil }

// PGAuditor writes events to wsorch.audit_log.
type PGAuditor struct {
	q *Queries
}

func NewPGAuditor(db DBTX) *PGAuditor {
	return &PGAuditor{q: New(db)}
}

func (a *PGAuditor) Record(ctx context.Context, ev core.AuditEvent) error {
	_, err := a.q.InsertAuditEvent(ctx, InsertAuditEventParams{
		Namespace: ev.Namespace,
		Workspace: ev.Workspace,
		Action:    ev.Action,
		RequestID: ev.RequestID,
		Payload:   ev.Payload,
	})
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// List returns the most recent events for a workspace, newest first.
func (a *PGAuditor) List(ctx context.Context, namespace, workspace string, limit int32) ([]core.AuditEvent, error) {
	rows, err := a.q.ListAuditEvents(ctx, ListAuditEventsParams{
		Namespace: namespace,
		Workspace: workspace,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	out := make([]core.AuditEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.AuditEvent{
			EventID:   r.EventID,
			Ts:        r.Ts,
			Namespace: r.Namespace,
			Workspace: r.Workspace,
			Action:    r.Action,
			RequestID: r.RequestID,
			Payload:   json.RawMessage(r.Payload),
		})
	}
	return out, nil
}
