package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
)

type AuditLog struct {
	EventID   int64
	Ts        time.Time
	Namespace string
	Workspace string
	Action    string
	RequestID *string
	Payload   []byte
}

const insertAuditEvent = `
INSERT INTO wsorch.audit_log (namespace, workspace, action, request_id, payload)
VALUES ($1, $2, $3, $4, $5)
RETURNING event_id, ts, namespace, workspace, action, request_id, payload
`

type InsertAuditEventParams struct {
	Namespace string
	Workspace string
	Action    string
	RequestID *string
	Payload   []byte
}

func (q *Queries) InsertAuditEvent(ctx context.Context, arg InsertAuditEventParams) (AuditLog, error) {
	payload := arg.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	row := q.db.QueryRow(ctx, insertAuditEvent,
		arg.Namespace,
		arg.Workspace,
		arg.Action,
		arg.RequestID,
		json.RawMessage(payload),
	)
	var i AuditLog
	err := row.Scan(
		&i.EventID,
		&i.Ts,
		&i.Namespace,
		&i.Workspace,
		&i.Action,
		&i.RequestID,
		&i.Payload,
	)
	return i, err
}

const listAuditEvents = `
SELECT event_id, ts, namespace, workspace, action, request_id, payload
FROM wsorch.audit_log
WHERE namespace = $1 AND workspace = $2
ORDER BY ts DESC, event_id DESC
LIMIT $3
`

type ListAuditEventsParams struct {
	Namespace string
	Workspace string
	Limit     int32
}

func (q *Queries) ListAuditEvents(ctx context.Context, arg ListAuditEventsParams) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditEvents, arg.Namespace, arg.Workspace, arg.Limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (AuditLog, error) {
		var i AuditLog
		err := row.Scan(
			&i.EventID,
			&i.Ts,
			&i.Namespace,
			&i.Workspace,
			&i.Action,
			&i.RequestID,
			&i.Payload,
		)
		return i, err
	})
}
