package events

import (
	"context"
	"time"

	"github.com/hilthontt/duelrooms/internal/domain"
	"github.com/hilthontt/duelrooms/internal/infrastructure/logging"
)

const auditTimeout = 5 * time.Second

// AuditRecorder writes lifecycle events straight to the audit repository.
// It is used when no broker sits between the engine and the audit trail.
type AuditRecorder struct {
	audit  domain.RoomAuditRepository
	logger logging.Logger
}

func NewAuditRecorder(audit domain.RoomAuditRepository, logger logging.Logger) *AuditRecorder {
	return &AuditRecorder{audit: audit, logger: logger}
}

func (a *AuditRecorder) Observe(ctx context.Context, ev domain.RoomEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	if err := a.audit.Log(ctx, domain.NewAuditLog(ev)); err != nil {
		a.logger.Error(logging.MongoDB, logging.Audit, "failed to write audit log", map[logging.ExtraKey]any{
			logging.RoomID:       ev.RoomID,
			logging.Event:        string(ev.Type),
			logging.ErrorMessage: err.Error(),
		})
	}
}
