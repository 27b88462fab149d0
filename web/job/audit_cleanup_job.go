// Package job holds the background tasks scheduled by the web server.
package job

import (
	"context"
	"time"

	"github.com/todopanel/todo-panel/logger"
	"github.com/todopanel/todo-panel/util/common"
	"github.com/todopanel/todo-panel/web/service"
)

const auditCleanupTimeout = 5 * time.Minute

// AuditCleanupJob removes audit entries older than the retention window.
type AuditCleanupJob struct {
	ctx           context.Context
	auditService  *service.AuditLogService
	retentionDays int
}

// NewAuditCleanupJob creates a cleanup job keeping retentionDays of history.
// A run in progress is abandoned once ctx is cancelled.
func NewAuditCleanupJob(ctx context.Context, auditService *service.AuditLogService, retentionDays int) *AuditCleanupJob {
	return &AuditCleanupJob{
		ctx:           ctx,
		auditService:  auditService,
		retentionDays: retentionDays,
	}
}

// Run implements cron.Job.
func (j *AuditCleanupJob) Run() {
	defer common.Recover("audit cleanup job")
	if j.retentionDays <= 0 {
		return
	}
	logger.Debug("Audit cleanup job started")

	ctx, cancel := context.WithTimeout(j.ctx, auditCleanupTimeout)
	defer cancel()

	removed, err := j.auditService.CleanOldLogs(ctx, j.retentionDays)
	if err != nil {
		logger.Warning("Failed to clean old audit logs:", err)
		return
	}
	logger.Debugf("Audit cleanup completed (retention: %d days, removed: %d)", j.retentionDays, removed)
}
