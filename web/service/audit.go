package service

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"

	"github.com/todopanel/todo-panel/database/model"
	"github.com/todopanel/todo-panel/logger"
	"github.com/todopanel/todo-panel/util/common"
	"github.com/todopanel/todo-panel/util/json_util"
	"github.com/todopanel/todo-panel/web/entity"
)

// AuditLogService records privileged actions.
type AuditLogService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAuditLogService(db *gorm.DB) *AuditLogService {
	return &AuditLogService{db: db, now: time.Now}
}

// LogAction stores an audit entry for actor. Failures are logged and never
// fail the action being audited.
func (s *AuditLogService) LogAction(ctx context.Context, actor *model.User, action, resource string, resourceID int, details map[string]any) {
	var detailsJSON json_util.RawMessage
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			logger.Warning("Failed to marshal audit log details:", err)
		} else {
			detailsJSON = data
		}
	}

	info := RequestInfoFrom(ctx)
	entry := model.AuditLog{
		UserID:     actor.Id,
		Username:   actor.Username,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IP:         info.IP,
		UserAgent:  info.UserAgent,
		Details:    detailsJSON,
		Timestamp:  s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		logger.Warningf("Failed to create audit log: user=%d, action=%s, resource=%s, error=%v", actor.Id, action, resource, err)
	}
}

// GetAuditLogs returns matching entries newest first, plus the total count.
func (s *AuditLogService) GetAuditLogs(ctx context.Context, q entity.AuditQuery) ([]model.AuditLog, int64, error) {
	q.Normalize()
	query := s.db.WithContext(ctx).Model(&model.AuditLog{})
	if q.UserID > 0 {
		query = query.Where("user_id = ?", q.UserID)
	}
	if q.Action != "" {
		query = query.Where("action = ?", q.Action)
	}
	if q.Resource != "" {
		query = query.Where("resource = ?", q.Resource)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, common.NewInternalError(err)
	}

	logs := make([]model.AuditLog, 0)
	if err := query.Order("timestamp DESC, id DESC").Limit(q.Limit).Offset(q.Offset).Find(&logs).Error; err != nil {
		return nil, 0, common.NewInternalError(err)
	}
	return logs, total, nil
}

// CleanOldLogs removes entries older than days and returns how many went.
func (s *AuditLogService) CleanOldLogs(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("days must be greater than 0")
	}
	cutoff := s.now().UTC().AddDate(0, 0, -days)
	result := s.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&model.AuditLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	logger.Infof("Cleaned %d old audit logs (older than %d days)", result.RowsAffected, days)
	return result.RowsAffected, nil
}
