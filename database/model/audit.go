package model

import (
	"time"

	"github.com/todopanel/todo-panel/util/json_util"
)

// AuditLog records a privileged action.
type AuditLog struct {
	ID         int                  `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID     int                  `json:"userId" gorm:"index"`
	Username   string               `json:"username"`
	Action     string               `json:"action"`
	Resource   string               `json:"resource"`
	ResourceID int                  `json:"resourceId"`
	IP         string               `json:"ip"`
	UserAgent  string               `json:"userAgent"`
	Details    json_util.RawMessage `json:"details" gorm:"type:text"`
	Timestamp  time.Time            `json:"timestamp" gorm:"index"`
}
