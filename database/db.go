// Package database opens the gorm connection, migrates the schema and seeds
// the first administrator.
package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/todopanel/todo-panel/config"
	"github.com/todopanel/todo-panel/database/model"
	"github.com/todopanel/todo-panel/util/crypto"
)

func initModels(db *gorm.DB) error {
	models := []any{
		&model.User{},
		&model.Todo{},
		&model.AuditLog{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto migrating %T: %w", m, err)
		}
	}
	return nil
}

// InitDB opens the configured database and migrates the schema.
func InitDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectoryExists(); err != nil {
		return nil, err
	}

	var gormLogger logger.Interface
	if debug {
		gormLogger = logger.Default
	} else {
		gormLogger = logger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	}

	var dialector gorm.Dialector
	if cfg.IsPostgreSQL() {
		dialector = postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        cfg.GetDSN(),
		})
	} else {
		dialector = sqlite.Open(cfg.GetDSN() + "?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	}

	db, err := gorm.Open(dialector, c)
	if err != nil {
		return nil, err
	}

	if cfg.IsSQLite() {
		for _, pragma := range []string{
			"PRAGMA cache_size = -64000;",
			"PRAGMA temp_store = MEMORY;",
			"PRAGMA foreign_keys = ON;",
		} {
			if err := db.Exec(pragma).Error; err != nil {
				return nil, err
			}
		}
	}

	if err := initModels(db); err != nil {
		return nil, err
	}
	return db, nil
}

// SeedAdmin creates an administrator from admin when the users table is
// empty. It reports whether a user was created.
func SeedAdmin(db *gorm.DB, admin config.AdminConfig) (bool, error) {
	if !admin.Enabled() {
		return false, nil
	}
	empty, err := isTableEmpty(db, &model.User{})
	if err != nil {
		return false, err
	}
	if !empty {
		return false, nil
	}
	hash, err := crypto.HashPasswordAsBcrypt(admin.Password)
	if err != nil {
		return false, err
	}
	user := &model.User{
		Email:        admin.Email,
		Username:     admin.Username,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	if err := db.Create(user).Error; err != nil {
		return false, err
	}
	return true, nil
}

func isTableEmpty(db *gorm.DB, m any) (bool, error) {
	var count int64
	err := db.Model(m).Count(&count).Error
	return count == 0, err
}

// CloseDB checkpoints the SQLite WAL and closes the pool.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if db.Dialector.Name() == "sqlite" {
		if err := db.Exec("PRAGMA wal_checkpoint;").Error; err != nil {
			return fmt.Errorf("checkpoint: %w", err)
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKey reports whether err is a unique constraint violation.
// lib/pq errors are not translated by gorm, so they are checked by code.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
