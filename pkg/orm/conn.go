package orm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskboard-api/pkg/model"
	"taskboard-api/utils"
)

// ConnHandler owns the process-wide database handle. Binaries resolve it
// through GetConnHandler; tests open their own handle with NewDB.
type ConnHandler struct {
	db *gorm.DB
	mu sync.Mutex
}

var (
	connHandler *ConnHandler
	once        sync.Once
)

func GetConnHandler() *ConnHandler {
	once.Do(func() {
		dsn := utils.LoadDotEnvOr("DATABASE_PATH", "taskboard.db")
		db, err := NewDB(dsn)
		if err != nil {
			log.Fatal().Err(err).Str("dsn", dsn).Msg("Failed to open database")
		}
		connHandler = &ConnHandler{db: db}
	})
	return connHandler
}

func (h *ConnHandler) DB() *gorm.DB {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.db
}

func (h *ConnHandler) OnShutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	sqlDB, err := h.db.DB()
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve underlying sql.DB")
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close database")
		return
	}
	log.Info().Msg("Successfully closed database connection")
}

// NewDB opens a SQLite database and migrates the board schema.
func NewDB(dsn string) (*gorm.DB, error) {
	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.AutoMigrate(&model.Task{}, &model.Comment{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// ensureDirForSQLite creates the parent dir for the SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
