package store

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

func New(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		closeDB(db)
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if err := db.AutoMigrate(&Connection{}); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Connection is one websocket client lifetime.
type Connection struct {
	ID             string     `gorm:"primaryKey;column:id"`
	RemoteAddr     string     `gorm:"column:remote_addr;not null;default:''"`
	UserAgent      string     `gorm:"column:user_agent;not null;default:''"`
	ConnectedAt    time.Time  `gorm:"column:connected_at;not null;index:idx_connections_connected_at"`
	DisconnectedAt *time.Time `gorm:"column:disconnected_at"`
	Frames         int64      `gorm:"column:frames;not null;default:0"`
	AudioChunks    int64      `gorm:"column:audio_chunks;not null;default:0"`
	Messages       int64      `gorm:"column:messages;not null;default:0"`
	Error          string     `gorm:"column:error;not null;default:''"`
}

func (Connection) TableName() string {
	return "connections"
}

// Counters are the per-connection totals written on disconnect.
type Counters struct {
	Frames      int64
	AudioChunks int64
	Messages    int64
}

func (s *Store) OpenConnection(ctx context.Context, c *Connection) error {
	if c.ConnectedAt.IsZero() {
		c.ConnectedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *Store) CloseConnection(ctx context.Context, id string, counters Counters, errMsg string) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&Connection{}).Where("id = ?", id).Updates(map[string]any{
		"disconnected_at": now,
		"frames":          counters.Frames,
		"audio_chunks":    counters.AudioChunks,
		"messages":        counters.Messages,
		"error":           errMsg,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("connection %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

func (s *Store) GetConnection(ctx context.Context, id string) (*Connection, error) {
	var c Connection
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// RecentConnections returns the newest connections first.
func (s *Store) RecentConnections(ctx context.Context, limit int) ([]Connection, error) {
	q := s.db.WithContext(ctx).Order("connected_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var conns []Connection
	err := q.Find(&conns).Error
	return conns, err
}
