package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/igorsilveira/ada/pkg/telemetry"
	"gorm.io/gorm"
)

const (
	EventClientConnect    = "client_connect"
	EventClientDisconnect = "client_disconnect"
	EventLiveOpen         = "live_open"
	EventLiveClose        = "live_close"
	EventLiveError        = "live_error"
	EventBadEvent         = "bad_event"
)

type Entry struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index:idx_audit_timestamp"`
	EventType string    `gorm:"column:event_type;not null"`
	SessionID string    `gorm:"column:session_id;not null;default:'';index:idx_audit_session"`
	Actor     string    `gorm:"column:actor;not null;default:''"`
	Detail    string    `gorm:"column:detail;not null;default:''"`
}

func (Entry) TableName() string {
	return "audit_log"
}

type Logger struct {
	db *gorm.DB
}

func New(db *gorm.DB) (*Logger, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("audit: running migrations: %w", err)
	}

	return &Logger{db: db}, nil
}

// Log appends one entry. detail is stored verbatim when it is a string and
// JSON-encoded otherwise.
func (l *Logger) Log(ctx context.Context, eventType, sessionID, actor string, detail any) error {
	var detailStr string
	switch v := detail.(type) {
	case nil:
	case string:
		detailStr = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			detailStr = fmt.Sprintf("%v", v)
		} else {
			detailStr = string(b)
		}
	}

	entry := &Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		SessionID: sessionID,
		Actor:     actor,
		Detail:    detailStr,
	}

	return l.db.WithContext(ctx).Create(entry).Error
}

// Record is Log for callers on the connection path: a nil Logger is a no-op
// and write failures are logged instead of returned.
func (l *Logger) Record(ctx context.Context, eventType, sessionID, actor string, detail any) {
	if l == nil {
		return
	}
	if err := l.Log(ctx, eventType, sessionID, actor, detail); err != nil {
		telemetry.FromContext(ctx).Warn("audit write failed",
			slog.String("event_type", eventType),
			slog.String("err", err.Error()),
		)
		telemetry.Metrics.ErrorsTotal.WithLabelValues("audit").Inc()
	}
}

// CountByType returns the number of entries per event type since the given
// time. A zero since counts everything.
func (l *Logger) CountByType(ctx context.Context, since time.Time) (map[string]int64, error) {
	q := l.db.WithContext(ctx).Model(&Entry{})
	if !since.IsZero() {
		q = q.Where("timestamp >= ?", since)
	}

	var rows []struct {
		EventType string
		N         int64
	}
	if err := q.Select("event_type, COUNT(*) AS n").Group("event_type").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("audit: counting entries: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.EventType] = r.N
	}
	return counts, nil
}

func (l *Logger) Query(ctx context.Context, f Filter) ([]Entry, error) {
	q := l.db.WithContext(ctx)

	if f.EventType != "" {
		q = q.Where("event_type = ?", f.EventType)
	}
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if !f.Since.IsZero() {
		q = q.Where("timestamp >= ?", f.Since)
	}
	if !f.Until.IsZero() {
		q = q.Where("timestamp <= ?", f.Until)
	}

	q = q.Order("timestamp DESC")

	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var entries []Entry
	err := q.Find(&entries).Error
	return entries, err
}

type Filter struct {
	EventType string
	SessionID string
	Since     time.Time
	Until     time.Time
	Limit     int
}
