package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/you/taskconsole/domain"
	"github.com/you/taskconsole/internal/session"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBSession represents the database model for one session slot (with GORM tags)
type DBSession struct {
	Slot      string    `gorm:"primaryKey;size:64"`
	Payload   string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBSession) TableName() string {
	return "console_sessions"
}

// SQLSessionProvider implements domain.SessionProvider using GORM
type SQLSessionProvider struct {
	db *gorm.DB
}

// NewSQLSessionProvider creates a new GORM backed session provider
func NewSQLSessionProvider(db *gorm.DB) *SQLSessionProvider {
	return &SQLSessionProvider{db: db}
}

// Slot implements domain.SessionProvider
func (p *SQLSessionProvider) Slot(slotID string) domain.SessionStore {
	return &SQLSessionRepository{db: p.db, slot: slotID}
}

// SQLSessionRepository implements domain.SessionStore for a single row
type SQLSessionRepository struct {
	db   *gorm.DB
	slot string
}

// Save implements domain.SessionStore
func (r *SQLSessionRepository) Save(ctx context.Context, s *domain.Session) error {
	data, err := session.Encode(s)
	if err != nil {
		return err
	}
	row := DBSession{Slot: r.slot, Payload: string(data), UpdatedAt: time.Now().UTC()}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Load implements domain.SessionStore
func (r *SQLSessionRepository) Load(ctx context.Context) (*domain.Session, error) {
	var row DBSession
	err := r.db.WithContext(ctx).Where("slot = ?", r.slot).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	res := session.Decode([]byte(row.Payload))
	if res.Status == session.OK {
		return res.Session, nil
	}
	slog.Default().WarnContext(ctx, "discarding unusable session row", "slot", r.slot, "status", res.Status.String())
	if err := r.Clear(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "failed to clear session row", "slot", r.slot, "error", err)
	}
	return nil, domain.ErrSessionNotFound
}

// Clear implements domain.SessionStore
func (r *SQLSessionRepository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("slot = ?", r.slot).Delete(&DBSession{}).Error
}
