package alarm

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// List limits.
const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Filter controls which alarms List returns.
type Filter struct {
	UserID   string // optional
	DeviceID string // optional
	Limit    int    // default 50, max 500
}

// Repository defines the interface for alarm journal operations.
type Repository interface {
	Create(ctx context.Context, a *Alarm) error
	List(ctx context.Context, filter Filter) ([]Alarm, error)
}

// SQLiteRepository stores alarms in the alarms table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new alarm repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts an alarm. ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, a *Alarm) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = "alm-" + uuid.NewString()[:8]
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO alarms (id, user_id, device_id, topic, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.DeviceID, a.Topic, a.Payload,
		a.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting alarm: %w", err)
	}

	return nil
}

// List returns alarms matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) ([]Alarm, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	var conditions []string
	var args []any

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.DeviceID != "" {
		conditions = append(conditions, "device_id = ?")
		args = append(args, filter.DeviceID)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		"SELECT id, user_id, device_id, topic, payload, created_at FROM alarms %s ORDER BY created_at DESC, id DESC LIMIT ?",
		where,
	)
	args = append(args, filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying alarms: %w", err)
	}
	defer rows.Close()

	alarms := []Alarm{}
	for rows.Next() {
		var a Alarm
		var createdAt string

		if err := rows.Scan(&a.ID, &a.UserID, &a.DeviceID, &a.Topic, &a.Payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning alarm: %w", err)
		}

		t, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing alarm timestamp %q: %w", createdAt, err)
		}
		a.CreatedAt = t

		alarms = append(alarms, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alarms: %w", err)
	}

	return alarms, nil
}
