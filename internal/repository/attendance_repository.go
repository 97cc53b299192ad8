package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

// ErrAttendanceExists is returned when the student already has a mark for the day.
var ErrAttendanceExists = errors.New("attendance already marked for day")

const attendanceColumns = `id, student_id, full_name, course, date, time, day, created_at`

// AttendanceRepository is the event store for attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create inserts a mark. The (student_id, day) unique index turns a second
// mark on the same day into ErrAttendanceExists.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance (` + attendanceColumns + `)
        VALUES (:id, :student_id, :full_name, :course, :date, :time, :day, :created_at)
        ON CONFLICT (student_id, day) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAttendanceExists
	}
	return nil
}

// FindForStudent returns the student's mark inside [from, to), or sql.ErrNoRows.
func (r *AttendanceRepository) FindForStudent(ctx context.Context, studentID string, from, to time.Time) (*models.AttendanceRecord, error) {
	const query = `SELECT ` + attendanceColumns + ` FROM attendance WHERE student_id = $1 AND date >= $2 AND date < $3 ORDER BY date ASC LIMIT 1`
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, from, to); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &record, nil
}

// List returns marks inside [From, To), optionally restricted to a student set.
// A zero To leaves the window open-ended.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	conditions := []string{"date >= $1"}
	args := []interface{}{filter.From}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		conditions = append(conditions, fmt.Sprintf("date < $%d", len(args)))
	}
	if filter.StudentIDs != nil {
		if len(filter.StudentIDs) == 0 {
			return []models.AttendanceRecord{}, nil
		}
		args = append(args, pq.Array(filter.StudentIDs))
		conditions = append(conditions, fmt.Sprintf("student_id = ANY($%d)", len(args)))
	}

	query := fmt.Sprintf("SELECT %s FROM attendance WHERE %s ORDER BY date ASC, time ASC", attendanceColumns, strings.Join(conditions, " AND "))
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}
