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

	"github.com/noah-isme/face-attendance-api/internal/models"
)

const studentColumns = `id, student_id, full_name, email, course, semester, section, face_data, registration_date, updated_at`

// StudentRepository manages persistence for the roster.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// Roster returns the lightweight roster projection in registration order.
// An empty course or "all" returns every student.
func (r *StudentRepository) Roster(ctx context.Context, course string) ([]models.Student, error) {
	query := `SELECT id, student_id, full_name, course FROM students`
	var args []interface{}
	if course != "" && course != "all" {
		query += ` WHERE course = $1`
		args = append(args, course)
	}
	query += ` ORDER BY registration_date ASC, id ASC`

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}
	return students, nil
}

// ListWithFaceData returns every student including captures.
func (r *StudentRepository) ListWithFaceData(ctx context.Context) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY registration_date ASC, id ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students with face data: %w", err)
	}
	return students, nil
}

// Search matches name, email or student id case-insensitively.
func (r *StudentRepository) Search(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.Course != "" && filter.Course != "all" {
		args = append(args, filter.Course)
		conditions = append(conditions, fmt.Sprintf("course = $%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		pos := len(args)
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(student_id) LIKE $%d)", pos, pos, pos))
	}

	query := fmt.Sprintf(`SELECT id, student_id, full_name, email, course, semester, section, registration_date, updated_at FROM students WHERE %s ORDER BY full_name ASC LIMIT %d`,
		strings.Join(conditions, " AND "), limit)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return students, nil
}

// FindByID returns a student by primary key without captures.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, student_id, full_name, email, course, semester, section, registration_date, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// FindByStudentID returns a student by institutional student id without captures.
func (r *StudentRepository) FindByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	const query = `SELECT id, student_id, full_name, email, course, semester, section, registration_date, updated_at FROM students WHERE student_id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student by student id: %w", err)
	}
	return &student, nil
}

// ExistsByStudentID reports whether the student id is taken.
func (r *StudentRepository) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM students WHERE student_id = $1 LIMIT 1`, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check student id: %w", err)
	}
	return true, nil
}

// Create inserts a student with captures.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.RegistrationDate.IsZero() {
		student.RegistrationDate = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (` + studentColumns + `)
        VALUES (:id, :student_id, :full_name, :email, :course, :semester, :section, :face_data, :registration_date, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// UpdateProfile applies the non-nil fields and returns sql.ErrNoRows for unknown ids.
func (r *StudentRepository) UpdateProfile(ctx context.Context, id string, update models.StudentProfileUpdate) error {
	set := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("full_name", update.FullName)
	add("email", update.Email)
	add("course", update.Course)
	add("semester", update.Semester)
	add("section", update.Section)

	args = append(args, time.Now().UTC())
	set = append(set, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf("UPDATE students SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
