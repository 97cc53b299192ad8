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

const courseColumns = `id, code, title, instructor, description, status, students, duration, progress, created_at`

// CourseRepository persists the course catalogue.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List searches title, code and instructor and returns the page with the total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	where := "WHERE 1=1"
	var args []interface{}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		where += " AND (LOWER(title) LIKE $1 OR LOWER(code) LIKE $1 OR LOWER(instructor) LIKE $1)"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 6
	}

	query := fmt.Sprintf("SELECT %s FROM courses %s ORDER BY created_at DESC LIMIT %d OFFSET %d", courseColumns, where, size, (page-1)*size)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM courses "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// ExistsByCode reports whether a course code is taken.
func (r *CourseRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM courses WHERE code = $1 LIMIT 1`, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check course code: %w", err)
	}
	return true, nil
}

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO courses (` + courseColumns + `)
        VALUES (:id, :code, :title, :instructor, :description, :status, :students, :duration, :progress, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}
