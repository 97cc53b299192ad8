package dto

import "github.com/noah-isme/face-attendance-api/internal/models"

// CreateCourseRequest captures POST /courses payload. Every field is mandatory.
type CreateCourseRequest struct {
	Code        string              `json:"code" validate:"required"`
	Title       string              `json:"title" validate:"required"`
	Instructor  string              `json:"instructor" validate:"required"`
	Description string              `json:"description" validate:"required"`
	Status      models.CourseStatus `json:"status" validate:"required"`
	Students    int                 `json:"students" validate:"gte=0"`
	Duration    string              `json:"duration" validate:"required"`
	Progress    int                 `json:"progress" validate:"gte=0,lte=100"`
}
