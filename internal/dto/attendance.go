package dto

import "github.com/noah-isme/face-attendance-api/internal/models"

// MarkAttendanceRequest captures POST /attendance/mark payload.
type MarkAttendanceRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	// Time is an optional HH:MM clock; the server clock is used when empty.
	Time string `json:"time,omitempty"`
}

// MarkAttendanceResponse wraps a stored or pre-existing mark.
type MarkAttendanceResponse struct {
	Record        *models.AttendanceRecord `json:"record"`
	AlreadyMarked bool                     `json:"alreadyMarked"`
}

// RecognizeRequest carries one base64 camera frame.
type RecognizeRequest struct {
	Image string `json:"image" validate:"required"`
}

// RecognizeResponse reports the recognition outcome and the resulting mark.
type RecognizeResponse struct {
	RecognizedName  string                   `json:"recognizedName"`
	Similarity      float64                  `json:"similarity"`
	AllSimilarities map[string]float64       `json:"allSimilarities,omitempty"`
	Recognized      bool                     `json:"recognized"`
	AlreadyMarked   bool                     `json:"alreadyMarked"`
	Record          *models.AttendanceRecord `json:"record,omitempty"`
}

// AttendanceDayResponse lists one day's marks with its summary.
type AttendanceDayResponse struct {
	Date    string                    `json:"date"`
	Records []models.AttendanceRecord `json:"records"`
	Stats   models.DailySummary       `json:"stats"`
}
