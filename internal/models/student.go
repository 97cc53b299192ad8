package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Student is a registered learner together with the face captures used for recognition.
type Student struct {
	ID               string    `db:"id" json:"id"`
	StudentID        string    `db:"student_id" json:"student_id"`
	FullName         string    `db:"full_name" json:"full_name"`
	Email            string    `db:"email" json:"email"`
	Course           string    `db:"course" json:"course"`
	Semester         string    `db:"semester" json:"semester"`
	Section          string    `db:"section" json:"section"`
	FaceData         FaceData  `db:"face_data" json:"face_data"`
	RegistrationDate time.Time `db:"registration_date" json:"registration_date"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// FaceData holds base64 encoded captures. Only the frontal pose is mandatory.
type FaceData struct {
	Frontal      string `json:"frontal"`
	LeftProfile  string `json:"left_profile,omitempty"`
	RightProfile string `json:"right_profile,omitempty"`
	UpwardTilt   string `json:"upward_tilt,omitempty"`
	DownwardTilt string `json:"downward_tilt,omitempty"`
}

// Poses lists the captured poses with their canonical image file names, frontal first.
func (f FaceData) Poses() []FacePose {
	all := []FacePose{
		{ImageName: "frontal.jpg", Data: f.Frontal},
		{ImageName: "left.jpg", Data: f.LeftProfile},
		{ImageName: "right.jpg", Data: f.RightProfile},
		{ImageName: "up.jpg", Data: f.UpwardTilt},
		{ImageName: "down.jpg", Data: f.DownwardTilt},
	}
	poses := all[:0]
	for _, p := range all {
		if p.Data != "" {
			poses = append(poses, p)
		}
	}
	return poses
}

// FacePose is a single named capture.
type FacePose struct {
	ImageName string
	Data      string
}

// Value marshals face data into JSONB.
func (f FaceData) Value() (driver.Value, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal face data: %w", err)
	}
	return data, nil
}

// Scan reads JSONB face data.
func (f *FaceData) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("scan face data: %w", err)
	}
	if len(data) == 0 {
		*f = FaceData{}
		return nil
	}
	return json.Unmarshal(data, f)
}

// StudentFilter narrows roster and search queries.
type StudentFilter struct {
	Course string
	Search string
	Limit  int
}

// StudentProfileUpdate carries the editable profile fields. Nil fields are left untouched.
type StudentProfileUpdate struct {
	FullName *string
	Email    *string
	Course   *string
	Semester *string
	Section  *string
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}
