package dto

// FaceDataPayload holds base64 captures submitted at registration.
type FaceDataPayload struct {
	Frontal      string `json:"frontal" validate:"required"`
	LeftProfile  string `json:"leftProfile,omitempty"`
	RightProfile string `json:"rightProfile,omitempty"`
	UpwardTilt   string `json:"upwardTilt,omitempty"`
	DownwardTilt string `json:"downwardTilt,omitempty"`
}

// RegisterStudentRequest captures POST /students/register payload.
type RegisterStudentRequest struct {
	StudentID string          `json:"studentId" validate:"required"`
	FullName  string          `json:"fullName" validate:"required"`
	Email     string          `json:"email" validate:"required,email"`
	Course    string          `json:"course" validate:"required"`
	Semester  string          `json:"semester" validate:"required"`
	Section   string          `json:"section" validate:"required"`
	FaceData  FaceDataPayload `json:"faceData" validate:"required"`
}

// StudentExistsResponse answers the registration pre-check.
type StudentExistsResponse struct {
	Exists bool `json:"exists"`
}

// UpdateStudentProfileRequest carries editable profile fields. Omitted fields are kept.
type UpdateStudentProfileRequest struct {
	FullName *string `json:"fullName,omitempty" validate:"omitempty,min=1"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Course   *string `json:"course,omitempty" validate:"omitempty,min=1"`
	Semester *string `json:"semester,omitempty"`
	Section  *string `json:"section,omitempty"`
}
