package models

// RegisterRequest represents the payload for creating an account
type RegisterRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=80"`
	Phone      string `json:"phone" validate:"required,phone"`
	Password   string `json:"password" validate:"required,min=6,max=72,password_bytes"`
	Role       Role   `json:"role" validate:"required,oneof=worker owner admin"`
	SkillLevel string `json:"skillLevel,omitempty" validate:"omitempty,experience_level"`
	Language   string `json:"language,omitempty" validate:"omitempty,max=16"`
}

// LoginRequest represents the payload for obtaining a bearer token
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required"`
}

// JobRequest represents the payload for creating or updating a job
type JobRequest struct {
	Title            string   `json:"title" validate:"required,max=120"`
	Description      string   `json:"description" validate:"max=4000"`
	Location         string   `json:"location" validate:"required,max=120"`
	Salary           string   `json:"salary" validate:"required,max=60"`
	Category         string   `json:"category" validate:"required,max=60"`
	ExperienceLevel  string   `json:"experienceLevel" validate:"omitempty,experience_level"`
	TrainingProvided bool     `json:"trainingProvided"`
	Requirements     []string `json:"requirements" validate:"max=20,dive,max=200"`
	Benefits         []string `json:"benefits" validate:"max=20,dive,max=200"`
}

// JobStatusRequest toggles a job between Active and Paused
type JobStatusRequest struct {
	Status JobStatus `json:"status" validate:"required,oneof=Active Paused"`
}

// ApplyRequest represents a worker applying to a job
type ApplyRequest struct {
	JobID   string `json:"jobId" validate:"required"`
	Message string `json:"message" validate:"max=1000"`
}

// ApplicationStatusRequest represents an owner's decision on an application
type ApplicationStatusRequest struct {
	Status ApplicationStatus `json:"status" validate:"required,oneof=shortlisted rejected"`
}

// PaymentRequest represents an owner recording a payment to a worker
type PaymentRequest struct {
	JobID    string `json:"jobId" validate:"required"`
	WorkerID string `json:"workerId" validate:"required"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Method   string `json:"method" validate:"required,oneof=cash upi bank"`
}

// PaymentStatusRequest settles a pending payment
type PaymentStatusRequest struct {
	Status PaymentStatus `json:"status" validate:"required,oneof=completed failed"`
}
