package store

import "time"

// ApplicantType distinguishes players from staff.
type ApplicantType string

const (
	ApplicantPlayer ApplicantType = "player"
	ApplicantStaff  ApplicantType = "staff"
)

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	// StatusPending means the application has not been reconciled yet.
	StatusPending ApplicationStatus = "pending"
	// StatusVerified means the last reconciliation produced a match.
	StatusVerified ApplicationStatus = "verified"
	// StatusUnverifiable means the last reconciliation could not confirm the applicant.
	StatusUnverifiable ApplicationStatus = "unverifiable"
	// StatusRejected is set by administrators only.
	StatusRejected ApplicationStatus = "rejected"
)

// Tournament is a competition for which applications are collected.
type Tournament struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`
	Year int    `gorm:"not null" json:"year"`

	// AcceptanceOpen gates new reconciliation jobs.
	AcceptanceOpen bool `gorm:"not null" json:"acceptance_open"`

	// Active marks the tournament administrators are currently working on.
	Active bool `gorm:"not null;index" json:"active"`

	// RegistryYear overrides the registration year used when searching the registry.
	// When nil the calendar year is used.
	RegistryYear *int `json:"registry_year,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAcceptanceOpen reports whether new reconciliation jobs may start.
func (t *Tournament) IsAcceptanceOpen() bool {
	return t != nil && t.AcceptanceOpen
}

// Application is a provisional player or staff credential request.
type Application struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	TournamentID  uint              `gorm:"not null;index:idx_applications_tournament_team" json:"tournament_id"`
	ApplicantType ApplicantType     `gorm:"size:16;not null" json:"applicant_type"`
	Name          string            `gorm:"size:255;not null" json:"name"`
	Team          string            `gorm:"size:255;not null;index:idx_applications_tournament_team" json:"team"`
	Number        string            `gorm:"size:16" json:"number,omitempty"`
	MemberID      string            `gorm:"size:32" json:"member_id,omitempty"`
	BirthDate     string            `gorm:"size:32" json:"birth_date,omitempty"`
	Role          string            `gorm:"size:64" json:"role,omitempty"`
	Division      string            `gorm:"size:32" json:"division,omitempty"`
	FileRef       string            `gorm:"size:512" json:"file_ref,omitempty"`
	Status        ApplicationStatus `gorm:"size:16;not null;index" json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// VerificationResult is the outcome of reconciling one application in one job.
// Exactly one result per application is current; older ones are history.
type VerificationResult struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	ApplicationID uint   `gorm:"not null;index" json:"application_id"`
	IsCurrent     bool   `gorm:"column:is_current;not null;index" json:"is_current"`
	Outcome       string `gorm:"size:32;not null" json:"outcome"`

	// Confidence is in [0, 1].
	Confidence float64 `gorm:"not null" json:"confidence"`

	// MatchedRecord is the JSON snapshot of the registry row for matched outcomes.
	MatchedRecord string `gorm:"type:text" json:"matched_record,omitempty"`

	// Candidates is the JSON list of registry rows attached for manual review.
	Candidates string `gorm:"type:text" json:"candidates,omitempty"`

	// FailureKind is set for registry-unavailable outcomes.
	FailureKind string `gorm:"size:32" json:"failure_kind,omitempty"`

	RegistryYear int       `json:"registry_year"`
	JobID        string    `gorm:"size:36;index" json:"job_id"`
	CheckedAt    time.Time `gorm:"not null" json:"checked_at"`
}

// AdminSetting is a key/value pair of administrator configuration.
type AdminSetting struct {
	Key       string    `gorm:"primaryKey;size:191"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// Models lists every table owned by this package in migration order.
func Models() []any {
	return []any{&Tournament{}, &Application{}, &VerificationResult{}, &AdminSetting{}}
}
