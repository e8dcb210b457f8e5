package domain

import "time"

// Patient preference defaults applied when a profile is created.
const (
	DefaultLanguage            = "en"
	DefaultCommunicationMethod = "email"
	DefaultPrivacyLevel        = "standard"
)

// PatientPreferences holds the communication settings of a patient.
type PatientPreferences struct {
	Language            string `json:"language" bson:"language"`
	CommunicationMethod string `json:"communication_method" bson:"communication_method"`
	PrivacyLevel        string `json:"privacy_level" bson:"privacy_level"`
}

// PatientProfile is created alongside every PATIENT user and follows its
// owner through soft delete and restore.
type PatientProfile struct {
	ID          string             `json:"id" bson:"_id,omitempty"`
	PatientID   string             `json:"patient_id" bson:"patient_id"`
	UserID      string             `json:"user_id" bson:"user_id"`
	Preferences PatientPreferences `json:"preferences" bson:"preferences"`
	IsDeleted   bool               `json:"is_deleted" bson:"is_deleted"`
	DeletedAt   *time.Time         `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
	DeletedBy   string             `json:"deleted_by,omitempty" bson:"deleted_by,omitempty"`
	CreatedBy   string             `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// DefaultPatientPreferences returns the preferences a new profile starts with.
func DefaultPatientPreferences() PatientPreferences {
	return PatientPreferences{
		Language:            DefaultLanguage,
		CommunicationMethod: DefaultCommunicationMethod,
		PrivacyLevel:        DefaultPrivacyLevel,
	}
}
