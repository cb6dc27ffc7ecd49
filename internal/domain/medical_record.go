package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RecordType classifies what a medical record row holds.
type RecordType string

const (
	RecordNote         RecordType = "note"
	RecordLabResult    RecordType = "lab_result"
	RecordPrescription RecordType = "prescription"
	RecordImaging      RecordType = "imaging"
	RecordOther        RecordType = "other"
)

// RecordTypeOrder is the display order for record categories.
func RecordTypeOrder() []RecordType {
	return []RecordType{RecordNote, RecordLabResult, RecordPrescription, RecordImaging, RecordOther}
}

// IsValid checks if the record type is known
func (t RecordType) IsValid() bool {
	for _, valid := range RecordTypeOrder() {
		if t == valid {
			return true
		}
	}
	return false
}

// MedicalRecord is one row of the medical-records store. Content is either a
// JSON string (free text) or a JSON document such as a lab-result map.
type MedicalRecord struct {
	ID         uuid.UUID       `json:"id"`
	PatientID  string          `json:"patient_id"`
	DoctorID   string          `json:"doctor_id"`
	Title      string          `json:"title"`
	RecordType RecordType      `json:"record_type"`
	Content    json.RawMessage `json:"content" swaggertype:"object"`
	CreatedAt  time.Time       `json:"created_at"`
}

// CreateRecordRequest is the payload for adding a record to a patient chart
type CreateRecordRequest struct {
	PatientID  string          `json:"patient_id" validate:"required,uuid"`
	Title      string          `json:"title" validate:"required,min=2,max=200,no_emoji"`
	RecordType RecordType      `json:"record_type" validate:"required,oneof=note lab_result prescription imaging other"`
	Content    json.RawMessage `json:"content" validate:"required" swaggertype:"object"`
}

// RecordFilter narrows record listings
type RecordFilter struct {
	PatientID  string
	DoctorID   string
	RecordType *RecordType
	Limit      int
	Offset     int
}

type MedicalRecordRepository interface {
	Create(ctx context.Context, record *MedicalRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error)
	List(ctx context.Context, filter RecordFilter) ([]MedicalRecord, error)
}

// MedicalRecordUsecase scopes every operation to the requesting viewer.
type MedicalRecordUsecase interface {
	ListForViewer(ctx context.Context, viewer *Viewer, filter RecordFilter) ([]MedicalRecord, error)
	Get(ctx context.Context, viewer *Viewer, id uuid.UUID) (*MedicalRecord, error)
	Create(ctx context.Context, viewer *Viewer, req *CreateRecordRequest) (*MedicalRecord, error)
	Export(ctx context.Context, viewer *Viewer, filter RecordFilter) ([]byte, string, error)
}
