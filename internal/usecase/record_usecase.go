package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/internal/records"
	"go-healthcare-portal/pkg/apperror"
	"go-healthcare-portal/pkg/email"
	"go-healthcare-portal/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// exportLimit caps a single spreadsheet export
const exportLimit = 500

// RecordNotifier sends the patient a notice when a record is added.
type RecordNotifier interface {
	IsConfigured() bool
	SendRecordNotice(to string, data email.RecordNoticeData) error
}

type recordUsecase struct {
	records  domain.MedicalRecordRepository
	profiles domain.ProfileRepository
	users    domain.UserRepository
	notifier RecordNotifier
	validate *validator.Validate
	now      func() time.Time
}

func NewMedicalRecordUsecase(
	recordRepo domain.MedicalRecordRepository,
	profileRepo domain.ProfileRepository,
	userRepo domain.UserRepository,
	notifier RecordNotifier,
	validate *validator.Validate,
) domain.MedicalRecordUsecase {
	return &recordUsecase{
		records:  recordRepo,
		profiles: profileRepo,
		users:    userRepo,
		notifier: notifier,
		validate: validate,
		now:      time.Now,
	}
}

// viewerRole returns the role of an onboarded viewer, or an error for
// anyone who may not touch records yet.
func viewerRole(v *domain.Viewer) (domain.Role, error) {
	if v == nil || v.User == nil {
		return "", apperror.Unauthorized("User not authenticated")
	}
	if v.ProfileErr != nil {
		return "", apperror.Unavailable("Profile is temporarily unavailable", v.ProfileErr)
	}
	if v.Profile == nil || !v.Profile.IsOnboarded {
		return "", apperror.Forbidden("Complete onboarding first")
	}
	if !v.Profile.Role.IsValid() {
		return "", apperror.Forbidden("Unknown role")
	}
	return v.Profile.Role, nil
}

func (u *recordUsecase) ListForViewer(ctx context.Context, v *domain.Viewer, filter domain.RecordFilter) ([]domain.MedicalRecord, error) {
	role, err := viewerRole(v)
	if err != nil {
		return nil, err
	}

	switch role {
	case domain.RolePatient:
		filter.PatientID = v.User.ID
		filter.DoctorID = ""
	case domain.RoleDoctor:
		if filter.PatientID == "" {
			return nil, apperror.BadRequest("patient_id is required")
		}
	}
	if filter.RecordType != nil && !filter.RecordType.IsValid() {
		return nil, apperror.BadRequest("Unknown record type")
	}

	list, err := u.records.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return list, nil
}

func (u *recordUsecase) Get(ctx context.Context, v *domain.Viewer, id uuid.UUID) (*domain.MedicalRecord, error) {
	role, err := viewerRole(v)
	if err != nil {
		return nil, err
	}

	rec, err := u.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, apperror.NotFound("Record not found")
		}
		return nil, apperror.Internal(err)
	}
	// Patients never learn whether someone else's record exists
	if role == domain.RolePatient && rec.PatientID != v.User.ID {
		return nil, apperror.NotFound("Record not found")
	}
	return rec, nil
}

func (u *recordUsecase) Create(ctx context.Context, v *domain.Viewer, req *domain.CreateRecordRequest) (*domain.MedicalRecord, error) {
	role, err := viewerRole(v)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleDoctor && role != domain.RoleAdmin {
		return nil, apperror.Forbidden("Only doctors can add records")
	}

	if err := u.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	content, err := normalizeContent(req.Content)
	if err != nil {
		return nil, err
	}

	patient, err := u.profiles.GetByUserID(ctx, req.PatientID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil, apperror.NotFound("Patient not found")
		}
		return nil, apperror.Internal(err)
	}
	if patient.Role != domain.RolePatient || !patient.IsOnboarded {
		return nil, apperror.BadRequest("Records can only be added for onboarded patients")
	}

	rec := &domain.MedicalRecord{
		ID:         uuid.New(),
		PatientID:  req.PatientID,
		DoctorID:   v.User.ID,
		Title:      req.Title,
		RecordType: req.RecordType,
		Content:    content,
		CreatedAt:  u.now().UTC(),
	}
	if err := u.records.Create(ctx, rec); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperror.Internal(err)
	}

	u.notifyPatient(ctx, rec, patient, v.Profile)
	return rec, nil
}

// normalizeContent accepts any JSON value except null. Bare text is stored
// as a JSON string.
func normalizeContent(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, apperror.BadRequest("Validation failed: Content is required")
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed), nil
	}
	encoded, err := json.Marshal(string(trimmed))
	if err != nil {
		return nil, apperror.BadRequest("Validation failed: Content is not valid text")
	}
	return encoded, nil
}

// notifyPatient is best effort: a failed email never fails the write.
func (u *recordUsecase) notifyPatient(ctx context.Context, rec *domain.MedicalRecord, patient, author *domain.Profile) {
	if u.notifier == nil || !u.notifier.IsConfigured() {
		return
	}
	user, err := u.users.GetByID(ctx, rec.PatientID)
	if err != nil {
		logger.Log.Warn("Record notice skipped", "record_id", rec.ID, "error", err)
		return
	}

	data := email.RecordNoticeData{
		PatientName: patient.FullName,
		RecordType:  string(rec.RecordType),
		CreatedAt:   rec.CreatedAt,
	}
	if author != nil && author.Role == domain.RoleDoctor {
		data.DoctorName = "Dr. " + author.FullName
	}
	if err := u.notifier.SendRecordNotice(user.Email, data); err != nil {
		logger.Log.Error("Failed to send record notice", "record_id", rec.ID, "error", err)
	}
}

func (u *recordUsecase) Export(ctx context.Context, v *domain.Viewer, filter domain.RecordFilter) ([]byte, string, error) {
	filter.Limit = exportLimit
	filter.Offset = 0
	list, err := u.ListForViewer(ctx, v, filter)
	if err != nil {
		return nil, "", err
	}
	return exportExcel(list, u.now())
}

var recordHeaders = []string{"CREATED AT", "TYPE", "TITLE", "PATIENT ID", "DOCTOR ID", "SUMMARY"}
var labHeaders = []string{"RECORD ID", "CREATED AT", "TEST", "VALUE", "UNIT", "REFERENCE RANGE", "FLAG", "ABNORMAL"}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheet, "A1", endCell, style)
	for i := range headers {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, colName, colName, 20)
	}
}

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, v)
	}
}

// exportExcel writes one sheet of records and one of flattened lab values.
func exportExcel(list []domain.MedicalRecord, now time.Time) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const recordSheet, labSheet = "Records", "Lab Results"
	f.SetSheetName("Sheet1", recordSheet)
	if _, err := f.NewSheet(labSheet); err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#0F766E"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	writeHeader(f, recordSheet, recordHeaders, headerStyle)
	writeHeader(f, labSheet, labHeaders, headerStyle)

	labRow := 2
	for i, rec := range list {
		created := rec.CreatedAt.UTC().Format(time.RFC3339)
		setRow(f, recordSheet, i+2, created, string(rec.RecordType), rec.Title, rec.PatientID, rec.DoctorID, records.Summary(rec))

		view := records.Classify(rec.Content)
		if view.Kind != records.KindLabResults {
			continue
		}
		for _, l := range view.Labs {
			setRow(f, labSheet, labRow, rec.ID.String(), created, l.Test, l.Value, l.Unit, l.ReferenceRange, l.Flag, yesNo(l.Abnormal))
			labRow++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to write Excel file: %w", err)
	}

	filename := fmt.Sprintf("medical_records_%s.xlsx", now.Format("20060102_150405"))
	return buf.Bytes(), filename, nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
