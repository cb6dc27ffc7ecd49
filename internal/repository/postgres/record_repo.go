package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultRecordLimit = 50
	maxRecordLimit     = 500
)

type recordRepo struct {
	db *pgxpool.Pool
}

func NewMedicalRecordRepository(db *pgxpool.Pool) domain.MedicalRecordRepository {
	return &recordRepo{db: db}
}

const recordColumns = `id, patient_id, doctor_id, title, record_type, content, created_at`

func scanRecord(row pgx.Row, rec *domain.MedicalRecord) error {
	var content []byte
	if err := row.Scan(&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.Title, &rec.RecordType, &content, &rec.CreatedAt); err != nil {
		return err
	}
	rec.Content = content
	return nil
}

func (r *recordRepo) Create(ctx context.Context, rec *domain.MedicalRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	query := `INSERT INTO medical_records (` + recordColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)`
	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.PatientID, rec.DoctorID, rec.Title, rec.RecordType, string(rec.Content), rec.CreatedAt,
	)
	if err != nil {
		if hasCode(err, pgForeignKeyViolation) {
			return apperror.BadRequest("Patient does not exist")
		}
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

func (r *recordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.MedicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM medical_records WHERE id = $1`
	var rec domain.MedicalRecord
	if err := scanRecord(r.db.QueryRow(ctx, query, id), &rec); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &rec, nil
}

func (r *recordRepo) List(ctx context.Context, filter domain.RecordFilter) ([]domain.MedicalRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.PatientID != "" {
		add("patient_id = $%d", filter.PatientID)
	}
	if filter.DoctorID != "" {
		add("doctor_id = $%d", filter.DoctorID)
	}
	if filter.RecordType != nil {
		add("record_type = $%d", *filter.RecordType)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultRecordLimit
	}
	if limit > maxRecordLimit {
		limit = maxRecordLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + recordColumns + ` FROM medical_records`)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	args = append(args, limit, offset)
	sb.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args)))

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	results := []domain.MedicalRecord{}
	for rows.Next() {
		var rec domain.MedicalRecord
		if err := scanRecord(rows, &rec); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}
	return results, nil
}
