package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go-healthcare-portal/internal/domain"
	"go-healthcare-portal/pkg/apperror"
	"go-healthcare-portal/pkg/llm"
	"go-healthcare-portal/pkg/logger"
	"go-healthcare-portal/pkg/metrics"

	"github.com/go-playground/validator/v10"
)

const noteSystemPrompt = `You are a clinical documentation assistant. Rewrite the clinician's free-text note as a SOAP note.
Respond with a single JSON object with exactly these keys:
"chief_complaint" (string), "subjective" (string), "objective" (string), "assessment" (string),
"plan" (string), "medications" (array of strings), "follow_up" (string).
Use only information present in the note. Leave a field as an empty string (or empty array) when the note does not cover it.
Do not add diagnoses, doses or advice that the note does not contain.`

type noteUsecase struct {
	completer domain.TextCompleter
	validate  *validator.Validate
	metrics   *metrics.Recorder
}

func NewNoteUsecase(completer domain.TextCompleter, validate *validator.Validate, recorder *metrics.Recorder) domain.NoteUsecase {
	return &noteUsecase{completer: completer, validate: validate, metrics: recorder}
}

func (u *noteUsecase) count(outcome string) {
	if u.metrics != nil {
		u.metrics.NoteRequest(outcome)
	}
}

func (u *noteUsecase) Structure(ctx context.Context, req *domain.StructureNoteRequest) (*domain.StructuredNote, error) {
	if u.completer == nil || !u.completer.IsConfigured() {
		u.count("unconfigured")
		return nil, apperror.Unavailable("Note assistant is not configured", nil)
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := u.validate.Struct(req); err != nil {
		u.count("invalid")
		return nil, validationError(err)
	}

	out, err := u.completer.Complete(ctx, noteSystemPrompt, "Clinical note:\n"+req.Text)
	if err != nil {
		logger.Log.Error("Note assistant call failed", "transient", llm.IsTransient(err), "error", err)
		if llm.IsFatal(err) && !errors.Is(err, context.Canceled) {
			u.count("rejected")
			return nil, apperror.New(http.StatusBadGateway, "Note assistant rejected the request", err)
		}
		u.count("unavailable")
		return nil, apperror.Unavailable("Note assistant is temporarily unavailable", err)
	}

	note, err := parseStructuredNote(out)
	if err != nil {
		logger.Log.Warn("Note assistant returned unusable output", "error", err)
		u.count("malformed")
		return nil, apperror.New(http.StatusBadGateway, "Note assistant returned an unusable response", err)
	}
	u.count("ok")
	return note, nil
}

func parseStructuredNote(out string) (*domain.StructuredNote, error) {
	raw := llm.ExtractJSON(out)
	if raw == "" {
		return nil, errors.New("no JSON object in completion")
	}
	var note domain.StructuredNote
	if err := json.Unmarshal([]byte(raw), &note); err != nil {
		return nil, err
	}
	if note.Medications == nil {
		note.Medications = []string{}
	}
	if note.ChiefComplaint == "" && note.Subjective == "" && note.Objective == "" &&
		note.Assessment == "" && note.Plan == "" {
		return nil, errors.New("completion has no SOAP content")
	}
	return &note, nil
}
