package domain

import "context"

// StructureNoteRequest carries free-text clinical notes to be structured
type StructureNoteRequest struct {
	Text string `json:"text" validate:"required,min=10,max=8000"`
}

// StructuredNote is the SOAP layout produced by the note assistant
type StructuredNote struct {
	ChiefComplaint string   `json:"chief_complaint"`
	Subjective     string   `json:"subjective"`
	Objective      string   `json:"objective"`
	Assessment     string   `json:"assessment"`
	Plan           string   `json:"plan"`
	Medications    []string `json:"medications"`
	FollowUp       string   `json:"follow_up"`
}

// TextCompleter forwards a prompt to a hosted text-completion service
type TextCompleter interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	IsConfigured() bool
}

type NoteUsecase interface {
	Structure(ctx context.Context, req *StructureNoteRequest) (*StructuredNote, error)
}
