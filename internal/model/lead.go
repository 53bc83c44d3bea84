// Package model holds the core domain types shared across the qualification pipeline.
package model

import (
	"net/mail"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// LeadSource identifies the channel a lead arrived through.
type LeadSource string

const (
	SourceWebForm LeadSource = "web_form"
	SourceCSV     LeadSource = "csv_upload"
	SourceWebhook LeadSource = "webhook"
	SourceAPI     LeadSource = "api"
)

// Lead is an inbound sales lead. Immutable once submitted; it is the
// input to enrichment and scoring.
type Lead struct {
	Email     string            `json:"email"`
	Company   string            `json:"company,omitempty"`
	FirstName string            `json:"first_name,omitempty"`
	LastName  string            `json:"last_name,omitempty"`
	Message   string            `json:"message,omitempty"`
	Source    LeadSource        `json:"source,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`

	SubmittedAt time.Time `json:"submitted_at,omitempty"`
}

// Validate checks the lead for well-formedness. A lead needs at minimum a
// parseable email address; everything else is optional.
func (l Lead) Validate() error {
	email := strings.TrimSpace(l.Email)
	if email == "" {
		return eris.New("lead: email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return eris.Wrap(err, "lead: invalid email")
	}
	return nil
}

// Domain extracts the domain portion of the lead's email, lowercased.
// Returns "" if the email has no @.
func (l Lead) Domain() string {
	at := strings.LastIndex(l.Email, "@")
	if at < 0 || at == len(l.Email)-1 {
		return ""
	}
	return strings.ToLower(l.Email[at+1:])
}

// FullName joins first and last name, trimming stray spaces.
func (l Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}
