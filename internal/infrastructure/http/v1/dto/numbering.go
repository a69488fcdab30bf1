package dto

import (
	"time"

	"belgeno/internal/core/numerator"
	"belgeno/internal/domain/numbering"
)

// --- Kinds ---

// KindResponse describes one document kind.
type KindResponse struct {
	Kind          string `json:"kind"`
	FormatKey     string `json:"formatKey"`
	SequenceKey   string `json:"sequenceKey"`
	DefaultFormat string `json:"defaultFormat"`
	Scheme        string `json:"scheme"`
	Remote        bool   `json:"remote"`
}

// FromKindInfo creates KindResponse from numbering.KindInfo.
func FromKindInfo(k numbering.KindInfo) KindResponse {
	return KindResponse{
		Kind:          k.Kind.String(),
		FormatKey:     k.FormatKey,
		SequenceKey:   k.Kind.SequenceKey(),
		DefaultFormat: k.DefaultFormat,
		Scheme:        k.Scheme.String(),
		Remote:        k.Remote,
	}
}

// --- Formats ---

// FormatResponse is the effective format of a kind.
type FormatResponse struct {
	Kind    string `json:"kind"`
	Format  string `json:"format"`
	Preview string `json:"preview"`
}

// SaveFormatRequest for PUT /formats/:kind.
type SaveFormatRequest struct {
	Format string `json:"format" binding:"required"`
}

// ValidateFormatRequest for POST /formats/validate.
type ValidateFormatRequest struct {
	Format string `json:"format"`
	// Kind optionally applies kind specific rules (bare GİB series).
	Kind string `json:"kind,omitempty"`
}

// ValidateFormatResponse reports validation of the sanitized format.
type ValidateFormatResponse struct {
	Format string   `json:"format"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// FromValidation creates ValidateFormatResponse.
func FromValidation(format string, v numerator.Validation) ValidateFormatResponse {
	errs := v.Errors
	if errs == nil {
		errs = []string{}
	}
	return ValidateFormatResponse{Format: format, Valid: v.Valid, Errors: errs}
}

// PreviewRequest for POST /formats/preview.
type PreviewRequest struct {
	Format string `json:"format" binding:"required"`
	// Kind selects the rendering scheme; empty renders generically.
	Kind     string     `json:"kind,omitempty"`
	Sequence *int64     `json:"sequence,omitempty" binding:"omitempty,min=0"`
	Date     *time.Time `json:"date,omitempty"`
}

// PreviewResponse is a sample number.
type PreviewResponse struct {
	Format  string `json:"format"`
	Preview string `json:"preview"`
}

// --- Numbers ---

// GenerateNumberRequest for POST /numbers/:kind. The body is optional.
type GenerateNumberRequest struct {
	Date        *time.Time `json:"date,omitempty"`
	CheckRemote bool       `json:"checkRemote"`
}

// ToOptions converts to numerator options.
func (r GenerateNumberRequest) ToOptions() *numerator.Options {
	opts := numerator.DefaultOptions()
	if r.Date != nil {
		opts.Date = *r.Date
	}
	opts.CheckRemote = r.CheckRemote
	return opts
}

// NumberResponse carries an issued number.
type NumberResponse struct {
	Kind   string `json:"kind"`
	Number string `json:"number"`
}

// --- Sequences ---

// SequenceResponse carries a counter value.
type SequenceResponse struct {
	Kind  string `json:"kind"`
	Key   string `json:"key"`
	Value int64  `json:"value"`
}

// ResetSequenceRequest for PUT /sequences/:kind/reset.
type ResetSequenceRequest struct {
	StartValue *int64 `json:"startValue" binding:"required,min=0"`
}

// --- Audit ---

// HistoryQuery for GET /audit/:kind.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// AuditEntryResponse is one recorded change.
type AuditEntryResponse struct {
	Action    string    `json:"action"`
	UserID    string    `json:"userId,omitempty"`
	Old       string    `json:"old"`
	New       string    `json:"new"`
	RequestID string    `json:"requestId,omitempty"`
	At        time.Time `json:"at"`
}

// FromAuditEntries converts audit entries.
func FromAuditEntries(entries []numerator.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			Action:    string(e.Action),
			UserID:    e.UserID,
			Old:       e.Old,
			New:       e.New,
			RequestID: e.RequestID,
			At:        e.At,
		})
	}
	return out
}
