package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"belgeno/internal/core/apperror"
	"belgeno/internal/core/numerator"
	"belgeno/internal/domain/numbering"
	"belgeno/internal/infrastructure/http/v1/dto"
)

// previewSample is the sequence shown in format previews.
const previewSample = 1

// NumberingService is the part of numbering.Service the HTTP API uses.
type NumberingService interface {
	Kinds() []numbering.KindInfo
	GetNumberFormat(ctx context.Context, kind numerator.DocumentKind, companyID string) string
	SaveFormat(ctx context.Context, kind numerator.DocumentKind, companyID, format string) (string, error)
	GetNextNumber(ctx context.Context, kind numerator.DocumentKind, companyID string, opts *numerator.Options) (string, error)
	NextSequence(ctx context.Context, kind numerator.DocumentKind, companyID string) int64
	CurrentSequence(ctx context.Context, kind numerator.DocumentKind, companyID string) (int64, error)
	ResetSequence(ctx context.Context, kind numerator.DocumentKind, companyID string, startValue int64) error
	History(ctx context.Context, kind numerator.DocumentKind, companyID string, limit int) ([]numerator.AuditEntry, error)
}

// Ensure compile-time interface compliance.
var _ NumberingService = (*numbering.Service)(nil)

// NumberingHandler serves /numbering.
type NumberingHandler struct {
	*BaseHandler
	service NumberingService
	now     func() time.Time
}

// NewNumberingHandler creates a new numbering handler.
func NewNumberingHandler(base *BaseHandler, service NumberingService) *NumberingHandler {
	return &NumberingHandler{
		BaseHandler: base,
		service:     service,
		now:         time.Now,
	}
}

// ListKinds handles GET /numbering/kinds.
func (h *NumberingHandler) ListKinds(c *gin.Context) {
	kinds := h.service.Kinds()
	out := make([]dto.KindResponse, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, dto.FromKindInfo(k))
	}
	h.OK(c, gin.H{"items": out})
}

// GetFormat handles GET /numbering/formats/:kind.
func (h *NumberingHandler) GetFormat(c *gin.Context) {
	kind, ok := h.Kind(c)
	if !ok {
		return
	}
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}

	format := h.service.GetNumberFormat(c.Request.Context(), kind, companyID)
	h.OK(c, dto.FormatResponse{
		Kind:    kind.String(),
		Format:  format,
		Preview: kind.Preview(format, previewSample, h.now()),
	})
}

// SaveFormat handles PUT /numbering/formats/:kind.
func (h *NumberingHandler) SaveFormat(c *gin.Context) {
	kind, ok := h.Kind(c)
	if !ok {
		return
	}
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}
	var req dto.SaveFormatRequest
	if !h.BindJSON(c, &req) {
		return
	}

	stored, err := h.service.SaveFormat(c.Request.Context(), kind, companyID, req.Format)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FormatResponse{
		Kind:    kind.String(),
		Format:  stored,
		Preview: kind.Preview(stored, previewSample, h.now()),
	})
}

// ValidateFormat handles POST /numbering/formats/validate.
// The format is sanitized first; the response carries the sanitized value.
func (h *NumberingHandler) ValidateFormat(c *gin.Context) {
	var req dto.ValidateFormatRequest
	if !h.BindJSON(c, &req) {
		return
	}

	clean := numerator.SanitizeFormat(req.Format)
	if req.Kind == "" {
		h.OK(c, dto.FromValidation(clean, numerator.ValidateFormat(clean)))
		return
	}

	kind, ok := numerator.ParseDocumentKind(req.Kind)
	if !ok {
		h.Error(c, apperror.NewValidation("unknown document kind").WithDetail("kind", req.Kind))
		return
	}
	h.OK(c, dto.FromValidation(clean, kind.ValidateFormat(clean)))
}

// Preview handles POST /numbering/formats/preview.
func (h *NumberingHandler) Preview(c *gin.Context) {
	var req dto.PreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}

	clean := numerator.SanitizeFormat(req.Format)
	sample := int64(previewSample)
	if req.Sequence != nil {
		sample = *req.Sequence
	}
	date := h.now()
	if req.Date != nil {
		date = *req.Date
	}

	if req.Kind == "" {
		h.OK(c, dto.PreviewResponse{Format: clean, Preview: numerator.PreviewNumber(clean, sample, date)})
		return
	}

	kind, ok := numerator.ParseDocumentKind(req.Kind)
	if !ok {
		h.Error(c, apperror.NewValidation("unknown document kind").WithDetail("kind", req.Kind))
		return
	}
	h.OK(c, dto.PreviewResponse{Format: clean, Preview: kind.Preview(clean, sample, date)})
}

// GenerateNumber handles POST /numbering/numbers/:kind.
func (h *NumberingHandler) GenerateNumber(c *gin.Context) {
	kind, ok := h.Kind(c)
	if !ok {
		return
	}
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}
	var req dto.GenerateNumberRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	number, err := h.service.GetNextNumber(c.Request.Context(), kind, companyID, req.ToOptions())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NumberResponse{Kind: kind.String(), Number: number})
}

// GetSequence handles GET /numbering/sequences/:kind.
func (h *NumberingHandler) GetSequence(c *gin.Context) {
	kind, ok := h.Kind(c)
	if !ok {
		return
	}
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}

	value, err := h.service.CurrentSequence(c.Request.Context(), kind, companyID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.SequenceResponse{Kind: kind.String(), Key: kind.SequenceKey(), Value: value})
}

// NextSequence handles POST /numbering/sequences/:kind/next.
func (h *NumberingHandler) NextSequence(c *gin.Context) {
	kind, ok := h.Kind(c)
	if !ok {
		return
	}
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}

	value := h.service.NextSequence(c.Request.Context(), kind, companyID)
	h.OK(c, dto.SequenceResponse{Kind: kind.String(), Key: kind.SequenceKey(), Value: value})
}

// ResetSequence handles PUT /numbering/sequences/:kind/reset.
func (h *NumberingHandler) ResetSequence(c *gin.Context) {
	kind, ok := h.Kind(c)
	if !ok {
		return
	}
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}
	var req dto.ResetSequenceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.ResetSequence(c.Request.Context(), kind, companyID, *req.StartValue); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.SequenceResponse{Kind: kind.String(), Key: kind.SequenceKey(), Value: *req.StartValue})
}

// History handles GET /numbering/audit/:kind.
func (h *NumberingHandler) History(c *gin.Context) {
	kind, ok := h.Kind(c)
	if !ok {
		return
	}
	companyID, ok := h.CompanyID(c)
	if !ok {
		return
	}
	var q dto.HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.Error(c, apperror.NewValidation("invalid query").WithDetail("error", err.Error()))
		return
	}

	entries, err := h.service.History(c.Request.Context(), kind, companyID, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"kind": kind.String(), "items": dto.FromAuditEntries(entries)})
}
