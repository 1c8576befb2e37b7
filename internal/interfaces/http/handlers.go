package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/application/service"
	"github.com/garyjia/kvdph/internal/domain/entity"
	"github.com/garyjia/kvdph/internal/domain/workflow"
	"github.com/garyjia/kvdph/internal/export"
	"github.com/garyjia/kvdph/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	statements service.StatementService
	version    string
	logger     Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(statements service.StatementService, version string, logger Logger) *Handlers {
	return &Handlers{
		statements: statements,
		version:    version,
		logger:     logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// TotalsResponse carries amounts as fixed two-decimal strings
type TotalsResponse struct {
	RegularBase string `json:"regular_base"`
	RegularTax  string `json:"regular_tax"`
	RefundBase  string `json:"refund_base"`
	RefundTax   string `json:"refund_tax"`
}

// StatementResponse represents a statement in API responses
type StatementResponse struct {
	ID           string         `json:"id"`
	Reference    string         `json:"reference"`
	CompanyID    string         `json:"company_id"`
	Year         int            `json:"year"`
	Month        int            `json:"month"`
	DateFrom     string         `json:"date_from"`
	DateTo       string         `json:"date_to"`
	Status       string         `json:"status"`
	Locked       bool           `json:"locked"`
	Actions      []string       `json:"available_actions"`
	Currency     string         `json:"currency"`
	Totals       TotalsResponse `json:"totals"`
	XMLFileName  string         `json:"xml_file_name,omitempty"`
	XLSXFileName string         `json:"xlsx_file_name,omitempty"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
}

// LineResponse represents a report line in API responses
type LineResponse struct {
	Sequence       int    `json:"sequence"`
	PartnerVAT     string `json:"partner_vat"`
	DocumentNumber string `json:"document_number"`
	InvoiceDate    string `json:"invoice_date"`
	SupplyDate     string `json:"supply_date"`
	BaseAmount     string `json:"base_amount"`
	TaxRate        string `json:"tax_rate"`
	TaxAmount      string `json:"tax_amount"`
	IsSummary      bool   `json:"is_summary"`
	IsRefund       bool   `json:"is_refund"`
}

// StatementDetailResponse is a statement with its lines
type StatementDetailResponse struct {
	Statement StatementResponse `json:"statement"`
	Lines     []LineResponse    `json:"lines"`
}

// ExportResponse describes a completed export
type ExportResponse struct {
	Statement StatementResponse `json:"statement"`
	FileName  string            `json:"file_name"`
	Size      int               `json:"size"`
}

// CreateStatementRequest is the body of POST /api/statements
type CreateStatementRequest struct {
	CompanyID string `json:"company_id" binding:"required"`
	Year      int    `json:"year" binding:"required"`
	Month     int    `json:"month" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   h.version,
		},
	})
}

// CreateStatement handles POST /api/statements
func (h *Handlers) CreateStatement(c *gin.Context) {
	var req CreateStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid create request", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	if err := utils.ValidatePeriod(req.Year, req.Month); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	stmt, err := h.statements.Create(c.Request.Context(), service.CreateStatementInput{
		CompanyID: req.CompanyID,
		Year:      req.Year,
		Month:     req.Month,
	})
	if err != nil {
		h.writeError(c, "Failed to create statement", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    toStatementResponse(stmt),
	})
}

// ListStatements handles GET /api/statements?company_id=
func (h *Handlers) ListStatements(c *gin.Context) {
	statements, err := h.statements.List(c.Request.Context(), c.Query("company_id"))
	if err != nil {
		h.writeError(c, "Failed to list statements", err)
		return
	}

	response := make([]StatementResponse, 0, len(statements))
	for _, stmt := range statements {
		response = append(response, toStatementResponse(stmt))
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// GetStatement handles GET /api/statements/:id
func (h *Handlers) GetStatement(c *gin.Context) {
	detail, err := h.statements.GetWithLines(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "Failed to get statement", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toDetailResponse(detail),
	})
}

// GenerateStatement handles POST /api/statements/:id/generate
func (h *Handlers) GenerateStatement(c *gin.Context) {
	detail, err := h.statements.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "Failed to generate statement", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toDetailResponse(detail),
	})
}

// ConfirmStatement handles POST /api/statements/:id/confirm
func (h *Handlers) ConfirmStatement(c *gin.Context) {
	stmt, err := h.statements.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "Failed to confirm statement", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toStatementResponse(stmt),
	})
}

// ResetStatement handles POST /api/statements/:id/reset
func (h *Handlers) ResetStatement(c *gin.Context) {
	stmt, err := h.statements.ResetToDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "Failed to reset statement", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toStatementResponse(stmt),
	})
}

// ExportStatement handles POST /api/statements/:id/export/:format.
// A refused export answers 409 with the warning and leaves the statement unchanged.
func (h *Handlers) ExportStatement(c *gin.Context) {
	id := c.Param("id")

	var result *service.ExportResult
	var err error
	switch export.Format(strings.ToLower(c.Param("format"))) {
	case export.FormatXML:
		result, err = h.statements.ExportXML(c.Request.Context(), id)
	case export.FormatXLSX:
		result, err = h.statements.ExportXLSX(c.Request.Context(), id)
	default:
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "unsupported export format",
		})
		return
	}
	if err != nil {
		h.writeError(c, "Failed to export statement", err)
		return
	}

	if !result.Exported {
		message := "export not allowed"
		if result.Warning != nil {
			message = result.Warning.Error()
		}
		c.JSON(http.StatusConflict, Response{
			Success: false,
			Data:    toStatementResponse(result.Statement),
			Error:   message,
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ExportResponse{
			Statement: toStatementResponse(result.Statement),
			FileName:  result.Artifact.FileName,
			Size:      len(result.Artifact.Content),
		},
	})
}

// DownloadArtifact handles GET /api/statements/:id/files/:format
func (h *Handlers) DownloadArtifact(c *gin.Context) {
	format := export.Format(strings.ToLower(c.Param("format")))
	if format != export.FormatXML && format != export.FormatXLSX {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "unsupported export format",
		})
		return
	}

	artifact, err := h.statements.Artifact(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		h.writeError(c, "Failed to load artifact", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+artifact.FileName+`"`)
	c.Data(http.StatusOK, artifact.ContentType, artifact.Content)
}

// ListNotes handles GET /api/statements/:id/notes
func (h *Handlers) ListNotes(c *gin.Context) {
	notes, err := h.statements.Notes(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "Failed to list notes", err)
		return
	}
	if notes == nil {
		notes = []*entity.Note{}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    notes,
	})
}

func (h *Handlers) writeError(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "path", c.Request.URL.Path, "error", err)
	}

	c.JSON(status, Response{
		Success: false,
		Error:   err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, port.ErrNotFound), errors.Is(err, service.ErrArtifactMissing):
		return http.StatusNotFound
	case errors.Is(err, port.ErrDuplicateStatement), errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, entity.ErrInvalidPeriod):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func toStatementResponse(stmt *entity.Statement) StatementResponse {
	state := workflow.State(stmt.Status)
	actions := []string{}
	if machine, err := workflow.NewStatementMachine(stmt.Status); err == nil {
		for _, trigger := range machine.PermittedTriggers() {
			actions = append(actions, trigger.String())
		}
	}

	return StatementResponse{
		ID:        stmt.ID,
		Reference: stmt.Reference,
		CompanyID: stmt.CompanyID,
		Year:      stmt.Year,
		Month:     stmt.Month,
		DateFrom:  stmt.DateFrom.Format(entity.DateLayout),
		DateTo:    stmt.DateTo.Format(entity.DateLayout),
		Status:    stmt.Status,
		Locked:    state.IsLocked(),
		Actions:   actions,
		Currency:  stmt.Currency,
		Totals: TotalsResponse{
			RegularBase: stmt.Totals.RegularBase.StringFixed(2),
			RegularTax:  stmt.Totals.RegularTax.StringFixed(2),
			RefundBase:  stmt.Totals.RefundBase.StringFixed(2),
			RefundTax:   stmt.Totals.RefundTax.StringFixed(2),
		},
		XMLFileName:  stmt.XMLFileName,
		XLSXFileName: stmt.XLSXFileName,
		CreatedAt:    stmt.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    stmt.UpdatedAt.Format(time.RFC3339),
	}
}

func toDetailResponse(detail *service.StatementDetail) StatementDetailResponse {
	lines := make([]LineResponse, 0, len(detail.Lines))
	for _, line := range detail.Lines {
		lines = append(lines, LineResponse{
			Sequence:       line.Sequence,
			PartnerVAT:     line.PartnerVATValue(),
			DocumentNumber: line.DocumentNumber,
			InvoiceDate:    line.InvoiceDate.Format(entity.DateLayout),
			SupplyDate:     line.SupplyDate.Format(entity.DateLayout),
			BaseAmount:     line.BaseAmount.StringFixed(2),
			TaxRate:        line.TaxRate.String(),
			TaxAmount:      line.TaxAmount.StringFixed(2),
			IsSummary:      line.IsSummary,
			IsRefund:       line.IsRefund,
		})
	}
	return StatementDetailResponse{
		Statement: toStatementResponse(detail.Statement),
		Lines:     lines,
	}
}
