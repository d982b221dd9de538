package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"nfedit/internal/csvexport"
	"nfedit/internal/domain"
	"nfedit/internal/session"
	"nfedit/internal/xlsxexport"
)

// SessionHandler exposes the single editing session over HTTP.
type SessionHandler struct {
	store       *session.Store
	maxFileSize int64
}

// NewSessionHandler creates a new SessionHandler. maxFileSize bounds
// uploaded documents in bytes.
func NewSessionHandler(store *session.Store, maxFileSize int64) *SessionHandler {
	return &SessionHandler{store: store, maxFileSize: maxFileSize}
}

// Load handles POST /api/v1/session
// @Summary Load an NF-e document
// @Description Upload an NF-e XML file and open an editing session
// @Tags session
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "NF-e XML document"
// @Success 201 {object} APIResponse{data=domain.TableView} "Session opened"
// @Failure 400 {object} APIResponse "Missing file or unparseable document"
// @Failure 409 {object} APIResponse "A session is already active"
// @Failure 413 {object} APIResponse "File too large"
// @Router /session [post]
func (h *SessionHandler) Load(c *gin.Context) {
	if h.store.Active() {
		HandleError(c, domain.ErrSessionActive)
		return
	}

	raw, err := h.readDocument(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	view, err := h.store.Load(raw)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, view)
}

// readDocument pulls the uploaded XML out of the request: a multipart
// "file" field when present, the raw body otherwise.
func (h *SessionHandler) readDocument(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			return nil, domain.ErrMissingFile
		}
		defer func() { _ = file.Close() }()
		if header.Size > h.maxFileSize {
			return nil, domain.ErrFileTooLarge
		}
		return io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, domain.ErrMissingFile
	}
	if int64(len(raw)) > h.maxFileSize {
		return nil, domain.ErrFileTooLarge
	}
	return raw, nil
}

// Snapshot handles GET /api/v1/session
// @Summary Current table view
// @Description Full render model of the open session
// @Tags session
// @Produce json
// @Success 200 {object} APIResponse{data=domain.TableView}
// @Failure 404 {object} APIResponse "No document loaded"
// @Router /session [get]
func (h *SessionHandler) Snapshot(c *gin.Context) {
	view, err := h.store.Snapshot()
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, view)
}

// Reset handles DELETE /api/v1/session
// @Summary Close the session
// @Tags session
// @Produce json
// @Success 200 {object} APIResponse
// @Router /session [delete]
func (h *SessionHandler) Reset(c *gin.Context) {
	h.store.Reset()
	RespondOK(c, gin.H{"active": false})
}

type valueRequest struct {
	Value string `json:"value"`
}

// EditCost handles PUT /api/v1/session/items/:index/cost
// @Summary Edit a unit cost
// @Description Set the edited unit cost of one row from raw user input
// @Tags session
// @Accept json
// @Produce json
// @Param index path int true "Row index"
// @Param body body valueRequest true "Raw cost input"
// @Success 200 {object} APIResponse{data=session.RowUpdate}
// @Failure 404 {object} APIResponse "No document or index out of range"
// @Router /session/items/{index}/cost [put]
func (h *SessionHandler) EditCost(c *gin.Context) {
	index, ok := itemIndex(c)
	if !ok {
		return
	}
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON with a 'value' field")
		return
	}
	up, err := h.store.EditCost(index, req.Value)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, up)
}

// EditUnit handles PUT /api/v1/session/items/:index/unit
// @Summary Edit a row unit
// @Tags session
// @Accept json
// @Produce json
// @Param index path int true "Row index"
// @Param body body valueRequest true "Unit input"
// @Success 200 {object} APIResponse{data=session.RowUpdate}
// @Router /session/items/{index}/unit [put]
func (h *SessionHandler) EditUnit(c *gin.Context) {
	index, ok := itemIndex(c)
	if !ok {
		return
	}
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON with a 'value' field")
		return
	}
	up, err := h.store.EditUnit(index, req.Value)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, up)
}

// NormalizeCost handles POST /api/v1/session/items/:index/cost/normalize
// @Summary Normalize a cost input
// @Description Reformat the row's cost input to canonical two-decimal form
// @Tags session
// @Produce json
// @Param index path int true "Row index"
// @Success 200 {object} APIResponse{data=session.RowUpdate}
// @Router /session/items/{index}/cost/normalize [post]
func (h *SessionHandler) NormalizeCost(c *gin.Context) {
	index, ok := itemIndex(c)
	if !ok {
		return
	}
	up, err := h.store.NormalizeCostInput(index)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, up)
}

type selectRequest struct {
	Selected bool `json:"selected"`
}

// SelectItem handles PUT /api/v1/session/items/:index/selected
// @Summary Select or deselect a row
// @Tags session
// @Accept json
// @Produce json
// @Param index path int true "Row index"
// @Param body body selectRequest true "Selection flag"
// @Success 200 {object} APIResponse
// @Router /session/items/{index}/selected [put]
func (h *SessionHandler) SelectItem(c *gin.Context) {
	index, ok := itemIndex(c)
	if !ok {
		return
	}
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON with a 'selected' field")
		return
	}
	state, err := h.store.Select(index, req.Selected)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"selection": state})
}

// SelectAll handles PUT /api/v1/session/selection
// @Summary Select or deselect every row
// @Tags session
// @Accept json
// @Produce json
// @Param body body selectRequest true "Selection flag"
// @Success 200 {object} APIResponse
// @Router /session/selection [put]
func (h *SessionHandler) SelectAll(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON with a 'selected' field")
		return
	}
	state, err := h.store.SelectAll(req.Selected)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"selection": state})
}

type bulkUnitRequest struct {
	Unit  string `json:"unit"`
	Scope string `json:"scope"`
}

// BulkUnit handles POST /api/v1/session/unit
// @Summary Apply a unit to many rows
// @Description Set the commercial unit on all rows or on the selected rows
// @Tags session
// @Accept json
// @Produce json
// @Param body body bulkUnitRequest true "Unit and scope ('all' or 'selected')"
// @Success 200 {object} APIResponse{data=domain.TableView}
// @Failure 400 {object} APIResponse "Empty unit, bad scope or empty selection"
// @Router /session/unit [post]
func (h *SessionHandler) BulkUnit(c *gin.Context) {
	var req bulkUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON with 'unit' and 'scope' fields")
		return
	}
	view, err := h.store.BulkApplyUnit(req.Unit, domain.BulkScope(req.Scope))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, view)
}

// EditKey handles PUT /api/v1/session/key
// @Summary Edit the access key
// @Description Update the 44-digit access key; non-digits are dropped
// @Tags session
// @Accept json
// @Produce json
// @Param body body valueRequest true "Access key input"
// @Success 200 {object} APIResponse
// @Router /session/key [put]
func (h *SessionHandler) EditKey(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON with a 'value' field")
		return
	}
	key, err := h.store.EditAccessKey(req.Value)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"access_key": key})
}

// EditRecipientTaxID handles PUT /api/v1/session/recipient-taxid
// @Summary Edit the recipient CNPJ
// @Tags session
// @Accept json
// @Produce json
// @Param body body valueRequest true "Tax id input"
// @Success 200 {object} APIResponse{data=domain.HeaderView}
// @Router /session/recipient-taxid [put]
func (h *SessionHandler) EditRecipientTaxID(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON with a 'value' field")
		return
	}
	hv, err := h.store.EditRecipientTaxID(req.Value)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, hv)
}

// Export handles POST /api/v1/session/export
// @Summary Export the altered XML copy
// @Description Build and download the altered document; requires confirm=true
// @Tags session
// @Produce application/xml
// @Param confirm query bool true "Explicit confirmation"
// @Success 200 {file} binary "Altered XML document"
// @Failure 400 {object} APIResponse "Confirmation missing"
// @Failure 404 {object} APIResponse "No document loaded"
// @Router /session/export [post]
func (h *SessionHandler) Export(c *gin.Context) {
	confirm, _ := strconv.ParseBool(c.Query("confirm"))
	out, err := h.store.Export(confirm)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

// ExportXLSX handles GET /api/v1/session/export.xlsx
// @Summary Export the cost table as a spreadsheet
// @Tags session
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary "xlsx workbook"
// @Failure 404 {object} APIResponse "No document loaded"
// @Router /session/export.xlsx [get]
func (h *SessionHandler) ExportXLSX(c *gin.Context) {
	view, err := h.store.Snapshot()
	if err != nil {
		HandleError(c, err)
		return
	}
	out, err := xlsxexport.Write(view)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

// ExportCSV handles GET /api/v1/session/export.csv
// @Summary Export the cost table as CSV
// @Tags session
// @Produce text/csv
// @Success 200 {file} binary "CSV with UTF-8 BOM"
// @Failure 404 {object} APIResponse "No document loaded"
// @Router /session/export.csv [get]
func (h *SessionHandler) ExportCSV(c *gin.Context) {
	view, err := h.store.Snapshot()
	if err != nil {
		HandleError(c, err)
		return
	}

	var buf bytes.Buffer
	buf.Write(csvexport.BOM)
	w := csvexport.NewWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		HandleError(c, err)
		return
	}
	if err := w.WriteRows(view); err != nil {
		HandleError(c, err)
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		HandleError(c, err)
		return
	}

	filename := csvexport.BuildFilename(view.Header.AccessKey)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// itemIndex parses the :index path parameter. On failure it writes the
// error response and returns ok=false.
func itemIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_INDEX", "index must be a non-negative integer")
		return 0, false
	}
	return index, true
}
