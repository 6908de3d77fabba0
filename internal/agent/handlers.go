// Package agent exposes the sync engine over a local HTTP facade consumed
// by the dashboard UI.
package agent

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-fee-sync/internal/models"
	feesync "github.com/noah-isme/sma-fee-sync/internal/sync"
	appErrors "github.com/noah-isme/sma-fee-sync/pkg/errors"
	"github.com/noah-isme/sma-fee-sync/pkg/response"
)

// Handler maps facade routes onto the engine.
type Handler struct {
	engine *feesync.Engine
}

// NewHandler constructs the facade handler.
func NewHandler(engine *feesync.Engine) *Handler {
	return &Handler{engine: engine}
}

// Register mounts the facade routes.
func (h *Handler) Register(r gin.IRouter) {
	r.PUT("/filter", h.setFilter)
	r.GET("/filter", h.getFilter)
	r.GET("/view", h.getView)
	r.PUT("/sort", h.setSort)

	r.POST("/fees/single", h.createSingle)
	r.POST("/fees/batch", h.createBatch)
	r.POST("/fees/:id", h.updateFee)
	r.POST("/fees/bulk", h.bulkUpdate)
	r.DELETE("/fees", h.deleteFees)

	r.GET("/students", h.listStudents)

	r.POST("/selection/:id", h.toggleSelect)
	r.GET("/selection", h.getSelection)
	r.DELETE("/selection", h.clearSelection)

	r.GET("/notices", h.getNotices)
	r.DELETE("/notices/:id", h.dismissNotice)
	r.GET("/busy", h.getBusy)
}

func (h *Handler) setFilter(c *gin.Context) {
	var patch models.FeeFilterPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter payload"))
		return
	}
	response.JSON(c, http.StatusOK, h.engine.SetFilter(patch))
}

func (h *Handler) getFilter(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.engine.Filter())
}

func (h *Handler) getView(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.engine.View())
}

type sortRequest struct {
	Column models.SortColumn `json:"column"`
}

func (h *Handler) setSort(c *gin.Context) {
	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Column == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "sort column is required"))
		return
	}
	response.JSON(c, http.StatusOK, h.engine.SetSort(req.Column))
}

func (h *Handler) createSingle(c *gin.Context) {
	var input feesync.CreateSingleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	result, err := h.engine.CreateSingle(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusCreated
	if result.Outcome == feesync.OutcomeUpdatedExisting {
		status = http.StatusOK
	}
	response.JSON(c, status, result)
}

func (h *Handler) createBatch(c *gin.Context) {
	var input feesync.BatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	outcome, err := h.engine.CreateMonthlyBatch(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if outcome.RequiresConfirmation {
		status = http.StatusConflict
	}
	response.JSON(c, status, outcome)
}

func (h *Handler) updateFee(c *gin.Context) {
	var input feesync.UpdateFeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	record, err := h.engine.UpdateFee(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

type bulkUpdateRequest struct {
	FeeIDs     []string `json:"feeIds"`
	PaidAmount float64  `json:"paidAmount"`
}

func (h *Handler) bulkUpdate(c *gin.Context) {
	var req bulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	ids := req.FeeIDs
	if len(ids) == 0 {
		ids = h.engine.Selected()
	}
	if err := h.engine.BulkUpdate(c.Request.Context(), ids, req.PaidAmount); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type deleteRequest struct {
	FeeIDs []string `json:"feeIds"`
}

func (h *Handler) deleteFees(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	ids := req.FeeIDs
	if len(ids) == 0 {
		ids = h.engine.Selected()
	}
	if err := h.engine.DeleteMany(c.Request.Context(), ids); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) listStudents(c *gin.Context) {
	schoolID := c.Query("schoolId")
	if schoolID == "" {
		schoolID = h.engine.Filter().SchoolID
	}
	students, err := h.engine.Students(c.Request.Context(), schoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students)
}

func (h *Handler) toggleSelect(c *gin.Context) {
	selected := h.engine.ToggleSelect(c.Param("id"))
	response.JSON(c, http.StatusOK, gin.H{"selected": selected})
}

func (h *Handler) getSelection(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.engine.Selected())
}

func (h *Handler) clearSelection(c *gin.Context) {
	h.engine.ClearSelection()
	response.NoContent(c)
}

func (h *Handler) getNotices(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.engine.Notices())
}

func (h *Handler) dismissNotice(c *gin.Context) {
	h.engine.DismissNotice(c.Param("id"))
	response.NoContent(c)
}

func (h *Handler) getBusy(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.engine.Busy())
}
