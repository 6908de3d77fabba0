package simulator

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-fee-sync/internal/dto"
	appErrors "github.com/noah-isme/sma-fee-sync/pkg/errors"
	"github.com/noah-isme/sma-fee-sync/pkg/response"
)

// Handler exposes the fee gateway contract over gin.
type Handler struct {
	service  *Service
	auth     *Auth
	validate *validator.Validate
}

// NewHandler constructs the simulator handler.
func NewHandler(service *Service, auth *Auth, validate *validator.Validate) *Handler {
	if validate == nil {
		validate = validator.New()
	}
	return &Handler{service: service, auth: auth, validate: validate}
}

// Register mounts the gateway routes. Everything except login requires a
// bearer token.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/auth/login", h.login)

	protected := r.Group("/", h.auth.Middleware())
	protected.GET("/fees", h.listFees)
	protected.POST("/fees/create", h.createBatch)
	protected.POST("/fees/create-single", h.createSingle)
	protected.POST("/fees/update", h.updateFees)
	protected.POST("/fees/delete", h.deleteFees)
	protected.GET("/students", h.listStudents)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload"))
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) listFees(c *gin.Context) {
	query := FeeQuery{
		SchoolID:     c.Query("school_id"),
		StudentClass: c.Query("class"),
		Month:        c.Query("month"),
	}

	fees, err := h.service.ListFees(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FeesFromModels(fees))
}

func (h *Handler) createBatch(c *gin.Context) {
	var req dto.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload"))
		return
	}

	message, err := h.service.CreateBatch(c.Request.Context(), req.SchoolID, req.Month, req.ForceOverwrite)
	if err != nil {
		var conflict *BatchConflictError
		if errors.As(err, &conflict) {
			c.JSON(http.StatusConflict, dto.BatchConflict{Warning: conflict.Warning})
			return
		}
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CreateBatchResponse{Message: message})
}

func (h *Handler) createSingle(c *gin.Context) {
	var req dto.CreateSingleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload"))
		return
	}

	record, err := h.service.CreateSingle(c.Request.Context(), req.StudentID, req.Month, req.PaidAmount)
	if err != nil {
		var duplicate *DuplicateFeeError
		if errors.As(err, &duplicate) {
			c.JSON(http.StatusConflict, dto.SingleConflict{ExistingFeeID: duplicate.ExistingFeeID})
			return
		}
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FeeFromModel(record))
}

func (h *Handler) updateFees(c *gin.Context) {
	var req dto.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload"))
		return
	}

	updates := make([]FeePaymentUpdate, 0, len(req.Fees))
	for _, entry := range req.Fees {
		update := FeePaymentUpdate{ID: entry.ID, PaidAmount: entry.PaidAmount}
		if entry.DateReceived != nil && *entry.DateReceived != "" {
			ts, err := time.Parse(dto.DateLayout, *entry.DateReceived)
			if err != nil {
				response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date_received format, expected YYYY-MM-DD"))
				return
			}
			update.DateReceived = &ts
		}
		updates = append(updates, update)
	}

	echoed, err := h.service.UpdateFees(c.Request.Context(), updates)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UpdateResponse{Fees: dto.FeesFromModels(echoed)})
}

func (h *Handler) deleteFees(c *gin.Context) {
	var req dto.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete payload"))
		return
	}

	if err := h.service.DeleteFees(c.Request.Context(), req.FeeIDs); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "fees deleted"})
}

func (h *Handler) listStudents(c *gin.Context) {
	students, err := h.service.ListStudents(c.Request.Context(), c.Query("school_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	wire := make([]dto.Student, 0, len(students))
	for _, student := range students {
		wire = append(wire, dto.StudentFromModel(student))
	}
	c.JSON(http.StatusOK, wire)
}
