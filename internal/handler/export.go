package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/exportdesk/api/internal/model"
	"github.com/exportdesk/api/internal/scheduler"
	"github.com/exportdesk/api/pkg/response"
)

type ExportHandler struct {
	scheduler *scheduler.TaskScheduler
	validator *validator.Validate
}

func NewExportHandler(sched *scheduler.TaskScheduler, v *validator.Validate) *ExportHandler {
	return &ExportHandler{
		scheduler: sched,
		validator: v,
	}
}

// Submit handles POST /api/exports
func (h *ExportHandler) Submit(c *fiber.Ctx) error {
	var req model.ExportSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	job := h.scheduler.Submit(&req)

	return response.Accepted(c, model.ExportSubmitResponse{
		JobID:     job.ID,
		Status:    job.Status,
		CreatedAt: job.CreatedAt,
	})
}

// List handles GET /api/exports
func (h *ExportHandler) List(c *fiber.Ctx) error {
	return response.OK(c, model.ExportListResponse{Jobs: h.scheduler.Jobs()})
}

// Stats handles GET /api/exports/stats
func (h *ExportHandler) Stats(c *fiber.Ctx) error {
	return response.OK(c, model.ExportStatsResponse{
		Active:   h.scheduler.ActiveCount(),
		Waiting:  h.scheduler.WaitingCount(),
		Finished: h.scheduler.FinishedCount(),
	})
}

// Get handles GET /api/exports/:jobId
func (h *ExportHandler) Get(c *fiber.Ctx) error {
	job, err := h.scheduler.Get(c.Params("jobId"))
	if err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, job)
}

// Cancel handles POST /api/exports/:jobId/cancel
func (h *ExportHandler) Cancel(c *fiber.Ctx) error {
	job, err := h.scheduler.Cancel(c.Params("jobId"))
	if err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, model.ExportCancelResponse{
		Success: true,
		JobID:   job.ID,
		Status:  job.Status,
	})
}

// CancelAll handles POST /api/exports/cancel-all
func (h *ExportHandler) CancelAll(c *fiber.Ctx) error {
	h.scheduler.CancelAll()
	return response.NoContent(c)
}

// ClearFinished handles DELETE /api/exports/finished
func (h *ExportHandler) ClearFinished(c *fiber.Ctx) error {
	removed := h.scheduler.ClearFinished()
	return response.OK(c, model.ExportClearResponse{Removed: removed})
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
