package medicamentos

import (
	"errors"

	"medicamentos-etl/core/logger"
	"medicamentos-etl/core/publish"
	"medicamentos-etl/core/server"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the pipeline.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the pipeline routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/pipeline")
	group.Post("/run", h.HandleRun)
	group.Post("/transform", h.HandleTransform)
	group.Post("/publish", h.HandlePublish)
}

// publishRequest is the optional body of POST /pipeline/publish.
type publishRequest struct {
	File string `json:"file"`
}

// HandleRun transforms the raw inputs and publishes the result.
// @Summary Run Pipeline
// @Description Normalize and merge the ANVISA and CMED inputs, then publish the canonical dataset to every target.
// @Tags pipeline
// @Produce json
// @Success 200 {object} RunResult "Published"
// @Success 207 {object} RunResult "Published to some targets"
// @Failure 404 {object} map[string]string "Raw inputs not found"
// @Failure 422 {object} map[string]string "Schema error"
// @Failure 503 {object} map[string]string "Retryable publish failure"
// @Router /pipeline/run [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	result, err := h.service.Run(c.Context())
	if err != nil {
		l.Error("Pipeline run failed", zap.Error(err))
		if result != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"error":  err.Error(),
				"result": result,
			})
		}
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

// HandleTransform runs the normalize and merge stages only.
// @Summary Transform Inputs
// @Description Write the canonical exchange file without publishing it.
// @Tags pipeline
// @Produce json
// @Success 200 {object} TransformResult "Transformed"
// @Failure 404 {object} map[string]string "Raw inputs not found"
// @Failure 422 {object} map[string]string "Schema error"
// @Router /pipeline/transform [post]
func (h *Handler) HandleTransform(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	result, err := h.service.Transform(c.Context())
	if err != nil {
		l.Error("Transform failed", zap.Error(err))
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

// HandlePublish publishes an existing exchange file.
// @Summary Publish Exchange File
// @Description Publish the canonical exchange file, or the file named in the body.
// @Tags pipeline
// @Accept json
// @Produce json
// @Param request body publishRequest false "Exchange file"
// @Success 200 {object} publish.Report "Published"
// @Success 207 {object} publish.Report "Published to some targets"
// @Failure 422 {object} map[string]string "Schema error"
// @Failure 503 {object} map[string]string "Retryable publish failure"
// @Router /pipeline/publish [post]
func (h *Handler) HandlePublish(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req publishRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	report, err := h.service.Publish(c.Context(), req.File)
	if err != nil {
		l.Error("Publish failed", zap.Error(err))
		var pubErr *publish.PublishError
		if errors.As(err, &pubErr) {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"error":  err.Error(),
				"report": pubErr.Report,
			})
		}
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

func statusFor(err error) int {
	if errors.Is(err, ErrInputsNotFound) {
		return fiber.StatusNotFound
	}
	return server.StatusFor(err)
}
