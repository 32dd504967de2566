package integrity

import (
	"errors"

	"medicamentos-etl/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/storage", h.HandleStructureCheck)
	group.Get("/:name", h.HandleDatasetCheck)

	app.Get("/publish/sessions", h.HandleSessions)
}

// HandleDatasetCheck compares a published table with its search alias.
// @Summary Check Published Dataset
// @Description Compares the production table with the documents behind the alias of the same name and lists orphaned staging artifacts.
// @Tags integrity
// @Produce json
// @Param name path string true "Dataset name (table and alias)"
// @Param fresh query boolean false "Bypass the report cache"
// @Success 200 {object} Report "Integrity Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/{name} [get]
func (h *Handler) HandleDatasetCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	name := c.Params("name")

	report, err := h.service.Check(c.Context(), name, c.QueryBool("fresh"))
	if err != nil {
		l.Error("Integrity check failed", zap.String("name", name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !report.Consistent {
		l.Warn("Dataset is inconsistent", zap.String("name", name), zap.Strings("problems", report.Problems))
	}
	return c.JSON(report)
}

// HandleStructureCheck checks and optionally fixes the bucket layout.
// @Summary Check Storage Structure
// @Description Checks that the bucket and its raw and datasets prefixes exist. Optionally creates them.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Create the bucket and missing prefixes"
// @Success 200 {object} checks.StructureReport "Structure Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Failure 503 {object} map[string]string "Storage disabled"
// @Router /integrity/storage [get]
func (h *Handler) HandleStructureCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckStructure(c.Context(), c.QueryBool("fix"))
	if errors.Is(err, ErrNoStorage) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Structure check failed", zap.Error(err))
		body := fiber.Map{"error": err.Error()}
		if report != nil {
			body["report"] = report
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}

	if len(report.Fixed) > 0 {
		l.Info("Fixed bucket structure", zap.Strings("fixed", report.Fixed))
	}
	if !report.OK() {
		l.Warn("Bucket structure incomplete", zap.Bool("bucket_exists", report.BucketExists), zap.Strings("missing", report.Missing))
	}
	return c.JSON(report)
}

// HandleSessions lists recent publish sessions.
// @Summary List Publish Sessions
// @Description Recent per-target publish sessions, newest first.
// @Tags publish
// @Produce json
// @Success 200 {array} publish.Session "Sessions"
// @Router /publish/sessions [get]
func (h *Handler) HandleSessions(c *fiber.Ctx) error {
	return c.JSON(h.service.Sessions())
}
