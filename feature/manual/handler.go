package manual

import (
	"errors"
	"strings"

	"medicamentos-etl/core/logger"
	"medicamentos-etl/core/server"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for manual loads.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the manual loader routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/manual")
	group.Get("/", h.HandleList)
	group.Post("/:file", h.HandleLoad)
}

// HandleList lists the files available for loading.
// @Summary List Manual Files
// @Tags manual
// @Produce json
// @Success 200 {array} string "File names"
// @Router /manual [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	files, err := h.service.Files()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if files == nil {
		files = []string{}
	}
	return c.JSON(files)
}

// HandleLoad publishes a manual file to a table and alias.
// @Summary Load Manual File
// @Description Publish a reference file from the manual directory. The table defaults to the file's base name.
// @Tags manual
// @Produce json
// @Param file path string true "File name inside the manual directory"
// @Param table query string false "Destination table and alias"
// @Param key query string false "Comma separated primary-key columns"
// @Success 200 {object} Result "Loaded"
// @Success 207 {object} Result "Loaded into some targets"
// @Failure 400 {object} map[string]string "Invalid name"
// @Failure 404 {object} map[string]string "File not found"
// @Failure 422 {object} map[string]string "Schema error"
// @Router /manual/{file} [post]
func (h *Handler) HandleLoad(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	req := Request{
		File:     c.Params("file"),
		Table:    c.Query("table"),
		Encoding: c.Query("encoding"),
	}
	if key := c.Query("key"); key != "" {
		for _, k := range strings.Split(key, ",") {
			if k = strings.TrimSpace(k); k != "" {
				req.Key = append(req.Key, k)
			}
		}
	}

	result, err := h.service.Load(c.Context(), req)
	if err != nil {
		l.Error("Manual load failed", zap.String("file", req.File), zap.Error(err))
		status := server.StatusFor(err)
		switch {
		case errors.Is(err, ErrInvalidName):
			status = fiber.StatusBadRequest
		case errors.Is(err, ErrFileNotFound):
			status = fiber.StatusNotFound
		}
		body := fiber.Map{"error": err.Error()}
		if result != nil {
			body["result"] = result
		}
		return c.Status(status).JSON(body)
	}
	return c.JSON(result)
}
