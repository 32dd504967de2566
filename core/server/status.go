package server

import (
	"errors"

	"medicamentos-etl/core/publish"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps a pipeline or publish error to an HTTP status.
//   - schema and ambiguous join problems are the caller's data: 422
//   - a publish where some targets swapped: 207
//   - retryable staging or swap failures: 503
//   - primary-key violations: 409
func StatusFor(err error) int {
	if err == nil {
		return fiber.StatusOK
	}

	var pubErr *publish.PublishError
	if errors.As(err, &pubErr) && pubErr.Report != nil && pubErr.Report.Outcome == publish.OutcomeDegraded {
		return fiber.StatusMultiStatus
	}

	switch publish.KindOf(err) {
	case publish.KindSchema, publish.KindAmbiguousJoin:
		return fiber.StatusUnprocessableEntity
	case publish.KindStagingLoad, publish.KindSwap:
		if publish.IsUniqueViolation(err) {
			return fiber.StatusConflict
		}
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}
