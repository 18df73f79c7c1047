package handler

import (
	"github.com/gofiber/fiber/v2"

	"doctrack/internal/http/middleware"
	"doctrack/internal/service"
)

// AnalyzeDocument godoc
// @Summary AI analysis of a document or a batch of renewal suggestions
// @Tags ai
// @Accept json
// @Produce json
// @Param request body service.AnalyzeInput true "Analysis request"
// @Success 200 {object} service.AnalysisResult
// @Failure 402 {object} errorPayload
// @Failure 429 {object} errorPayload
// @Router /ai/analyze [post]
func AnalyzeDocument(svc service.AdvisoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.AnalyzeInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		res, err := svc.Analyze(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return writeServiceError(c, err, documentNotFound)
		}
		return c.JSON(res)
	}
}

// ScanDocument godoc
// @Summary Extract document fields from a photo
// @Tags ai
// @Accept json
// @Produce json
// @Param request body service.ScanInput true "Base64 image"
// @Success 200 {object} service.ScanResult
// @Failure 413 {object} errorPayload
// @Router /ai/scan [post]
func ScanDocument(svc service.AdvisoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ScanInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		res, err := svc.Scan(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return writeServiceError(c, err, documentNotFound)
		}
		return c.JSON(res)
	}
}

// AskAdvisor godoc
// @Summary Ask which documents a renewal needs
// @Tags ai
// @Accept json
// @Produce json
// @Param request body service.AdvisorInput true "Question"
// @Success 200 {object} service.AdvisorResult
// @Router /ai/advisor [post]
func AskAdvisor(svc service.AdvisoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.AdvisorInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		res, err := svc.Advise(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return writeServiceError(c, err, documentNotFound)
		}
		return c.JSON(res)
	}
}
