package handler

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"doctrack/internal/export"
	"doctrack/internal/http/middleware"
	"doctrack/internal/service"
)

const documentNotFound = "document not found"

// paramID reads a UUID path parameter. ok is false when the value is not a UUID.
func paramID(c *fiber.Ctx, name string) (string, bool) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func invalidID(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
}

func invalidBody(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
}

func listQuery(c *fiber.Ctx) service.ListQuery {
	return service.ListQuery{
		Search: c.Query("search"),
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Sort:   c.Query("sort"),
	}
}

// ListDocuments godoc
// @Summary List documents
// @Description Documents owned by the caller or shared through an organization
// @Tags documents
// @Produce json
// @Param search query string false "Case-insensitive name search"
// @Param type query string false "Document type or all"
// @Param status query string false "expired, expiring_soon, valid or all"
// @Param sort query string false "created_at, name, expiry_date or document_type"
// @Success 200 {object} service.DocumentListResult
// @Router /documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.List(c.UserContext(), middleware.UserID(c), listQuery(c))
		if err != nil {
			return writeServiceError(c, err, documentNotFound)
		}
		return c.JSON(res)
	}
}

// CreateDocument godoc
// @Summary Create a document
// @Tags documents
// @Accept json
// @Produce json
// @Param document body service.DocumentInput true "Document"
// @Success 201 {object} model.Document
// @Router /documents [post]
func CreateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.DocumentInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		doc, err := svc.Create(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return writeServiceError(c, err, documentNotFound)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// BulkCreateDocuments godoc
// @Summary Create several documents at once
// @Tags documents
// @Accept json
// @Produce json
// @Param documents body []service.DocumentInput true "Documents"
// @Success 201 {array} model.Document
// @Router /documents/bulk [post]
func BulkCreateDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in []service.DocumentInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		if len(in) == 0 {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "at least one document is required")
		}
		docs, err := svc.BulkCreate(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return writeServiceError(c, err, documentNotFound)
		}
		return c.Status(fiber.StatusCreated).JSON(docs)
	}
}

// ExportDocuments godoc
// @Summary Export documents as CSV or JSON
// @Tags documents
// @Produce text/csv
// @Produce json
// @Param format query string false "csv (default) or json"
// @Success 200 {file} file
// @Router /documents/export [get]
func ExportDocuments(svc service.DocumentService, now func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		format := c.Query("format", "csv")
		if format != "csv" && format != "json" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORMAT", "format must be csv or json")
		}

		res, err := svc.List(c.UserContext(), middleware.UserID(c), listQuery(c))
		if err != nil {
			return writeServiceError(c, err, documentNotFound)
		}

		name := export.Filename(format, now())
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
		if format == "json" {
			c.Set(fiber.HeaderContentType, export.ContentTypeJSON)
			return export.JSON(c, res.Items)
		}
		c.Set(fiber.HeaderContentType, export.ContentTypeCSV)
		return export.CSV(c, res.Items)
	}
}

// DocumentStats godoc
// @Summary Dashboard counts per expiry status
// @Tags documents
// @Produce json
// @Success 200 {object} expiry.Stats
// @Router /documents/stats [get]
func DocumentStats(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeServiceError(c, err, documentNotFound)
		}
		return c.JSON(stats)
	}
}

// GetDocument godoc
// @Summary Get a document
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} model.Document
// @Failure 404 {object} errorPayload
// @Router /documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return invalidID(c)
		}
		doc, err := svc.Get(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeServiceError(c, err, documentNotFound)
		}
		return c.JSON(doc)
	}
}

// UpdateDocument godoc
// @Summary Replace a document's fields
// @Description Moving the expiry date later records a renewal. Reminders are regenerated.
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param document body service.DocumentInput true "Document"
// @Success 200 {object} model.Document
// @Router /documents/{id} [put]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return invalidID(c)
		}
		var in service.DocumentInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		doc, err := svc.Update(c.UserContext(), middleware.UserID(c), id, in)
		if err != nil {
			return writeServiceError(c, err, documentNotFound)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument godoc
// @Summary Delete a document with its image, reminders and history
// @Tags documents
// @Param id path string true "Document ID"
// @Success 204
// @Router /documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return invalidID(c)
		}
		if err := svc.Delete(c.UserContext(), middleware.UserID(c), id); err != nil {
			return writeServiceError(c, err, documentNotFound)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UploadDocumentImage godoc
// @Summary Attach a photo to a document
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Document ID"
// @Param file formData file true "JPEG, PNG, WebP or HEIC image"
// @Success 200 {object} model.Document
// @Router /documents/{id}/image [post]
func UploadDocumentImage(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return invalidID(c)
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get(fiber.HeaderContentType)
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := svc.AttachImage(c.UserContext(), middleware.UserID(c), id, f, ct, fh.Size)
		if err != nil {
			return writeServiceError(c, err, documentNotFound)
		}
		return c.JSON(doc)
	}
}

// DocumentImageURL godoc
// @Summary Presigned download URL of a document's image
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} map[string]string
// @Router /documents/{id}/image [get]
func DocumentImageURL(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return invalidID(c)
		}
		url, err := svc.ImageURL(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeServiceError(c, err, documentNotFound)
		}
		return c.JSON(fiber.Map{
			"url":        url,
			"expires_in": int(service.ImageURLExpiry.Seconds()),
		})
	}
}

// DocumentImageRaw godoc
// @Summary Stream a document's image through the API
// @Tags documents
// @Produce image/jpeg
// @Param id path string true "Document ID"
// @Success 200 {file} file
// @Router /documents/{id}/image/raw [get]
func DocumentImageRaw(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return invalidID(c)
		}
		rc, info, err := svc.OpenImage(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeServiceError(c, err, documentNotFound)
		}
		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		c.Set(fiber.HeaderCacheControl, "private, max-age=300")
		// fasthttp closes rc once the body is written.
		if info.Size > 0 {
			return c.SendStream(rc, int(info.Size))
		}
		return c.SendStream(rc)
	}
}

// DocumentReminders godoc
// @Summary Reminder schedule of a document
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {array} model.Reminder
// @Router /documents/{id}/reminders [get]
func DocumentReminders(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return invalidID(c)
		}
		reminders, err := svc.Reminders(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeServiceError(c, err, documentNotFound)
		}
		return c.JSON(reminders)
	}
}

// DocumentHistory godoc
// @Summary Change history of a document
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {array} model.DocumentHistory
// @Router /documents/{id}/history [get]
func DocumentHistory(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return invalidID(c)
		}
		history, err := svc.History(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeServiceError(c, err, documentNotFound)
		}
		return c.JSON(history)
	}
}
