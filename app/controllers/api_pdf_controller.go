package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
	"github.com/parsemint/parsemint/app/repository"
	"github.com/parsemint/parsemint/internal/pkg/entitlements"
	"github.com/parsemint/parsemint/internal/pkg/pdfparse"
	"github.com/parsemint/parsemint/internal/pkg/upload"
)

// HandlePdfParse accepts a multipart PDF upload, checks the caller's
// entitlement, and runs the extraction pipeline synchronously.
// Form fields: pdf_file (required), ai_model (optional provider name).
func HandlePdfParse(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	subRepo := repository.GetGlobalFactory().GetUserSubscriptionRepository()
	now := time.Now()

	allowed, err := entitlements.CanUseMeteredCapability(user, subRepo, now)
	if err != nil {
		fiberlog.Errorf("[PdfParse] entitlement check failed for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "entitlement check failed")
	}
	if !allowed {
		return jsonError(c, fiber.StatusForbidden, "an active subscription is required")
	}

	maxBytes := int64(entitlements.DefaultPdfSizeLimitBytes)
	if !user.IsAdmin() {
		us, err := subRepo.GetActiveForUser(user.ID, now)
		if err != nil {
			fiberlog.Errorf("[PdfParse] entitlement load failed for user %d: %v", user.ID, err)
			return jsonError(c, fiber.StatusInternalServerError, "entitlement check failed")
		}
		if !entitlements.HasCallsRemaining(us) {
			return jsonError(c, fiber.StatusForbidden, "monthly API call limit reached")
		}
		maxBytes = entitlements.MaxPdfBytes(us)
	}

	fileHeader, err := c.FormFile("pdf_file")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "pdf_file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "could not read upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "could not read upload")
	}

	if err := upload.ValidatePDF(fileHeader.Filename, data, int64(len(data)), maxBytes); err != nil {
		if errors.Is(err, upload.ErrFileTooLong) {
			return jsonError(c, fiber.StatusBadRequest, "file exceeds your plan's size limit")
		}
		return jsonError(c, fiber.StatusBadRequest, "only valid PDF files are accepted")
	}

	svc, err := getParseService()
	if err != nil {
		fiberlog.Errorf("[PdfParse] pipeline unavailable: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "parse pipeline unavailable")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	record, err := svc.Parse(ctx, user, pdfparse.Request{
		Filename:  fileHeader.Filename,
		Data:      data,
		ModelName: c.FormValue("ai_model"),
	})
	if err != nil {
		if errors.Is(err, pdfparse.ErrUnknownModel) {
			return jsonError(c, fiber.StatusBadRequest, "unknown AI model")
		}
		if errors.Is(err, pdfparse.ErrNoActiveModel) {
			return jsonError(c, fiber.StatusInternalServerError, "no AI model is currently configured")
		}
		fiberlog.Errorf("[PdfParse] request rejected for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to process document")
	}

	if record.Status == models.ParseStatusFailed {
		msg := "failed to process document"
		if record.ErrorMessage != nil {
			msg = *record.ErrorMessage
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": msg,
			"data":    parseRecordResponse(record),
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": parseRecordResponse(record)})
}

// HandlePdfParseStatus returns one parse record scoped to its owner.
func HandlePdfParseStatus(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid id")
	}

	svc, err := getParseService()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "parse pipeline unavailable")
	}

	record, err := svc.Status(id, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "parse not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to load parse")
	}

	return c.JSON(fiber.Map{"success": true, "data": parseRecordResponse(record)})
}

// HandlePdfParseHistory lists the caller's parse records.
func HandlePdfParseHistory(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	svc, err := getParseService()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "parse pipeline unavailable")
	}

	records, total, err := svc.History(user.ID, offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to load history")
	}

	items := make([]fiber.Map, 0, len(records))
	for i := range records {
		items = append(items, parseRecordResponse(&records[i]))
	}
	return c.JSON(fiber.Map{"parses": items, "total": total, "offset": offset, "limit": limit})
}

func parseRecordResponse(record *models.PdfParse) fiber.Map {
	resp := fiber.Map{
		"id":                record.ID,
		"status":            record.Status,
		"original_filename": record.OriginalFilename,
		"file_size_bytes":   record.FileSizeBytes,
		"created_at":        record.CreatedAt,
		"processed_at":      record.ProcessedAt,
	}
	if record.AiModel != nil {
		resp["ai_model"] = record.AiModel.Name
	}
	if record.ParseResultJSON != nil {
		resp["result"] = json.RawMessage(*record.ParseResultJSON)
	}
	if record.ErrorMessage != nil {
		resp["error"] = *record.ErrorMessage
	}
	return resp
}
