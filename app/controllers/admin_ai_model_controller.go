package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/parsemint/parsemint/app/models"
	"github.com/parsemint/parsemint/app/repository"
)

// HandleAdminListAiModels returns all AI model configurations. Secrets are
// never echoed; only their presence is reported.
func HandleAdminListAiModels(c *fiber.Ctx) error {
	rows, err := repository.GetGlobalFactory().GetAiModelRepository().List()
	if err != nil {
		fiberlog.Errorf("[Admin] ai model list failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to load ai models")
	}

	items := make([]fiber.Map, 0, len(rows))
	for i := range rows {
		items = append(items, aiModelResponse(&rows[i]))
	}
	return c.JSON(fiber.Map{"ai_models": items})
}

// HandleAdminCreateAiModel creates a new AI model configuration.
// Request: JSON { name, model_identifier, description, api_key, endpoint }
func HandleAdminCreateAiModel(c *fiber.Ctx) error {
	var req aiModelRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request")
	}

	m := &models.AiModel{
		Name:            req.Name,
		ModelIdentifier: req.ModelIdentifier,
		Description:     req.Description,
		IsActive:        true,
	}
	if err := m.ApplyConfigUpdate(req.APIKey, req.Endpoint); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid configuration")
	}
	if err := m.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	if err := repository.GetGlobalFactory().GetAiModelRepository().Create(m); err != nil {
		fiberlog.Errorf("[Admin] ai model create failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to create ai model")
	}
	return c.Status(fiber.StatusCreated).JSON(aiModelResponse(m))
}

// HandleAdminUpdateAiModel updates an AI model configuration. A blank
// api_key or endpoint keeps the stored value, so round-tripping an edit form
// without the secret does not clobber it.
func HandleAdminUpdateAiModel(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid id")
	}

	repo := repository.GetGlobalFactory().GetAiModelRepository()
	m, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "ai model not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to load ai model")
	}

	var req aiModelRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request")
	}

	if req.Name != "" {
		m.Name = req.Name
	}
	if req.ModelIdentifier != "" {
		m.ModelIdentifier = req.ModelIdentifier
	}
	if req.Description != "" {
		m.Description = req.Description
	}
	if err := m.ApplyConfigUpdate(req.APIKey, req.Endpoint); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid configuration")
	}
	if err := m.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	if err := repo.Update(m); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to update ai model")
	}
	return c.JSON(aiModelResponse(m))
}

// HandleAdminToggleAiModel flips a configuration's active flag.
func HandleAdminToggleAiModel(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid id")
	}

	repo := repository.GetGlobalFactory().GetAiModelRepository()
	m, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "ai model not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to load ai model")
	}

	m.IsActive = !m.IsActive
	if err := repo.Update(m); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to update ai model")
	}

	fiberlog.Infof("[Admin] ai model %d active=%t", m.ID, m.IsActive)
	return c.JSON(aiModelResponse(m))
}

// HandleAdminDeleteAiModel removes a configuration.
func HandleAdminDeleteAiModel(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid id")
	}

	if err := repository.GetGlobalFactory().GetAiModelRepository().Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "ai model not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to delete ai model")
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

type aiModelRequest struct {
	Name            string `json:"name"`
	ModelIdentifier string `json:"model_identifier"`
	Description     string `json:"description"`
	APIKey          string `json:"api_key"`
	Endpoint        string `json:"endpoint"`
}

func aiModelResponse(m *models.AiModel) fiber.Map {
	return fiber.Map{
		"id":               m.ID,
		"name":             m.Name,
		"model_identifier": m.ModelIdentifier,
		"description":      m.Description,
		"is_active":        m.IsActive,
		"has_api_key":      m.APIKey() != "",
		"endpoint":         m.Endpoint(),
	}
}
