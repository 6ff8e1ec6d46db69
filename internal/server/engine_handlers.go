// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"unionhall/internal/models"
	"unionhall/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetEngineCatalog handles GET /api/engines
// @Summary List the engine catalog
// @Description Feature flags on each engine are evaluated for the caller
// @Tags engines
// @Produce json
// @Success 200 {array} service.EngineDTO
// @Router /engines [get]
func (s *Server) GetEngineCatalog(c *fiber.Ctx) error {
	catalog, err := s.engineService.Catalog(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(catalog)
}

// GetMyEngines handles GET /api/engines/mine
// @Summary List own engine installations
// @Tags engines
// @Produce json
// @Success 200 {array} service.UserEngineDTO
// @Router /engines/mine [get]
func (s *Server) GetMyEngines(c *fiber.Ctx) error {
	mine, err := s.engineService.Mine(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(mine)
}

// SetMyEngine handles PUT /api/engines/mine/:key
// @Summary Set own engine installation state
// @Tags engines
// @Accept json
// @Produce json
// @Param key path string true "Engine key"
// @Param request body object{is_active=bool,is_pinned=bool} true "Installation state"
// @Success 200 {object} service.UserEngineDTO
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /engines/mine/{key} [put]
func (s *Server) SetMyEngine(c *fiber.Ctx) error {
	var req struct {
		IsActive bool `json:"is_active"`
		IsPinned bool `json:"is_pinned"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	dto, err := s.engineService.SetMine(c.Context(), service.SetUserEngineInput{
		UserID:    currentUserID(c),
		EngineKey: c.Params("key"),
		IsActive:  req.IsActive,
		IsPinned:  req.IsPinned,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(dto)
}

// GetInstalledEngines handles GET /api/communities/:id/engines
// @Summary List a community's active engines
// @Tags engines
// @Produce json
// @Param id path string true "Community ID"
// @Success 200 {array} models.Engine
// @Router /communities/{id}/engines [get]
func (s *Server) GetInstalledEngines(c *fiber.Ctx) error {
	communityID, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}

	engines, err := s.engineService.Installed(c.Context(), communityID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(engines)
}

// InstallEngine handles POST /api/communities/:id/engines/:key
// @Summary Install an engine into a community
// @Description Community admin only. Runs the engine module's install hook.
// @Tags engines
// @Produce json
// @Param id path string true "Community ID"
// @Param key path string true "Engine key"
// @Success 201 {object} models.Engine
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /communities/{id}/engines/{key} [post]
func (s *Server) InstallEngine(c *fiber.Ctx) error {
	communityID, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}

	eng, err := s.engineService.Install(
		c.Context(), currentUserID(c), communityID, c.Params("key"))
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishRoomEvent(c.Context(), communityID, EventEngineInstalled, fiber.Map{
		"community_id": communityID,
		"engine_key":   eng.Key,
	})

	return c.Status(fiber.StatusCreated).JSON(eng)
}

// DeactivateEngine handles DELETE /api/communities/:id/engines/:key
// @Summary Deactivate a community engine
// @Description Community admin only. Engine content survives and reappears on reinstall.
// @Tags engines
// @Produce json
// @Param id path string true "Community ID"
// @Param key path string true "Engine key"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /communities/{id}/engines/{key} [delete]
func (s *Server) DeactivateEngine(c *fiber.Ctx) error {
	communityID, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}

	key := c.Params("key")
	if err := s.engineService.Deactivate(
		c.Context(), currentUserID(c), communityID, key); err != nil {
		return respondServiceError(c, err)
	}

	s.publishRoomEvent(c.Context(), communityID, EventEngineDeactivated, fiber.Map{
		"community_id": communityID,
		"engine_key":   key,
	})

	return c.JSON(fiber.Map{"message": "Engine deactivated"})
}
