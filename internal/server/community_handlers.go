// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"unionhall/internal/models"
	"unionhall/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListCommunities handles GET /api/communities
// @Summary List communities
// @Description Returns a cursor page of communities, newest first
// @Tags communities
// @Produce json
// @Param limit query int false "Page size"
// @Param cursor query string false "Opaque page cursor"
// @Success 200 {object} object{items=[]models.Community,next_cursor=string}
// @Router /communities [get]
func (s *Server) ListCommunities(c *fiber.Ctx) error {
	page := parseCursorQuery(c)

	result, err := s.communityService.List(c.Context(), page.Limit, page.Cursor)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(result)
}

// GetCommunity handles GET /api/communities/:id
// @Summary Get a community
// @Tags communities
// @Produce json
// @Param id path string true "Community ID"
// @Success 200 {object} service.CommunityDTO
// @Failure 404 {object} models.ErrorResponse
// @Router /communities/{id} [get]
func (s *Server) GetCommunity(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}

	dto, err := s.communityService.Get(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(dto)
}

// GetCommunityBySlug handles GET /api/communities/slug/:slug
// @Summary Get a community by slug
// @Tags communities
// @Produce json
// @Param slug path string true "Community slug"
// @Success 200 {object} service.CommunityDTO
// @Failure 404 {object} models.ErrorResponse
// @Router /communities/slug/{slug} [get]
func (s *Server) GetCommunityBySlug(c *fiber.Ctx) error {
	dto, err := s.communityService.GetBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(dto)
}

// CreateCommunity handles POST /api/communities
// @Summary Create a community
// @Description Superuser only. Archetype engine keys are pre-installed.
// @Tags communities
// @Accept json
// @Produce json
// @Param request body object{name=string,slug=string,description=string,is_private=bool,archetypes=[]string} true "Community"
// @Success 201 {object} service.CommunityDTO
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /communities [post]
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	var req struct {
		Name        string   `json:"name"`
		Slug        string   `json:"slug"`
		Description string   `json:"description"`
		IsPrivate   bool     `json:"is_private"`
		Archetypes  []string `json:"archetypes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	dto, err := s.communityService.Create(c.Context(), service.CreateCommunityInput{
		CreatorID:   currentUserID(c),
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
		Archetypes:  req.Archetypes,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto)
}

// UpdateCommunity handles PUT /api/communities/:id
// @Summary Update a community
// @Description Superuser only. Only provided fields change; the slug is immutable.
// @Tags communities
// @Accept json
// @Produce json
// @Param id path string true "Community ID"
// @Param request body object{name=string,description=string,is_private=bool} true "Fields to update"
// @Success 200 {object} service.CommunityDTO
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /communities/{id} [put]
func (s *Server) UpdateCommunity(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsPrivate   *bool   `json:"is_private"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	dto, err := s.communityService.Update(c.Context(), service.UpdateCommunityInput{
		ActorID:     currentUserID(c),
		CommunityID: id,
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishRoomEvent(c.Context(), id, EventCommunityUpdated, fiber.Map{
		"community_id": id,
	})

	return c.JSON(dto)
}

// DeleteCommunity handles DELETE /api/communities/:id
// @Summary Delete a community
// @Description Superuser only
// @Tags communities
// @Produce json
// @Param id path string true "Community ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /communities/{id} [delete]
func (s *Server) DeleteCommunity(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.communityService.Delete(c.Context(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Community deleted"})
}
