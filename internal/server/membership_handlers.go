// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"unionhall/internal/models"
	"unionhall/internal/service"

	"github.com/gofiber/fiber/v2"
)

// JoinCommunity handles POST /api/communities/:id/join
// @Summary Join a community
// @Description Public communities admit immediately; private ones queue a pending request
// @Tags memberships
// @Produce json
// @Param id path string true "Community ID"
// @Success 201 {object} models.Membership
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /communities/{id}/join [post]
func (s *Server) JoinCommunity(c *fiber.Ctx) error {
	communityID, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}

	membership, err := s.membershipService.Join(c.Context(), currentUserID(c), communityID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(membership)
}

// ProcessMember handles POST /api/communities/:id/members/:userId/process
// @Summary Approve, reject, or ban a member
// @Description Community admin only. Accepted actions: approve, reject, ban.
// @Tags memberships
// @Accept json
// @Produce json
// @Param id path string true "Community ID"
// @Param userId path string true "Target user ID"
// @Param request body object{action=string} true "Action"
// @Success 200 {object} models.Membership
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /communities/{id}/members/{userId}/process [post]
func (s *Server) ProcessMember(c *fiber.Ctx) error {
	communityID, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}
	targetID, err := s.parseUUID(c, "userId")
	if err != nil {
		return nil
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	membership, err := s.membershipService.Process(
		c.Context(), currentUserID(c), communityID, targetID,
		service.ProcessAction(req.Action))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(membership)
}

// ListMembers handles GET /api/communities/:id/members?status=
// @Summary List community members
// @Description Community admin only. Optional status filter: pending, active, banned.
// @Tags memberships
// @Produce json
// @Param id path string true "Community ID"
// @Param status query string false "Membership status filter"
// @Success 200 {array} models.Membership
// @Failure 403 {object} models.ErrorResponse
// @Router /communities/{id}/members [get]
func (s *Server) ListMembers(c *fiber.Ctx) error {
	communityID, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}

	status := models.MembershipStatus(c.Query("status"))
	members, err := s.membershipService.ListMembers(
		c.Context(), currentUserID(c), communityID, status)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(members)
}

// GetMyMembership handles GET /api/communities/:id/membership/me
// @Summary Get own membership in a community
// @Tags memberships
// @Produce json
// @Param id path string true "Community ID"
// @Success 200 {object} models.Membership
// @Failure 404 {object} models.ErrorResponse
// @Router /communities/{id}/membership/me [get]
func (s *Server) GetMyMembership(c *fiber.Ctx) error {
	communityID, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}

	membership, err := s.membershipService.MyMembership(
		c.Context(), currentUserID(c), communityID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(membership)
}
