// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"time"

	"unionhall/internal/models"
	"unionhall/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/communities/:id/posts
// @Summary Get a community feed page
// @Description Returns a cursor page of posts, newest first
// @Tags feed
// @Produce json
// @Param id path string true "Community ID"
// @Param limit query int false "Page size"
// @Param cursor query string false "Opaque page cursor"
// @Success 200 {object} object{items=[]models.Post,next_cursor=string}
// @Router /communities/{id}/posts [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	communityID, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}

	page := parseCursorQuery(c)
	result, err := s.feedService.Feed(c.Context(), communityID, page.Limit, page.Cursor)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(result)
}

// CreatePost handles POST /api/communities/:id/posts
// @Summary Create a post
// @Description Active members only
// @Tags feed
// @Accept json
// @Produce json
// @Param id path string true "Community ID"
// @Param request body object{title=string,content=string} true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /communities/{id}/posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	communityID, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.feedService.CreatePost(c.Context(), service.CreatePostInput{
		AuthorID:    currentUserID(c),
		CommunityID: communityID,
		Title:       req.Title,
		Content:     req.Content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	s.publishRoomEvent(c.Context(), communityID, EventPostCreated, fiber.Map{
		"post_id":      post.ID,
		"community_id": communityID,
		"author_id":    post.AuthorID,
		"created_at":   time.Now().UTC().Format(time.RFC3339Nano),
	})

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Description Increments the view counter and reports the caller's like state
// @Tags feed
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} service.PostDTO
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}

	dto, err := s.feedService.GetPost(c.Context(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(dto)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Description Allowed for the author, a community admin, or a superuser
// @Tags feed
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.feedService.DeletePost(c.Context(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// ToggleLike handles POST /api/posts/:id/like
// @Summary Toggle a like on a post
// @Tags feed
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} service.LikeResult
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.feedService.ToggleLike(c.Context(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(result)
}

// GetComments handles GET /api/posts/:id/comments
// @Summary Get a page of post comments
// @Tags feed
// @Produce json
// @Param id path string true "Post ID"
// @Param limit query int false "Page size"
// @Param cursor query string false "Opaque page cursor"
// @Success 200 {object} object{items=[]models.Comment,next_cursor=string}
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}

	page := parseCursorQuery(c)
	result, err := s.feedService.Comments(c.Context(), id, page.Limit, page.Cursor)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(result)
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Description Active members only
// @Tags feed
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, err := s.parseUUID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.feedService.CreateComment(c.Context(), service.CreateCommentInput{
		AuthorID: currentUserID(c),
		PostID:   id,
		Content:  req.Content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/posts/:id/comments/:commentId
// @Summary Delete a comment
// @Description Allowed for the author, a community admin, or a superuser
// @Tags feed
// @Produce json
// @Param id path string true "Post ID"
// @Param commentId path string true "Comment ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseUUID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.feedService.DeleteComment(c.Context(), currentUserID(c), commentID); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Comment deleted"})
}
