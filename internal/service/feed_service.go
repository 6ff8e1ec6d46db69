package service

import (
	"context"
	"strings"

	"unionhall/internal/models"
	"unionhall/internal/pagination"
	"unionhall/internal/repository"

	"github.com/google/uuid"
)

const maxPostTitleLength = 300

// FeedService owns post, comment, and like operations. Reads are open to any
// authenticated user; writes require an active membership in the post's
// community.
type FeedService struct {
	postRepo    repository.PostRepository
	memberships *MembershipService
	isSuperuser func(ctx context.Context, userID uuid.UUID) (bool, error)
	// strictCursors rejects malformed pagination cursors instead of treating
	// them as absent.
	strictCursors bool
}

type CreatePostInput struct {
	AuthorID    uuid.UUID
	CommunityID uuid.UUID
	Title       string
	Content     string
}

type CreateCommentInput struct {
	AuthorID uuid.UUID
	PostID   uuid.UUID
	Content  string
}

// PostDTO carries a post plus the caller's own like state, which is not a
// column on the row.
type PostDTO struct {
	models.Post
	Liked bool `json:"liked"`
}

// LikeResult reports the post-toggle state.
type LikeResult struct {
	PostID    uuid.UUID `json:"post_id"`
	Liked     bool      `json:"liked"`
	LikeCount int       `json:"like_count"`
}

func NewFeedService(
	postRepo repository.PostRepository,
	memberships *MembershipService,
	isSuperuser func(ctx context.Context, userID uuid.UUID) (bool, error),
	strictCursors bool,
) *FeedService {
	return &FeedService{
		postRepo:      postRepo,
		memberships:   memberships,
		isSuperuser:   isSuperuser,
		strictCursors: strictCursors,
	}
}

func (s *FeedService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Post content is required")
	}
	if len(in.Title) > maxPostTitleLength {
		return nil, models.NewValidationError("Post title is too long")
	}
	if err := s.requireActiveMember(ctx, in.AuthorID, in.CommunityID); err != nil {
		return nil, err
	}

	post := &models.Post{
		CommunityID: in.CommunityID,
		AuthorID:    in.AuthorID,
		Title:       strings.TrimSpace(in.Title),
		Content:     content,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// GetPost returns one post and records the view. The view bump is fire and
// forget relative to the read; the returned count includes it.
func (s *FeedService) GetPost(ctx context.Context, viewerID, postID uuid.UUID) (*PostDTO, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.postRepo.IncrementViewCount(ctx, postID); err != nil {
		return nil, err
	}
	post.ViewCount++

	liked, err := s.postRepo.IsLiked(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	return &PostDTO{Post: *post, Liked: liked}, nil
}

// DeletePost removes a post and all its children. Allowed for the author, a
// community admin, or a superuser.
func (s *FeedService) DeletePost(ctx context.Context, actorID, postID uuid.UUID) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	allowed := post.AuthorID == actorID
	if !allowed {
		allowed, err = s.memberships.IsCommunityAdmin(ctx, actorID, post.CommunityID)
		if err != nil {
			return err
		}
	}
	if !allowed {
		return models.NewForbiddenError("You cannot delete this post")
	}
	return s.postRepo.Delete(ctx, postID)
}

// Feed returns a cursor page of a community's posts, newest first.
func (s *FeedService) Feed(ctx context.Context, communityID uuid.UUID, limit int, rawCursor string) (pagination.Page[models.Post], error) {
	cursor, err := s.decodeCursor(rawCursor)
	if err != nil {
		return pagination.Page[models.Post]{}, err
	}
	return s.postRepo.FeedPage(ctx, communityID, limit, cursor)
}

// ToggleLike flips the caller's like on a post and returns the new state.
func (s *FeedService) ToggleLike(ctx context.Context, userID, postID uuid.UUID) (*LikeResult, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.requireActiveMember(ctx, userID, post.CommunityID); err != nil {
		return nil, err
	}

	liked, err := s.postRepo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	count := post.LikeCount
	if liked {
		count++
	} else if count > 0 {
		count--
	}
	return &LikeResult{PostID: postID, Liked: liked, LikeCount: count}, nil
}

func (s *FeedService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Comment content is required")
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := s.requireActiveMember(ctx, in.AuthorID, post.CommunityID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   in.PostID,
		AuthorID: in.AuthorID,
		Content:  content,
	}
	if err := s.postRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a comment. Allowed for its author, a community admin,
// or a superuser.
func (s *FeedService) DeleteComment(ctx context.Context, actorID, commentID uuid.UUID) error {
	comment, err := s.postRepo.GetComment(ctx, commentID)
	if err != nil {
		return err
	}

	allowed := comment.AuthorID == actorID
	if !allowed {
		post, perr := s.postRepo.GetByID(ctx, comment.PostID)
		if perr != nil {
			return perr
		}
		allowed, err = s.memberships.IsCommunityAdmin(ctx, actorID, post.CommunityID)
		if err != nil {
			return err
		}
	}
	if !allowed {
		return models.NewForbiddenError("You cannot delete this comment")
	}
	return s.postRepo.DeleteComment(ctx, commentID)
}

// Comments returns a cursor page of a post's comments, newest first.
func (s *FeedService) Comments(ctx context.Context, postID uuid.UUID, limit int, rawCursor string) (pagination.Page[models.Comment], error) {
	cursor, err := s.decodeCursor(rawCursor)
	if err != nil {
		return pagination.Page[models.Comment]{}, err
	}
	return s.postRepo.CommentsPage(ctx, postID, limit, cursor)
}

func (s *FeedService) requireActiveMember(ctx context.Context, userID, communityID uuid.UUID) error {
	if s.isSuperuser != nil {
		super, err := s.isSuperuser(ctx, userID)
		if err != nil {
			return err
		}
		if super {
			return nil
		}
	}
	active, err := s.memberships.IsActiveMember(ctx, userID, communityID)
	if err != nil {
		return err
	}
	if !active {
		return models.NewForbiddenError("Active membership required")
	}
	return nil
}

func (s *FeedService) decodeCursor(raw string) (*pagination.Cursor, error) {
	if raw == "" {
		return nil, nil
	}
	cursor, err := pagination.Decode(raw)
	if err != nil {
		if s.strictCursors {
			return nil, models.NewValidationError("Malformed pagination cursor")
		}
		return nil, nil
	}
	return &cursor, nil
}
