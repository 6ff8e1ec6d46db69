package service

import (
	"context"
	"strings"
	"testing"

	"unionhall/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createPost(t *testing.T, author *models.User, communityID uuid.UUID) *models.Post {
	t.Helper()
	post, err := e.feedSvc.CreatePost(context.Background(), CreatePostInput{
		AuthorID:    author.ID,
		CommunityID: communityID,
		Title:       gofakeit.Sentence(4),
		Content:     gofakeit.Paragraph(1, 2, 8, " "),
	})
	require.NoError(t, err)
	return post
}

func TestFeedService_CreatePostRequiresActiveMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, true)
	community := env.createCommunity(t, owner, false)
	stranger := env.createUser(t, false)

	_, err := env.feedSvc.CreatePost(ctx, CreatePostInput{
		AuthorID:    stranger.ID,
		CommunityID: community.ID,
		Content:     "hello",
	})
	assertAppErrorCode(t, err, "FORBIDDEN")

	_, err = env.membershipSvc.Join(ctx, stranger.ID, community.ID)
	require.NoError(t, err)

	post, err := env.feedSvc.CreatePost(ctx, CreatePostInput{
		AuthorID:    stranger.ID,
		CommunityID: community.ID,
		Content:     "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, community.ID, post.CommunityID)
}

func TestFeedService_CreatePostValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, true)
	community := env.createCommunity(t, owner, false)

	_, err := env.feedSvc.CreatePost(ctx, CreatePostInput{
		AuthorID:    owner.ID,
		CommunityID: community.ID,
		Content:     "   ",
	})
	assertAppErrorCode(t, err, "VALIDATION_ERROR")

	_, err = env.feedSvc.CreatePost(ctx, CreatePostInput{
		AuthorID:    owner.ID,
		CommunityID: community.ID,
		Title:       strings.Repeat("x", maxPostTitleLength+1),
		Content:     "body",
	})
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

func TestFeedService_GetPostBumpsViewCountAndSetsLiked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, true)
	community := env.createCommunity(t, owner, false)
	post := env.createPost(t, owner, community.ID)

	dto, err := env.feedSvc.GetPost(ctx, owner.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, dto.ViewCount)
	assert.False(t, dto.Liked)

	_, err = env.feedSvc.ToggleLike(ctx, owner.ID, post.ID)
	require.NoError(t, err)

	dto, err = env.feedSvc.GetPost(ctx, owner.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, dto.ViewCount)
	assert.True(t, dto.Liked)
}

func TestFeedService_ToggleLikeIsSymmetric(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, true)
	community := env.createCommunity(t, owner, false)
	post := env.createPost(t, owner, community.ID)

	res, err := env.feedSvc.ToggleLike(ctx, owner.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.LikeCount)

	res, err = env.feedSvc.ToggleLike(ctx, owner.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, 0, res.LikeCount)

	dto, err := env.feedSvc.GetPost(ctx, owner.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, dto.LikeCount)
}

func TestFeedService_ToggleLikeNonMemberForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, true)
	community := env.createCommunity(t, owner, false)
	post := env.createPost(t, owner, community.ID)
	stranger := env.createUser(t, false)

	_, err := env.feedSvc.ToggleLike(ctx, stranger.ID, post.ID)
	assertAppErrorCode(t, err, "FORBIDDEN")
}

func TestFeedService_CommentLifecycleAndCounter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, true)
	community := env.createCommunity(t, owner, false)
	post := env.createPost(t, owner, community.ID)

	member := env.createUser(t, false)
	_, err := env.membershipSvc.Join(ctx, member.ID, community.ID)
	require.NoError(t, err)

	comment, err := env.feedSvc.CreateComment(ctx, CreateCommentInput{
		AuthorID: member.ID,
		PostID:   post.ID,
		Content:  "first",
	})
	require.NoError(t, err)

	dto, err := env.feedSvc.GetPost(ctx, owner.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, dto.CommentCount)

	// A third member cannot delete someone else's comment.
	other := env.createUser(t, false)
	_, err = env.membershipSvc.Join(ctx, other.ID, community.ID)
	require.NoError(t, err)
	err = env.feedSvc.DeleteComment(ctx, other.ID, comment.ID)
	assertAppErrorCode(t, err, "FORBIDDEN")

	// The author can.
	require.NoError(t, env.feedSvc.DeleteComment(ctx, member.ID, comment.ID))

	dto, err = env.feedSvc.GetPost(ctx, owner.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, dto.CommentCount)
}

func TestFeedService_CommunityAdminCanDeleteComment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, true)
	community := env.createCommunity(t, owner, false)
	post := env.createPost(t, owner, community.ID)

	member := env.createUser(t, false)
	_, err := env.membershipSvc.Join(ctx, member.ID, community.ID)
	require.NoError(t, err)
	comment, err := env.feedSvc.CreateComment(ctx, CreateCommentInput{
		AuthorID: member.ID,
		PostID:   post.ID,
		Content:  "delete me",
	})
	require.NoError(t, err)

	require.NoError(t, env.feedSvc.DeleteComment(ctx, owner.ID, comment.ID))
}

func TestFeedService_CommentsPageNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, true)
	community := env.createCommunity(t, owner, false)
	post := env.createPost(t, owner, community.ID)

	for i := 0; i < 5; i++ {
		_, err := env.feedSvc.CreateComment(ctx, CreateCommentInput{
			AuthorID: owner.ID,
			PostID:   post.ID,
			Content:  gofakeit.Sentence(3),
		})
		require.NoError(t, err)
	}

	seen := map[uuid.UUID]bool{}
	cursor := ""
	pages := 0
	for {
		page, err := env.feedSvc.Comments(ctx, post.ID, 2, cursor)
		require.NoError(t, err)
		for _, c := range page.Items {
			assert.False(t, seen[c.ID], "comment repeated across pages")
			seen[c.ID] = true
		}
		pages++
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}
	assert.Len(t, seen, 5)
	assert.Equal(t, 3, pages)
}

func TestFeedService_FeedPaginationWalk(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, true)
	community := env.createCommunity(t, owner, false)

	for i := 0; i < 7; i++ {
		env.createPost(t, owner, community.ID)
	}

	seen := map[uuid.UUID]bool{}
	cursor := ""
	for {
		page, err := env.feedSvc.Feed(ctx, community.ID, 3, cursor)
		require.NoError(t, err)
		require.LessOrEqual(t, len(page.Items), 3)
		for _, p := range page.Items {
			assert.False(t, seen[p.ID])
			seen[p.ID] = true
		}
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}
	assert.Len(t, seen, 7)
}

func TestFeedService_MalformedCursorLenientAndStrict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, true)
	community := env.createCommunity(t, owner, false)
	env.createPost(t, owner, community.ID)

	// Lenient mode treats garbage as "first page".
	page, err := env.feedSvc.Feed(ctx, community.ID, 10, "!!not-a-cursor!!")
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	strict := NewFeedService(env.postRepo, env.membershipSvc, env.feedSvc.isSuperuser, true)
	_, err = strict.Feed(ctx, community.ID, 10, "!!not-a-cursor!!")
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

func TestFeedService_DeletePostAuthority(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.createUser(t, true)
	community := env.createCommunity(t, owner, false)

	member := env.createUser(t, false)
	_, err := env.membershipSvc.Join(ctx, member.ID, community.ID)
	require.NoError(t, err)
	post := env.createPost(t, member, community.ID)

	other := env.createUser(t, false)
	_, err = env.membershipSvc.Join(ctx, other.ID, community.ID)
	require.NoError(t, err)
	err = env.feedSvc.DeletePost(ctx, other.ID, post.ID)
	assertAppErrorCode(t, err, "FORBIDDEN")

	require.NoError(t, env.feedSvc.DeletePost(ctx, member.ID, post.ID))
	_, err = env.feedSvc.GetPost(ctx, member.ID, post.ID)
	assertAppErrorCode(t, err, "NOT_FOUND")

	// Community admins can remove other members' posts.
	post2 := env.createPost(t, member, community.ID)
	require.NoError(t, env.feedSvc.DeletePost(ctx, owner.ID, post2.ID))
}
