package repository

import (
	"context"
	"testing"

	"unionhall/internal/models"
	"unionhall/internal/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func postByID(t *testing.T, db *gorm.DB, id interface{}) models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p
}

func TestToggleLike_SymmetricDeltas(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	community := createTestCommunity(t, db, false)
	author := createTestUser(t, db)
	liker := createTestUser(t, db)
	post := createTestPost(t, db, community.ID, author.ID)

	liked, err := repo.ToggleLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, postByID(t, db, post.ID).LikeCount)

	liked, err = repo.ToggleLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, postByID(t, db, post.ID).LikeCount)

	// Toggling again from another user keeps deltas independent.
	other := createTestUser(t, db)
	_, err = repo.ToggleLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	_, err = repo.ToggleLike(ctx, post.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, postByID(t, db, post.ID).LikeCount)
}

func TestToggleLike_DecrementClampsAtZero(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	community := createTestCommunity(t, db, false)
	author := createTestUser(t, db)
	liker := createTestUser(t, db)
	post := createTestPost(t, db, community.ID, author.ID)

	_, err := repo.ToggleLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)

	// Simulate drift: the row says liked but the counter says zero.
	require.NoError(t, db.Model(&models.Post{}).
		Where("id = ?", post.ID).
		UpdateColumn("like_count", 0).Error)

	_, err = repo.ToggleLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, postByID(t, db, post.ID).LikeCount)
}

func TestComments_CounterFollowsRows(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	community := createTestCommunity(t, db, false)
	author := createTestUser(t, db)
	post := createTestPost(t, db, community.ID, author.ID)

	c1 := &models.Comment{PostID: post.ID, AuthorID: author.ID, Content: "first"}
	c2 := &models.Comment{PostID: post.ID, AuthorID: author.ID, Content: "second"}
	require.NoError(t, repo.CreateComment(ctx, c1))
	require.NoError(t, repo.CreateComment(ctx, c2))
	assert.Equal(t, 2, postByID(t, db, post.ID).CommentCount)

	require.NoError(t, repo.DeleteComment(ctx, c1.ID))
	assert.Equal(t, 1, postByID(t, db, post.ID).CommentCount)

	err := repo.DeleteComment(ctx, c1.ID)
	require.Error(t, err, "double delete must fail")
	assert.Equal(t, 1, postByID(t, db, post.ID).CommentCount, "failed delete must not decrement")
}

func TestIncrementViewCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	community := createTestCommunity(t, db, false)
	author := createTestUser(t, db)
	post := createTestPost(t, db, community.ID, author.ID)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.IncrementViewCount(ctx, post.ID))
	}
	assert.Equal(t, 3, postByID(t, db, post.ID).ViewCount)
}

func TestDeletePost_CascadesChildren(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	community := createTestCommunity(t, db, false)
	author := createTestUser(t, db)
	post := createTestPost(t, db, community.ID, author.ID)
	other := createTestPost(t, db, community.ID, author.ID)

	require.NoError(t, repo.CreateComment(ctx, &models.Comment{PostID: post.ID, AuthorID: author.ID, Content: "x"}))
	_, err := repo.ToggleLike(ctx, post.ID, author.ID)
	require.NoError(t, err)
	require.NoError(t, repo.CreateComment(ctx, &models.Comment{PostID: other.ID, AuthorID: author.ID, Content: "y"}))

	require.NoError(t, repo.Delete(ctx, post.ID))

	var comments, likes int64
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&comments).Error)
	require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&likes).Error)
	assert.Zero(t, comments)
	assert.Zero(t, likes)

	// Sibling post untouched.
	assert.Equal(t, 1, postByID(t, db, other.ID).CommentCount)
}

func TestFeedPage_ScopedToCommunity(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db)
	home := createTestCommunity(t, db, false)
	elsewhere := createTestCommunity(t, db, false)
	for i := 0; i < 5; i++ {
		createTestPost(t, db, home.ID, author.ID)
	}
	createTestPost(t, db, elsewhere.ID, author.ID)

	page, err := repo.FeedPage(ctx, home.ID, 10, nil)
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Nil(t, page.NextCursor)
	for _, p := range page.Items {
		assert.Equal(t, home.ID, p.CommunityID)
		require.NotNil(t, p.Author)
	}
}

func TestFeedPage_CursorWalk(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db)
	community := createTestCommunity(t, db, false)
	for i := 0; i < 12; i++ {
		createTestPost(t, db, community.ID, author.ID)
	}

	var cursor *pagination.Cursor
	total := 0
	for {
		page, err := repo.FeedPage(ctx, community.ID, 5, cursor)
		require.NoError(t, err)
		total += len(page.Items)
		if page.NextCursor == nil {
			break
		}
		decoded, err := pagination.Decode(*page.NextCursor)
		require.NoError(t, err)
		cursor = &decoded
	}
	assert.Equal(t, 12, total)
}

func TestRecount_RepairsDriftedCounters(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	community := createTestCommunity(t, db, false)
	author := createTestUser(t, db)
	post := createTestPost(t, db, community.ID, author.ID)

	require.NoError(t, repo.CreateComment(ctx, &models.Comment{PostID: post.ID, AuthorID: author.ID, Content: "a"}))
	_, err := repo.ToggleLike(ctx, post.ID, author.ID)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Post{}).
		Where("id = ?", post.ID).
		UpdateColumns(map[string]interface{}{"like_count": 42, "comment_count": 0}).Error)

	n, err := repo.RecountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	fixed := postByID(t, db, post.ID)
	assert.Equal(t, 1, fixed.LikeCount)
	assert.Equal(t, 1, fixed.CommentCount)
}
