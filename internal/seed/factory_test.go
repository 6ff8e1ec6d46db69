package seed

import (
	"testing"

	"unionhall/internal/models"
)

func TestFactoryCommunityMemberCount(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	f := NewFactory(db, SeedOptions{SkipBcrypt: true})

	owner, err := f.CreateUser()
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	community, err := f.CreateCommunity(owner)
	if err != nil {
		t.Fatalf("create community: %v", err)
	}

	member, err := f.CreateUser()
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if _, err := f.CreateMembership(member, community, models.RoleMember, models.StatusActive); err != nil {
		t.Fatalf("create membership: %v", err)
	}
	applicant, err := f.CreateUser()
	if err != nil {
		t.Fatalf("create applicant: %v", err)
	}
	if _, err := f.CreateMembership(applicant, community, models.RoleMember, models.StatusPending); err != nil {
		t.Fatalf("create pending membership: %v", err)
	}

	var fresh models.Community
	if err := db.First(&fresh, "id = ?", community.ID).Error; err != nil {
		t.Fatalf("reload community: %v", err)
	}
	if fresh.MemberCount != 2 {
		t.Fatalf("expected member_count 2 (owner + active member), got %d", fresh.MemberCount)
	}
}

func TestFactoryEngagementCounters(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	f := NewFactory(db, SeedOptions{SkipBcrypt: true, MaxDays: 30})

	author, err := f.CreateUser()
	if err != nil {
		t.Fatalf("create author: %v", err)
	}
	community, err := f.CreateCommunity(author)
	if err != nil {
		t.Fatalf("create community: %v", err)
	}
	post, err := f.CreatePost(author, community)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	fan, err := f.CreateUser()
	if err != nil {
		t.Fatalf("create fan: %v", err)
	}
	if err := f.CreateLike(author, post); err != nil {
		t.Fatalf("create like: %v", err)
	}
	if err := f.CreateLike(fan, post); err != nil {
		t.Fatalf("create like: %v", err)
	}
	if _, err := f.CreateComment(fan, post); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	var fresh models.Post
	if err := db.First(&fresh, "id = ?", post.ID).Error; err != nil {
		t.Fatalf("reload post: %v", err)
	}
	if fresh.LikeCount != 2 || fresh.CommentCount != 1 {
		t.Fatalf("expected like_count 2 and comment_count 1, got %d and %d",
			fresh.LikeCount, fresh.CommentCount)
	}
}
