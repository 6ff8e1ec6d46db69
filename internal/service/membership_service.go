package service

import (
	"context"

	"unionhall/internal/models"
	"unionhall/internal/repository"

	"github.com/google/uuid"
)

// MembershipService owns the join/approve/reject/ban state machine.
type MembershipService struct {
	memberRepo    repository.MembershipRepository
	communityRepo repository.CommunityRepository
	isSuperuser   func(ctx context.Context, userID uuid.UUID) (bool, error)
}

// ProcessAction is what an admin does to a membership.
type ProcessAction string

const (
	ActionApprove ProcessAction = "approve"
	ActionReject  ProcessAction = "reject"
	ActionBan     ProcessAction = "ban"
)

func NewMembershipService(
	memberRepo repository.MembershipRepository,
	communityRepo repository.CommunityRepository,
	isSuperuser func(ctx context.Context, userID uuid.UUID) (bool, error),
) *MembershipService {
	return &MembershipService{
		memberRepo:    memberRepo,
		communityRepo: communityRepo,
		isSuperuser:   isSuperuser,
	}
}

// Join applies the caller to a community. Public communities admit
// immediately; private ones queue a pending request.
func (s *MembershipService) Join(ctx context.Context, userID, communityID uuid.UUID) (*models.Membership, error) {
	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}

	existing, err := s.memberRepo.Find(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == models.StatusBanned {
			return nil, models.NewForbiddenError("You are banned from this community")
		}
		return nil, models.NewConflictError("You are already a member of this community")
	}

	if community.IsPrivate {
		return s.memberRepo.CreatePending(ctx, communityID, userID)
	}
	return s.memberRepo.CreateActive(ctx, communityID, userID)
}

// Process resolves a pending request or bans a member. The actor's authority
// is re-derived from a live membership row on every call; a stale admin who
// was demoted or banned loses it immediately.
func (s *MembershipService) Process(ctx context.Context, actorID, communityID, targetUserID uuid.UUID, action ProcessAction) (*models.Membership, error) {
	if err := s.requireCommunityAdmin(ctx, actorID, communityID); err != nil {
		return nil, err
	}

	switch action {
	case ActionApprove:
		return s.memberRepo.Approve(ctx, communityID, targetUserID)
	case ActionReject:
		return nil, s.memberRepo.Reject(ctx, communityID, targetUserID)
	case ActionBan:
		if actorID == targetUserID {
			return nil, models.NewValidationError("You cannot ban yourself")
		}
		return s.memberRepo.Ban(ctx, communityID, targetUserID)
	default:
		return nil, models.NewValidationError("Unknown action; expected approve, reject, or ban")
	}
}

// ListMembers returns membership rows, optionally filtered by status.
// Admin-or-owner only.
func (s *MembershipService) ListMembers(ctx context.Context, actorID, communityID uuid.UUID, status models.MembershipStatus) ([]models.Membership, error) {
	if err := s.requireCommunityAdmin(ctx, actorID, communityID); err != nil {
		return nil, err
	}
	if status != "" && status != models.StatusPending && status != models.StatusActive && status != models.StatusBanned {
		return nil, models.NewValidationError("Unknown membership status filter")
	}
	return s.memberRepo.ListByCommunity(ctx, communityID, status)
}

// MyMembership returns the caller's own membership row, or nil.
func (s *MembershipService) MyMembership(ctx context.Context, userID, communityID uuid.UUID) (*models.Membership, error) {
	return s.memberRepo.Find(ctx, communityID, userID)
}

// IsActiveMember reports whether the user holds an active membership.
func (s *MembershipService) IsActiveMember(ctx context.Context, userID, communityID uuid.UUID) (bool, error) {
	m, err := s.memberRepo.Find(ctx, communityID, userID)
	if err != nil {
		return false, err
	}
	return m != nil && m.Status == models.StatusActive, nil
}

// IsCommunityAdmin reports whether the user holds an active admin-or-owner
// membership, or is a platform superuser.
func (s *MembershipService) IsCommunityAdmin(ctx context.Context, userID, communityID uuid.UUID) (bool, error) {
	if s.isSuperuser != nil {
		super, err := s.isSuperuser(ctx, userID)
		if err != nil {
			return false, err
		}
		if super {
			return true, nil
		}
	}

	m, err := s.memberRepo.Find(ctx, communityID, userID)
	if err != nil {
		return false, err
	}
	if m == nil || m.Status != models.StatusActive {
		return false, nil
	}
	return m.Role == models.RoleAdmin || m.Role == models.RoleOwner, nil
}

func (s *MembershipService) requireCommunityAdmin(ctx context.Context, actorID, communityID uuid.UUID) error {
	admin, err := s.IsCommunityAdmin(ctx, actorID, communityID)
	if err != nil {
		return err
	}
	if !admin {
		return models.NewForbiddenError("Community admin privileges required")
	}
	return nil
}
