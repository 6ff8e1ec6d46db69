package service

import (
	"context"

	"unionhall/internal/cache"
	"unionhall/internal/engine"
	"unionhall/internal/featureflags"
	"unionhall/internal/models"
	"unionhall/internal/repository"
	"unionhall/internal/validation"

	"github.com/google/uuid"
)

// EngineService owns the catalog, community installations, and personal
// installations.
type EngineService struct {
	engineRepo       repository.EngineRepository
	registry         *engine.Registry
	isCommunityAdmin func(ctx context.Context, userID, communityID uuid.UUID) (bool, error)
}

// EngineDTO is a catalog entry with its feature flags evaluated for the
// caller. Flags stay raw on the model; only the DTO carries the verdicts.
type EngineDTO struct {
	models.Engine
	EnabledFeatures map[string]bool `json:"enabled_features"`
}

// UserEngineDTO is a personal installation with its engine inlined.
type UserEngineDTO struct {
	Engine   models.Engine `json:"engine"`
	IsActive bool          `json:"is_active"`
	IsPinned bool          `json:"is_pinned"`
}

type SetUserEngineInput struct {
	UserID    uuid.UUID
	EngineKey string
	IsActive  bool
	IsPinned  bool
}

func NewEngineService(
	engineRepo repository.EngineRepository,
	registry *engine.Registry,
	isCommunityAdmin func(ctx context.Context, userID, communityID uuid.UUID) (bool, error),
) *EngineService {
	return &EngineService{
		engineRepo:       engineRepo,
		registry:         registry,
		isCommunityAdmin: isCommunityAdmin,
	}
}

// Catalog returns every engine with flags evaluated for the caller.
func (s *EngineService) Catalog(ctx context.Context, userID uuid.UUID) ([]EngineDTO, error) {
	engines, err := s.engineRepo.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]EngineDTO, 0, len(engines))
	for _, e := range engines {
		out = append(out, EngineDTO{
			Engine:          e,
			EnabledFeatures: featureflags.NewManager(e.Features).Snapshot(userID),
		})
	}
	return out, nil
}

// Mine returns the caller's personal engine installations.
func (s *EngineService) Mine(ctx context.Context, userID uuid.UUID) ([]UserEngineDTO, error) {
	installs, err := s.engineRepo.UserEngines(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]UserEngineDTO, 0, len(installs))
	for _, link := range installs {
		dto := UserEngineDTO{IsActive: link.IsActive, IsPinned: link.IsPinned}
		if link.Engine != nil {
			dto.Engine = *link.Engine
		}
		out = append(out, dto)
	}
	return out, nil
}

// SetMine pins/unpins or toggles a personal installation, creating the link
// on first use.
func (s *EngineService) SetMine(ctx context.Context, in SetUserEngineInput) (*UserEngineDTO, error) {
	if err := validation.ValidateEngineKey(in.EngineKey); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	eng, err := s.engineRepo.GetByKey(ctx, in.EngineKey)
	if err != nil {
		return nil, err
	}

	link, err := s.engineRepo.SetUserEngineState(ctx, in.UserID, eng.ID, in.IsActive, in.IsPinned)
	if err != nil {
		return nil, err
	}
	return &UserEngineDTO{Engine: *eng, IsActive: link.IsActive, IsPinned: link.IsPinned}, nil
}

// Install activates an engine for a community and runs its module hook.
func (s *EngineService) Install(ctx context.Context, actorID, communityID uuid.UUID, key string) (*models.Engine, error) {
	eng, err := s.authorizeEngineChange(ctx, actorID, communityID, key)
	if err != nil {
		return nil, err
	}

	if _, err := s.engineRepo.Install(ctx, communityID, eng.ID); err != nil {
		return nil, err
	}
	if err := s.registry.RunInstallHook(ctx, nil, eng.Key, communityID); err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, cache.CommunityKey(communityID))
	return eng, nil
}

// Deactivate turns an installed engine off. Engine content stays in place and
// reappears on reinstall.
func (s *EngineService) Deactivate(ctx context.Context, actorID, communityID uuid.UUID, key string) error {
	eng, err := s.authorizeEngineChange(ctx, actorID, communityID, key)
	if err != nil {
		return err
	}

	if err := s.engineRepo.Deactivate(ctx, communityID, eng.ID); err != nil {
		return err
	}
	if err := s.registry.RunDeactivateHook(ctx, nil, eng.Key, communityID); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.CommunityKey(communityID))
	return nil
}

// Installed returns the live set of active engines for a community.
func (s *EngineService) Installed(ctx context.Context, communityID uuid.UUID) ([]models.Engine, error) {
	return s.engineRepo.InstalledForCommunity(ctx, communityID)
}

func (s *EngineService) authorizeEngineChange(ctx context.Context, actorID, communityID uuid.UUID, key string) (*models.Engine, error) {
	if err := validation.ValidateEngineKey(key); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	admin, err := s.isCommunityAdmin(ctx, actorID, communityID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, models.NewForbiddenError("Community admin privileges required")
	}

	return s.engineRepo.GetByKey(ctx, key)
}
