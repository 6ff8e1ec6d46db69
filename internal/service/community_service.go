package service

import (
	"context"
	"fmt"
	"strings"

	"unionhall/internal/engine"
	"unionhall/internal/models"
	"unionhall/internal/pagination"
	"unionhall/internal/repository"
	"unionhall/internal/validation"

	"github.com/google/uuid"
)

// CommunityService owns community lifecycle and read-model assembly.
type CommunityService struct {
	communityRepo repository.CommunityRepository
	engineRepo    repository.EngineRepository
	registry      *engine.Registry
	isSuperuser   func(ctx context.Context, userID uuid.UUID) (bool, error)
	// strictEngineKeys rejects unknown archetype keys instead of dropping them.
	strictEngineKeys bool
	// strictCursors rejects malformed pagination cursors instead of treating
	// them as absent.
	strictCursors bool
}

// CommunityDTO is the read model for a single community. installed_engines is
// assembled from the live join at read time, never stored on the row.
type CommunityDTO struct {
	models.Community
	InstalledEngines []models.Engine `json:"installed_engines"`
}

type CreateCommunityInput struct {
	CreatorID   uuid.UUID
	Name        string
	Slug        string
	Description string
	IsPrivate   bool
	// Archetypes are engine keys to pre-install.
	Archetypes []string
}

type UpdateCommunityInput struct {
	ActorID     uuid.UUID
	CommunityID uuid.UUID
	Name        *string
	Description *string
	IsPrivate   *bool
}

func NewCommunityService(
	communityRepo repository.CommunityRepository,
	engineRepo repository.EngineRepository,
	registry *engine.Registry,
	isSuperuser func(ctx context.Context, userID uuid.UUID) (bool, error),
	strictEngineKeys bool,
	strictCursors bool,
) *CommunityService {
	return &CommunityService{
		communityRepo:    communityRepo,
		engineRepo:       engineRepo,
		registry:         registry,
		isSuperuser:      isSuperuser,
		strictEngineKeys: strictEngineKeys,
		strictCursors:    strictCursors,
	}
}

func (s *CommunityService) Create(ctx context.Context, in CreateCommunityInput) (*CommunityDTO, error) {
	if err := s.requireSuperuser(ctx, in.CreatorID); err != nil {
		return nil, err
	}
	if err := validation.ValidateCommunityName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateCommunitySlug(in.Slug); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	engines, unknown, err := s.engineRepo.ResolveKeys(ctx, in.Archetypes)
	if err != nil {
		return nil, err
	}
	if len(unknown) > 0 && s.strictEngineKeys {
		return nil, models.NewValidationError(
			fmt.Sprintf("Unknown engine keys: %s", strings.Join(unknown, ", ")))
	}

	community := &models.Community{
		Name:        strings.TrimSpace(in.Name),
		Slug:        in.Slug,
		Description: in.Description,
		IsPrivate:   in.IsPrivate,
	}
	if err := s.communityRepo.CreateWithOwner(ctx, community, in.CreatorID, engines); err != nil {
		return nil, err
	}

	for _, eng := range engines {
		if err := s.registry.RunInstallHook(ctx, nil, eng.Key, community.ID); err != nil {
			return nil, err
		}
	}

	return s.assemble(ctx, community)
}

func (s *CommunityService) Get(ctx context.Context, id uuid.UUID) (*CommunityDTO, error) {
	community, err := s.communityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, community)
}

func (s *CommunityService) GetBySlug(ctx context.Context, slug string) (*CommunityDTO, error) {
	community, err := s.communityRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, community)
}

// List returns a cursor page of communities. rawCursor is the opaque value
// straight from the query string; empty means first page.
func (s *CommunityService) List(ctx context.Context, limit int, rawCursor string) (pagination.Page[models.Community], error) {
	cursor, err := s.decodeCursor(rawCursor)
	if err != nil {
		return pagination.Page[models.Community]{}, err
	}
	return s.communityRepo.List(ctx, limit, cursor)
}

func (s *CommunityService) Update(ctx context.Context, in UpdateCommunityInput) (*CommunityDTO, error) {
	if err := s.requireSuperuser(ctx, in.ActorID); err != nil {
		return nil, err
	}

	community, err := s.communityRepo.GetByID(ctx, in.CommunityID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if err := validation.ValidateCommunityName(*in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		community.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		community.Description = *in.Description
	}
	if in.IsPrivate != nil {
		community.IsPrivate = *in.IsPrivate
	}

	if err := s.communityRepo.Update(ctx, community); err != nil {
		return nil, err
	}
	return s.assemble(ctx, community)
}

func (s *CommunityService) Delete(ctx context.Context, actorID, communityID uuid.UUID) error {
	if err := s.requireSuperuser(ctx, actorID); err != nil {
		return err
	}
	return s.communityRepo.Delete(ctx, communityID)
}

func (s *CommunityService) decodeCursor(raw string) (*pagination.Cursor, error) {
	if raw == "" {
		return nil, nil
	}
	cursor, err := pagination.Decode(raw)
	if err != nil {
		if s.strictCursors {
			return nil, models.NewValidationError("Malformed pagination cursor")
		}
		// Lenient mode: a corrupt cursor means the first page.
		return nil, nil
	}
	return &cursor, nil
}

func (s *CommunityService) assemble(ctx context.Context, community *models.Community) (*CommunityDTO, error) {
	installed, err := s.engineRepo.InstalledForCommunity(ctx, community.ID)
	if err != nil {
		return nil, err
	}
	if installed == nil {
		installed = []models.Engine{}
	}
	return &CommunityDTO{Community: *community, InstalledEngines: installed}, nil
}

func (s *CommunityService) requireSuperuser(ctx context.Context, userID uuid.UUID) error {
	if s.isSuperuser == nil {
		return models.NewForbiddenError("Superuser privileges required")
	}
	super, err := s.isSuperuser(ctx, userID)
	if err != nil {
		return err
	}
	if !super {
		return models.NewForbiddenError("Superuser privileges required")
	}
	return nil
}
