package services

import (
	"context"
	"fmt"

	"github.com/taskboardx/core/internal/domain/entities"
	"github.com/taskboardx/core/internal/infrastructure/logger"
	"github.com/taskboardx/core/internal/ports"
)

// ProfileService reads and edits the local profile
type ProfileService struct {
	profileRepo ports.ProfileRepository
	integrity   *IntegrityCoordinator
	logger      *logger.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(profileRepo ports.ProfileRepository, integrity *IntegrityCoordinator, logger *logger.Logger) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		integrity:   integrity,
		logger:      logger.WithComponent("profile_service"),
	}
}

func (s *ProfileService) GetProfile(ctx context.Context) (entities.Profile, error) {
	var profile entities.Profile
	err := s.integrity.Atomically(func() error {
		var err error
		profile, err = s.profileRepo.Load(ctx)
		return err
	})
	if err != nil {
		return entities.Profile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile merges the given fields. The id never changes.
func (s *ProfileService) UpdateProfile(ctx context.Context, req ports.UpdateProfileRequest) (entities.Profile, error) {
	patch := entities.ProfilePatch{
		Name:          req.Name,
		DOB:           req.DOB,
		Position:      req.Position,
		AvatarURL:     req.AvatarURL,
		CoverPhotoURL: req.CoverPhotoURL,
	}

	var profile entities.Profile
	err := s.integrity.Atomically(func() error {
		var err error
		profile, err = s.profileRepo.Update(ctx, patch)
		return err
	})
	if err != nil {
		return entities.Profile{}, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Infow("Profile updated", "profile_id", profile.ID)

	return profile, nil
}
