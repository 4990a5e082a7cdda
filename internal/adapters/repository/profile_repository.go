package repository

import (
	"context"
	"fmt"

	"github.com/taskboardx/core/internal/domain/entities"
)

// ProfileRepositoryImpl implements ports.ProfileRepository
type ProfileRepositoryImpl struct {
	col *Collection[entities.Profile]
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(col *Collection[entities.Profile]) *ProfileRepositoryImpl {
	return &ProfileRepositoryImpl{col: col}
}

// Load returns the stored profile, seeding the default identity when absent
func (r *ProfileRepositoryImpl) Load(ctx context.Context) (entities.Profile, error) {
	profile, err := r.col.Load(ctx)
	if err != nil {
		return entities.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	// a JSON null decodes without error
	if profile.ID == "" {
		profile = entities.DefaultProfile()
		if err := r.col.Save(ctx, profile); err != nil {
			return entities.Profile{}, fmt.Errorf("seed profile: %w", err)
		}
	}
	return profile, nil
}

func (r *ProfileRepositoryImpl) Update(ctx context.Context, patch entities.ProfilePatch) (entities.Profile, error) {
	profile, err := r.Load(ctx)
	if err != nil {
		return entities.Profile{}, err
	}

	profile.Apply(patch)
	if err := r.col.Save(ctx, profile); err != nil {
		return entities.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}
