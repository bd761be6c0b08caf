package groups

import (
	"context"
	"fmt"
	"strings"

	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	pkgerrors "github.com/foodkoop/grouporder-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateGroupInput carries the fields for a new ordering group.
type CreateGroupInput struct {
	Name      string
	Enclosure bool
}

// UpdateGroupInput carries a partial group update. Nil fields are untouched.
type UpdateGroupInput struct {
	Name      *string
	Enclosure *bool
}

// Service exposes group administration.
type Service interface {
	Create(ctx context.Context, input CreateGroupInput) (*models.Group, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateGroupInput) (*models.Group, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
}

type service struct {
	repo Repository
}

// NewService builds a group service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("group repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateGroupInput) (*models.Group, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group name required")
	}
	group := &models.Group{ID: uuid.New(), Name: name, Enclosure: input.Enclosure}
	created, err := s.repo.Create(ctx, group)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create group")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateGroupInput) (*models.Group, error) {
	group, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "group name required")
		}
		group.Name = name
	}
	if input.Enclosure != nil {
		group.Enclosure = *input.Enclosure
	}
	updated, err := s.repo.Update(ctx, group)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update group")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete group")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	return s.load(ctx, id)
}

func (s *service) List(ctx context.Context) ([]models.Group, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list groups")
	}
	return out, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group")
	}
	return group, nil
}
