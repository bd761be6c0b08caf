package groups

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	pkgerrors "github.com/foodkoop/grouporder-backend/pkg/errors"
)

type stubRepo struct {
	groups map[uuid.UUID]*models.Group
}

func newStubRepo() *stubRepo {
	return &stubRepo{groups: map[uuid.UUID]*models.Group{}}
}

func (s *stubRepo) Create(ctx context.Context, group *models.Group) (*models.Group, error) {
	s.groups[group.ID] = group
	return group, nil
}

func (s *stubRepo) Update(ctx context.Context, group *models.Group) (*models.Group, error) {
	s.groups[group.ID] = group
	return group, nil
}

func (s *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.groups[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.groups, id)
	return nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return g, nil
}

func (s *stubRepo) List(ctx context.Context) ([]models.Group, error) {
	out := make([]models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, *g)
	}
	return out, nil
}

func TestServiceCreateGroup(t *testing.T) {
	svc, err := NewService(newStubRepo())
	require.NoError(t, err)

	group, err := svc.Create(context.Background(), CreateGroupInput{Name: "  Alpha  ", Enclosure: true})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", group.Name)
	assert.True(t, group.Enclosure)

	_, err = svc.Create(context.Background(), CreateGroupInput{Name: "   "})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestServiceUpdateGroupEnclosure(t *testing.T) {
	svc, err := NewService(newStubRepo())
	require.NoError(t, err)

	group, err := svc.Create(context.Background(), CreateGroupInput{Name: "Alpha"})
	require.NoError(t, err)
	require.False(t, group.Enclosure)

	paid := true
	updated, err := svc.Update(context.Background(), group.ID, UpdateGroupInput{Enclosure: &paid})
	require.NoError(t, err)
	assert.True(t, updated.Enclosure)
	assert.Equal(t, "Alpha", updated.Name)
}

func TestServiceGroupNotFound(t *testing.T) {
	svc, err := NewService(newStubRepo())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	err = svc.Delete(context.Background(), uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
