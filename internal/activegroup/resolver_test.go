package activegroup

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodkoop/grouporder-backend/pkg/config"
	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	pkgerrors "github.com/foodkoop/grouporder-backend/pkg/errors"
)

type fakeStore struct {
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = fmt.Sprint(value)
	return nil
}

func (f *fakeStore) ActiveGroupKey(sessionID string) string {
	return "test:active_group:" + sessionID
}

type fakeGroups struct {
	groups map[uuid.UUID]*models.Group
}

func (f *fakeGroups) FindByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return g, nil
}

func newTestResolver(t *testing.T, store *fakeStore, groups *fakeGroups) *Resolver {
	t.Helper()
	r, err := NewResolver(store, groups, config.SessionConfig{CookieName: "grouporder_session", TTLMinutes: 60})
	require.NoError(t, err)
	return r
}

func TestResolveQueryParamSelectsAndPersists(t *testing.T) {
	store := newFakeStore()
	group := &models.Group{ID: uuid.New(), Name: "Alpha", Enclosure: true}
	resolver := newTestResolver(t, store, &fakeGroups{groups: map[uuid.UUID]*models.Group{group.ID: group}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?group="+group.ID.String(), nil)

	got, err := resolver.Resolve(rec, req)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, group.ID, got.ID)

	// The choice is stored under the freshly minted session cookie.
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "grouporder_session", cookies[0].Name)
	assert.Equal(t, group.ID.String(), store.values[store.ActiveGroupKey(cookies[0].Value)])
}

func TestResolveSessionFallback(t *testing.T) {
	store := newFakeStore()
	group := &models.Group{ID: uuid.New(), Name: "Alpha"}
	resolver := newTestResolver(t, store, &fakeGroups{groups: map[uuid.UUID]*models.Group{group.ID: group}})

	sessionID := uuid.NewString()
	store.values[store.ActiveGroupKey(sessionID)] = group.ID.String()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "grouporder_session", Value: sessionID})

	got, err := resolver.Resolve(rec, req)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, group.ID, got.ID)

	// An existing cookie is reused, not replaced.
	assert.Empty(t, rec.Result().Cookies())
}

func TestResolveNoSelection(t *testing.T) {
	resolver := newTestResolver(t, newFakeStore(), &fakeGroups{groups: map[uuid.UUID]*models.Group{}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	got, err := resolver.Resolve(rec, req)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolveUnknownQueryGroup(t *testing.T) {
	resolver := newTestResolver(t, newFakeStore(), &fakeGroups{groups: map[uuid.UUID]*models.Group{}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?group="+uuid.NewString(), nil)

	_, err := resolver.Resolve(rec, req)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestResolveInvalidQueryGroup(t *testing.T) {
	resolver := newTestResolver(t, newFakeStore(), &fakeGroups{groups: map[uuid.UUID]*models.Group{}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?group=not-a-uuid", nil)

	_, err := resolver.Resolve(rec, req)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestResolveStaleStoredGroup(t *testing.T) {
	store := newFakeStore()
	resolver := newTestResolver(t, store, &fakeGroups{groups: map[uuid.UUID]*models.Group{}})

	sessionID := uuid.NewString()
	store.values[store.ActiveGroupKey(sessionID)] = uuid.NewString()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "grouporder_session", Value: sessionID})

	// A stored group that has since been deleted resolves to no selection.
	got, err := resolver.Resolve(rec, req)
	require.NoError(t, err)
	assert.Nil(t, got)
}
