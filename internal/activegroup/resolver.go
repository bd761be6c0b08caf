package activegroup

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/foodkoop/grouporder-backend/pkg/config"
	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	pkgerrors "github.com/foodkoop/grouporder-backend/pkg/errors"
	pkgredis "github.com/foodkoop/grouporder-backend/pkg/redis"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QueryParam selects the active group on any bundle request.
const QueryParam = "group"

// SessionStore is the slice of the redis client the resolver needs.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	ActiveGroupKey(sessionID string) string
}

// GroupFinder resolves stored group ids to records.
type GroupFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
}

// Resolver determines which group a caller is currently acting as. The choice
// is carried per request (query parameter) or per session (cookie keyed into
// redis); it is never process-wide state.
type Resolver struct {
	store      SessionStore
	groups     GroupFinder
	cookieName string
	ttl        time.Duration
}

// NewResolver builds an active-group resolver.
func NewResolver(store SessionStore, groups GroupFinder, cfg config.SessionConfig) (*Resolver, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if groups == nil {
		return nil, fmt.Errorf("group finder required")
	}
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "grouporder_session"
	}
	return &Resolver{
		store:      store,
		groups:     groups,
		cookieName: cookieName,
		ttl:        cfg.TTL(),
	}, nil
}

// Resolve returns the caller's active group, or nil when none is selected.
// A "group" query parameter picks a group and persists the choice in the
// session; without it the session's stored choice applies. A stored group
// that no longer exists resolves to nil rather than an error.
func (r *Resolver) Resolve(w http.ResponseWriter, req *http.Request) (*models.Group, error) {
	ctx := req.Context()
	sessionID := r.sessionID(w, req)

	if raw := req.URL.Query().Get(QueryParam); raw != "" {
		groupID, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid group id")
		}
		group, err := r.groups.FindByID(ctx, groupID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "group not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group")
		}
		key := r.store.ActiveGroupKey(sessionID)
		if err := r.store.Set(ctx, key, group.ID.String(), r.ttl); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist active group")
		}
		return group, nil
	}

	stored, err := r.store.Get(ctx, r.store.ActiveGroupKey(sessionID))
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read active group session")
	}

	groupID, err := uuid.Parse(stored)
	if err != nil {
		return nil, nil
	}
	group, err := r.groups.FindByID(ctx, groupID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group")
	}
	return group, nil
}

// sessionID reads the session cookie, minting one when absent.
func (r *Resolver) sessionID(w http.ResponseWriter, req *http.Request) string {
	if cookie, err := req.Cookie(r.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     r.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
