package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/foodkoop/grouporder-backend/api/responses"
	"github.com/foodkoop/grouporder-backend/pkg/config"
	"github.com/foodkoop/grouporder-backend/pkg/db"
	pkgerrors "github.com/foodkoop/grouporder-backend/pkg/errors"
	"github.com/foodkoop/grouporder-backend/pkg/logger"
	"github.com/foodkoop/grouporder-backend/pkg/redis"
)

// HealthLive reports process liveness.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"status": "ok",
			"env":    cfg.App.Env,
		})
	}
}

// HealthReady verifies the backing stores are reachable.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["database"] = err.Error()
				healthy = false
			} else {
				checks["database"] = "ok"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		if !healthy {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"status": "ok",
			"checks": checks,
		})
	}
}
