package http

import (
	"context"
	"net/http"
	"time"

	"github.com/logiscore/authcore/internal/auth/service"
	"github.com/logiscore/authcore/internal/auth/store"
	"github.com/logiscore/authcore/pkg/authsdk"
	"github.com/logiscore/authcore/pkg/httpx"
)

const readyzTimeout = 2 * time.Second

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and status of the database, signing key and attempt limiter
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	sessions *service.SessionIssuer,
	limiterCheck func(context.Context) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
		defer cancel()

		checks := &authsdk.HealthChecks{
			Database: "ok",
			Signer:   "ok",
			Limiter:  "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK
		degrade := func(field *string, msg string) {
			*field = "error: " + msg
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := st.Ping(ctx); err != nil {
			degrade(&checks.Database, err.Error())
		}

		if sessions == nil || sessions.Keys == nil || sessions.Keys.Current() == nil {
			degrade(&checks.Signer, "no signing key loaded")
		}

		if limiterCheck != nil {
			if err := limiterCheck(ctx); err != nil {
				degrade(&checks.Limiter, err.Error())
			}
		}

		httpx.WriteJSON(w, statusCode, authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).Truncate(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
