package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/golbat/api/middleware"
	"github.com/use-agent/golbat/engine"
	"github.com/use-agent/golbat/models"
	"github.com/use-agent/golbat/pipeline"
)

// statusClientClosedRequest is reported when the caller went away mid-fetch.
const statusClientClosedRequest = 499

// Metadata returns a handler for GET /metadata?url=<absolute-url>&full=<bool>.
//
// Orchestration flow:
//  1. Bind & validate the query; a bad url never reaches the network.
//  2. Pipeline.Run → fetch, extract, normalize, probe, assemble.
//  3. Respond with the flat record, marked non-cacheable.
func Metadata(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", middleware.NoStore)

		// ── 1. Parse request ────────────────────────────────────────
		var req models.MetadataRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "URL parameter is required",
				Code:  models.ErrCodeInvalidInput,
			})
			return
		}
		target, err := engine.ParseTarget(req.URL)
		if err != nil {
			respondError(c, err)
			return
		}

		// ── 2. Run pipeline ─────────────────────────────────────────
		rec, err := p.Run(c.Request.Context(), target.String(), req.FullMode())
		if err != nil {
			respondError(c, err)
			return
		}

		// ── 3. Respond ──────────────────────────────────────────────
		c.JSON(http.StatusOK, rec)
	}
}

// respondError maps a MetadataError to the correct HTTP status code and
// writes a JSON error body. Wrapped causes are logged, never returned.
func respondError(c *gin.Context, err error) {
	var metaErr *models.MetadataError
	if !errors.As(err, &metaErr) {
		metaErr = models.NewMetadataError(models.ErrCodeInternal, "Failed to fetch or parse the website", err)
	}

	status := mapErrorToStatus(metaErr)
	if status >= http.StatusInternalServerError {
		slog.Error("metadata request failed", "url", c.Query("url"), "code", metaErr.Code, "error", err)
	}

	c.JSON(status, metaErr.ToResponse())
}

// mapErrorToStatus translates error codes to HTTP status codes. Upstream
// non-2xx answers propagate the target's own status.
func mapErrorToStatus(e *models.MetadataError) int {
	switch e.Code {
	case models.ErrCodeUpstreamStatus:
		if e.Status >= 400 && e.Status <= 599 {
			return e.Status
		}
		return http.StatusBadGateway // 502
	case models.ErrCodeUpstreamTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeUpstreamUnreachable:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeCanceled:
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError // 500
	}
}
