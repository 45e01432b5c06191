package server

import (
	"net/http"
	"strings"

	activitydomain "github.com/billora/billora/internal/activity/domain"
	"github.com/billora/billora/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

// recordActivity writes a feed entry after a mutation has succeeded. A
// failed write is logged by the service and never fails the request.
func (s *Server) recordActivity(c *gin.Context, entityType, entityID, action string, metadata map[string]any) {
	if s.activitySvc == nil {
		return
	}
	id := entityID
	_ = s.activitySvc.Record(c.Request.Context(), entityType, &id, action, metadata)
}

func (s *Server) ListActivity(c *gin.Context) {
	var query struct {
		pagination.Pagination
		EntityType string `form:"entity_type"`
		EntityID   string `form:"entity_id"`
		Action     string `form:"action"`
		StartAt    string `form:"start_at"`
		EndAt      string `form:"end_at"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startAt, err := parseOptionalTime(query.StartAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("start_at", "invalid_start_at", "invalid start_at"))
		return
	}
	endAt, err := parseOptionalTime(query.EndAt, true)
	if err != nil {
		AbortWithError(c, newValidationError("end_at", "invalid_end_at", "invalid end_at"))
		return
	}

	resp, err := s.activitySvc.List(c.Request.Context(), activitydomain.ListActivityRequest{
		Pagination: query.Pagination,
		EntityType: strings.TrimSpace(query.EntityType),
		EntityID:   strings.TrimSpace(query.EntityID),
		Action:     strings.TrimSpace(query.Action),
		StartAt:    startAt,
		EndAt:      endAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
