package handler

import (
	"procurement/internal/middleware"
	"procurement/internal/service"
	"procurement/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activityService service.ActivityService
}

func NewActivityHandler(activityService service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func (h *ActivityHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/activity-logs/:entity_type/:entity_id", middleware.RequirePermission("read_activity_log"), h.Feed)
}

// Feed returns the activity trail of one entity, newest first
// @Summary      Activity log
// @Tags         activity
// @Security     BearerAuth
// @Produce      json
// @Param        entity_type  path   string  true   "supplier, product, user, rfq, quotation"
// @Param        entity_id    path   string  true   "Entity ID"
// @Param        page         query  int     false  "Page number"
// @Param        per_page     query  int     false  "Items per page"
// @Param        search       query  string  false  "Search actor, action or changes"
// @Success      200  {object}  response.Response{data=response.Page}
// @Failure      422  {object}  response.Response
// @Router       /api/activity-logs/{entity_type}/{entity_id} [get]
func (h *ActivityHandler) Feed(c *gin.Context) {
	p := pagination.Parse(c)
	entries, total, err := h.activityService.Feed(c.Request.Context(), c.Param("entity_type"), c.Param("entity_id"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "", entries, p, total)
}
