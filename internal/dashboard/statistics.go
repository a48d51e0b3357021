package dashboard

import (
	"context"
	"net/http"
	"net/url"

	"procurement/internal/client"
	"procurement/internal/querycache"

	"github.com/gin-gonic/gin"
)

// statisticsResource sits under "rfqs" so an award drops it with the RFQ list
const statisticsResource = "rfqs/statistics"

func (h *Handler) Statistics(c *gin.Context) {
	start, end := c.Query("start_date"), c.Query("end_date")
	params := url.Values{"start_date": {start}, "end_date": {end}}
	sess := session(c)
	st, err := querycache.Fetch(c.Request.Context(), h.cache, statisticsResource, params, func(ctx context.Context) (client.Statistics, error) {
		return sess.Statistics(ctx, start, end)
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
