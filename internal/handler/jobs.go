package handler

import (
	"net/http"

	"pharmacyos/internal/apierror"
	"pharmacyos/internal/middleware"
	"pharmacyos/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// jobQueues maps the public queue name to its Redis list.
var jobQueues = map[string]string{
	worker.JobReceipt: worker.QueueReceipt,
	worker.JobEmail:   worker.QueueEmail,
}

type replayQuery struct {
	Max int `form:"max,default=100" validate:"min=1,max=1000"`
}

// ReplayDeadLetters godoc
// @Summary      Re-queue parked background jobs
// @Description  Moves up to `max` of the caller's organization's dead-lettered jobs back onto their queue with a fresh retry budget.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        queue path  string true  "receipt | email"
// @Param        max   query int    false "Upper bound" default(100)
// @Success      200 {object} map[string]interface{}
// @Failure      404 {object} apierror.APIError
// @Router       /v1/admin/jobs/{queue}/replay [post]
func ReplayDeadLetters(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		queue, ok := jobQueues[c.Param("queue")]
		if !ok {
			c.JSON(http.StatusNotFound, apierror.WithKind("not_found", "unknown queue"))
			return
		}
		var q replayQuery
		if !bindQuery(c, &q) {
			return
		}
		if rdb == nil {
			c.JSON(http.StatusServiceUnavailable, apierror.New("redis not available"))
			return
		}

		orgID := middleware.GetAuth(c).OrganizationID.String()
		n, remaining, err := worker.ReplayDLQ(c.Request.Context(), rdb, queue, orgID, q.Max)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"queue": c.Param("queue"), "replayed": n, "remaining": remaining})
	}
}
