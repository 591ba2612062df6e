package http

import (
	"github.com/gin-gonic/gin"

	"github.com/protomforms/response-service/internal/service"
)

// CacheHandler exposes the aggregation cache for inspection and manual
// invalidation. Operators use it to confirm eviction behavior and to force
// a recompute without waiting for a TTL to lapse.
type CacheHandler struct {
	stats *service.StatsService
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(stats *service.StatsService) *CacheHandler {
	return &CacheHandler{stats: stats}
}

// CacheStats handles GET /api/cache/stats requests.
//
// @Summary      Cache statistics
// @Description  Returns the current cache size, capacity, and per-entry hit counts and remaining TTLs. Reading the snapshot does not touch entry recency.
// @Tags         Cache
// @Produce      json
// @Success      200 {object} dto.SuccessResponse{data=cache.StoreStats}
// @Router       /api/cache/stats [get]
func (h *CacheHandler) CacheStats(c *gin.Context) {
	NewResponseBuilder(c).SuccessOK(h.stats.CacheStats())
}

// InvalidateCache handles DELETE /api/cache requests.
//
// @Summary      Invalidate cached aggregates
// @Description  Drops the entry for the given key, or the whole cache when no key is provided.
// @Tags         Cache
// @Produce      json
// @Param        key query string false "Cache key to drop"
// @Success      200 {object} dto.SuccessResponse
// @Router       /api/cache [delete]
func (h *CacheHandler) InvalidateCache(c *gin.Context) {
	key := c.Query("key")
	h.stats.InvalidateCache(key)

	if key == "" {
		key = "*"
	}
	NewResponseBuilder(c).SuccessOK(gin.H{"invalidated": key})
}
