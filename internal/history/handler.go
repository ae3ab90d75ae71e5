package history

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/models"
	"github.com/classpulse/backend/pkg/response"
)

// RecentLimit is how many finished polls the history endpoint returns.
const RecentLimit = 10

// Store is the read side of poll history.
type Store interface {
	Recent(ctx context.Context, n int) ([]models.PollRecord, error)
}

// Appender is the write side of poll history.
type Appender interface {
	Append(ctx context.Context, rec models.PollRecord) error
}

// Recorder combines the repository with cache invalidation; it is what the
// live service appends finished polls through.
type Recorder struct {
	store Appender
	cache *Cache
}

// NewRecorder creates a recorder over the given store and optional cache.
func NewRecorder(store Appender, cache *Cache) *Recorder {
	return &Recorder{store: store, cache: cache}
}

// Append durably records a finished poll and drops the cached recent list.
func (r *Recorder) Append(ctx context.Context, rec models.PollRecord) error {
	if err := r.store.Append(ctx, rec); err != nil {
		return err
	}
	r.cache.Invalidate(ctx)
	return nil
}

// Handler serves poll history over HTTP.
type Handler struct {
	store  Store
	cache  *Cache
	logger *zap.Logger
}

// NewHandler creates a history handler over the given store and optional cache.
func NewHandler(store Store, cache *Cache, logger *zap.Logger) *Handler {
	return &Handler{store: store, cache: cache, logger: logger}
}

// Recent handles GET /api/polls/history: the 10 most recent finished polls,
// most recent first.
func (h *Handler) Recent(c *gin.Context) {
	ctx := c.Request.Context()

	if records, ok := h.cache.Get(ctx); ok {
		response.OK(c, records)
		return
	}

	records, err := h.store.Recent(ctx, RecentLimit)
	if err != nil {
		h.logger.Error("list poll history", zap.Error(err))
		response.Internal(c, "failed to load poll history")
		return
	}
	h.cache.Set(ctx, records)
	response.OK(c, records)
}
