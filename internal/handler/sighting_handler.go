package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ravlin/whereabouts/internal/models"
	"github.com/ravlin/whereabouts/internal/store"
	"github.com/ravlin/whereabouts/pkg/response"
)

// SightingHandler handles HTTP requests against the sighting store.
type SightingHandler struct {
	store *store.Store
}

// NewSightingHandler creates a new sighting handler
func NewSightingHandler(st *store.Store) *SightingHandler {
	return &SightingHandler{store: st}
}

// StoreSighting handles POST /api/v1/sightings
func (h *SightingHandler) StoreSighting(c *gin.Context) {
	var ev models.Sighting
	if err := c.ShouldBindJSON(&ev); err != nil {
		response.BadRequest(c, "Invalid sighting payload")
		return
	}
	if err := ev.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.store.StoreSighting(ev); err != nil {
		var storageErr *models.StorageError
		if errors.As(err, &storageErr) {
			response.InternalError(c, storageErr.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, gin.H{"label": ev.Label})
}

// ListLabels handles GET /api/v1/objects
func (h *SightingHandler) ListLabels(c *gin.Context) {
	labels := h.store.Labels()
	response.Success(c, gin.H{
		"labels": labels,
		"count":  len(labels),
	})
}

// GetHistory handles GET /api/v1/objects/:label/history
func (h *SightingHandler) GetHistory(c *gin.Context) {
	label := c.Param("label")

	since, err := parseTimeQuery(c, "since")
	if err != nil {
		response.BadRequest(c, "Invalid since parameter")
		return
	}
	until, err := parseTimeQuery(c, "until")
	if err != nil {
		response.BadRequest(c, "Invalid until parameter")
		return
	}

	events := h.store.SightingsBetween(label, since, until)
	response.Success(c, gin.H{
		"data":  events,
		"count": len(events),
	})
}

// GetLastSeen handles GET /api/v1/objects/:label/last-seen
func (h *SightingHandler) GetLastSeen(c *gin.Context) {
	label := c.Param("label")

	ev, ok := h.store.LastSeen(label)
	if !ok {
		response.SuccessNull(c)
		return
	}
	response.Success(c, ev)
}

// parseTimeQuery parses an optional RFC 3339 query parameter.
func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
