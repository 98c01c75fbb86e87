package handler

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ravlin/whereabouts/internal/inference"
	"github.com/ravlin/whereabouts/internal/models"
	"github.com/ravlin/whereabouts/pkg/response"
)

// InferenceHandler handles HTTP requests against the inference engine.
type InferenceHandler struct {
	engine *inference.Engine
}

// NewInferenceHandler creates a new inference handler
func NewInferenceHandler(engine *inference.Engine) *InferenceHandler {
	return &InferenceHandler{engine: engine}
}

// Train handles POST /api/v1/objects/:label/train
func (h *InferenceHandler) Train(c *gin.Context) {
	label := c.Param("label")

	if err := h.engine.TrainTimeModel(label); err != nil {
		writeInferenceError(c, err)
		return
	}
	response.Success(c, gin.H{"label": label, "trained": true})
}

// Predict handles GET /api/v1/objects/:label/prediction
func (h *InferenceHandler) Predict(c *gin.Context) {
	label := c.Param("label")

	at, err := parseTimeQuery(c, "at")
	if err != nil {
		response.BadRequest(c, "Invalid at parameter")
		return
	}

	loc, err := h.engine.PredictLocation(label, derefTime(at))
	if err != nil {
		writeInferenceError(c, err)
		return
	}
	response.Success(c, loc)
}

// Explain handles GET /api/v1/objects/:label/explanation
func (h *InferenceHandler) Explain(c *gin.Context) {
	label := c.Param("label")

	at, err := parseTimeQuery(c, "at")
	if err != nil {
		response.BadRequest(c, "Invalid at parameter")
		return
	}

	text, err := h.engine.ExplainPrediction(label, derefTime(at))
	if err != nil {
		writeInferenceError(c, err)
		return
	}
	response.Success(c, gin.H{"explanation": text})
}

// dispatchRequest is the function-call envelope the front end posts.
type dispatchRequest struct {
	Name      string          `json:"name" binding:"required"`
	Arguments json.RawMessage `json:"arguments"`
}

// Dispatch handles POST /api/v1/dispatch
func (h *InferenceHandler) Dispatch(c *gin.Context) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid dispatch payload")
		return
	}

	result, err := h.engine.Dispatch(req.Name, req.Arguments)
	if err != nil {
		writeInferenceError(c, err)
		return
	}
	response.Success(c, result)
}

// writeInferenceError maps the typed failure taxonomy onto HTTP statuses.
// Data-absence conditions are not server faults, so they come back as
// distinct non-5xx messages the front end can phrase for the user.
func writeInferenceError(c *gin.Context, err error) {
	var storageErr *models.StorageError
	switch {
	case errors.Is(err, models.ErrNoHistory):
		response.NotFound(c, err.Error())
	case errors.Is(err, models.ErrNoDataForHour):
		response.Conflict(c, err.Error())
	case errors.Is(err, models.ErrInsufficientData):
		response.Conflict(c, err.Error())
	case errors.As(err, &storageErr):
		response.InternalError(c, err.Error())
	default:
		response.BadRequest(c, err.Error())
	}
}
