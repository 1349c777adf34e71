package handlers

import (
	"net/http"

	"cpu_boost/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusRequested = "requested"
	statusIgnored   = "ignored"
	statusParamsSet = "params_set"

	errGetState        = "failed to load state"
	errSetParams       = "failed to save params"
	errInvalidBodyPref = "invalid body: "
	errEmptyParams     = "frequency_khz or duration_ms is required"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Respond with a status and include current state if available (best-effort).
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	ctx := c.Request.Context()
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	st, err := h.services.Monitoring.GetState(ctx)
	if err == nil {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// Request DTO for setting params; omitted fields keep their value.
type paramsRequest struct {
	FrequencyKHz *int `json:"frequency_khz"`
	DurationMs   *int `json:"duration_ms"`
}

// SetParamsRequest is an exported model for Swagger docs of the setParams payload.
type SetParamsRequest struct {
	// Floor applied to every online CPU while boosted, in kHz
	FrequencyKHz int `json:"frequency_khz,omitempty" example:"1134000"`
	// Boost length in milliseconds
	DurationMs int `json:"duration_ms,omitempty" example:"3000"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Request a boost
// @Description  Raises the boost request. Ignored while a boost is running. The returned status is best effort; boost_requests_dropped_total counts requests lost at restore.
// @Tags         boost
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, already_pending, state"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/boost/request [post]
// @Security     BearerAuth
func (h *Handler) requestBoost(c *gin.Context) {
	out := h.services.Boost.Request(c.Request.Context())
	status := statusRequested
	if !out.Accepted {
		status = statusIgnored
	}
	if h.log != nil {
		id, _ := identityFrom(c)
		h.log.Infow("boost_requested", "user_id", id.UserID, "accepted", out.Accepted, "already_pending", out.AlreadyPending)
	}
	h.respondWithStatusAndState(c, status, gin.H{"already_pending": out.AlreadyPending})
}

// @Summary      Get boost params
// @Tags         boost
// @Produce      json
// @Success      200  {object}  models.BoostParams
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/boost/params [get]
// @Security     BearerAuth
func (h *Handler) getParams(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Boost.Params(c.Request.Context()))
}

// @Summary      Set boost params
// @Description  Operator only. Values are clamped per CPU when applied.
// @Tags         boost
// @Accept       json
// @Produce      json
// @Param        body  body   SetParamsRequest  true  "Params payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/boost/params [put]
// @Security     BearerAuth
func (h *Handler) setParams(c *gin.Context) {
	var req paramsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if req.FrequencyKHz == nil && req.DurationMs == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errEmptyParams})
		return
	}

	p, err := h.services.Boost.SetParams(c.Request.Context(), service.ParamsInput{
		FrequencyKHz: req.FrequencyKHz,
		DurationMs:   req.DurationMs,
	})
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSetParams, "boost_set_params_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusParamsSet, gin.H{"params": p})
}

// @Summary      Get boost state
// @Tags         boost
// @Produce      json
// @Success      200  {object}  models.BoostStatus
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/boost/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Monitoring.GetState(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "boost_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}
