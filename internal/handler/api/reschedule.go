package api

import (
	"net/http"

	reqdto "practice-hub/internal/handler/dto/request"
	resdto "practice-hub/internal/handler/dto/response"
	"practice-hub/internal/handler/httperr"
	"practice-hub/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

// RescheduleHandler serves the link-based endpoints. The capability token in
// the body or query is the only credential.
type RescheduleHandler struct {
	cmds commands.RescheduleCommands
}

func NewRescheduleHandler(cmds commands.RescheduleCommands) *RescheduleHandler {
	return &RescheduleHandler{cmds: cmds}
}

// @Summary Decide on a proposal
// @Description Agree, cancel, or counter-propose using a decision link token
// @Tags reschedule
// @Accept json
// @Produce json
// @Param request body reqdto.DecideRequest true "Decision"
// @Success 200 {object} resdto.DecideResponse
// @Failure 400 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 410 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /reschedule/decide [post]
func (h *RescheduleHandler) Decide(c *gin.Context) {
	var req reqdto.DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	in, err := req.ToInput()
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	result, err := h.cmds.Decide(c.Request.Context(), req.Token, in)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromDecideResult(result))
}

// @Summary Propose a new time
// @Description Propose a new time for a session using a propose link token
// @Tags reschedule
// @Accept json
// @Produce json
// @Param request body reqdto.ProposeRequest true "Proposal"
// @Success 200 {object} resdto.ProposeResponse
// @Failure 400 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 410 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /reschedule/propose [post]
func (h *RescheduleHandler) Propose(c *gin.Context) {
	var req reqdto.ProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	result, err := h.cmds.ProposeWithToken(c.Request.Context(), req.Token, req.ToInput())
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromProposeResult(result))
}

// @Summary Preview a decision link
// @Description Show the proposal a decision link points at without using it
// @Tags reschedule
// @Produce json
// @Param t query string true "Decision link token"
// @Success 200 {object} resdto.DecisionPreviewResponse
// @Failure 400 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 410 {object} httperr.Response
// @Router /reschedule/decision [get]
func (h *RescheduleHandler) Preview(c *gin.Context) {
	token := c.Query("t")
	if token == "" {
		httperr.AbortWithError(c, http.StatusBadRequest, nil, "Missing token", nil)
		return
	}
	preview, err := h.cmds.Preview(c.Request.Context(), token)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromDecisionPreview(preview))
}
