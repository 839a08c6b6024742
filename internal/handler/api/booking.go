package api

import (
	"net/http"
	"strconv"

	reqdto "practice-hub/internal/handler/dto/request"
	resdto "practice-hub/internal/handler/dto/response"
	"practice-hub/internal/handler/httperr"
	"practice-hub/internal/handler/middleware"
	"practice-hub/internal/usecase/commands"
	"practice-hub/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	cmds       commands.BookingCommands
	reschedule commands.RescheduleCommands
	q          queries.BookingQueries
}

func NewBookingHandler(cmds commands.BookingCommands, reschedule commands.RescheduleCommands, q queries.BookingQueries) *BookingHandler {
	return &BookingHandler{cmds: cmds, reschedule: reschedule, q: q}
}

type bookingEnvelope struct {
	Booking      *resdto.BookingResponse      `json:"booking"`
	Notification *resdto.NotificationResponse `json:"notification,omitempty"`
}

// @Summary Create session
// @Description Open a session slot hosted by the caller
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateBookingRequest true "Create session request"
// @Success 201 {object} bookingEnvelope
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Unauthorized", nil)
		return
	}
	var req reqdto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	result, err := h.cmds.Create(c.Request.Context(), userID, req.ToInput())
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.Header("Location", "/api/bookings/"+result.Booking.ID().String())
	h.respond(c, http.StatusCreated, result.Booking.ID(), userID, result.Notification)
}

// @Summary Get session
// @Description Get a session the caller takes part in
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	id, userID, ok := h.target(c)
	if !ok {
		return
	}
	view, err := h.q.Get(c.Request.Context(), id, userID)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	res, err := resdto.FromBookingView(view)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary List sessions
// @Description List sessions the caller hosts or attends, earliest first
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max items (default 20)"
// @Success 200 {array} resdto.BookingResponse
// @Failure 401 {object} httperr.Response
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Unauthorized", nil)
		return
	}
	limit := queries.DefaultListLimit
	if v := c.Query("limit"); v != "" {
		if iv, e := strconv.Atoi(v); e == nil {
			limit = iv
		}
	}
	views, err := h.q.ListMine(c.Request.Context(), userID, limit)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	res, err := resdto.FromBookingViews(views)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": res})
}

// @Summary Update session
// @Description Book an open session, or move or resize it as the host
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.UpdateBookingRequest true "Update request"
// @Success 200 {object} bookingEnvelope
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id} [patch]
func (h *BookingHandler) Update(c *gin.Context) {
	id, userID, ok := h.target(c)
	if !ok {
		return
	}
	var req reqdto.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	result, err := h.cmds.Update(c.Request.Context(), id, userID, req.ToPatch(userID))
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	h.respond(c, http.StatusOK, id, userID, result.Notification)
}

// @Summary Cancel session
// @Description Delete a session as its host; attendees receive a calendar cancellation
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} map[string]any
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, userID, ok := h.target(c)
	if !ok {
		return
	}
	result, err := h.cmds.Cancel(c.Request.Context(), id, userID)
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "notification": resdto.FromNotifyResult(result.Notification)})
}

// @Summary Propose a new time as a participant
// @Description Start or continue the reschedule negotiation of a session
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.ParticipantProposeRequest true "Proposal"
// @Success 200 {object} resdto.ProposeResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /bookings/{id}/reschedule [post]
func (h *BookingHandler) Reschedule(c *gin.Context) {
	id, userID, ok := h.target(c)
	if !ok {
		return
	}
	var req reqdto.ParticipantProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	result, err := h.reschedule.ProposeAsParticipant(c.Request.Context(), id, userID, req.ToInput())
	if err != nil {
		httperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromProposeResult(result))
}

func (h *BookingHandler) target(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return uuid.Nil, uuid.Nil, false
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Unauthorized", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return id, userID, true
}

// respond reloads the committed booking so that responses share one shape.
func (h *BookingHandler) respond(c *gin.Context, status int, id, viewerID uuid.UUID, n commands.NotifyResult) {
	view, err := h.q.Get(c.Request.Context(), id, viewerID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load booking", nil)
		return
	}
	res, err := resdto.FromBookingView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load booking", nil)
		return
	}
	c.JSON(status, bookingEnvelope{Booking: res, Notification: resdto.FromNotifyResult(n)})
}
