//go:build unit

package api_test

import (
	"net/http"
	"testing"
	"time"

	"practice-hub/internal/domain/booking"
	"practice-hub/internal/domain/user"
	"practice-hub/internal/handler/api"
	resdto "practice-hub/internal/handler/dto/response"
	"practice-hub/internal/handler/middleware"
	"practice-hub/internal/usecase/commands"
	"practice-hub/internal/usecase/queries"
	"practice-hub/tests/common/builder"
	"practice-hub/tests/common/httptest"
	"practice-hub/tests/common/testutil"
	commandsmock "practice-hub/tests/mock/commands"
	queriesmock "practice-hub/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BookingHandlerTestSuite struct {
	suite.Suite
	router         *gin.Engine
	mockCtrl       *gomock.Controller
	mockCommands   *commandsmock.MockBookingCommands
	mockReschedule *commandsmock.MockRescheduleCommands
	mockQueries    *queriesmock.MockBookingQueries
	handler        *api.BookingHandler
	userID         uuid.UUID
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockBookingCommands(s.mockCtrl)
	s.mockReschedule = commandsmock.NewMockRescheduleCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	s.handler = api.NewBookingHandler(s.mockCommands, s.mockReschedule, s.mockQueries)
	s.userID = uuid.New()

	// Mock authentication middleware for testing
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		middleware.SetUser(c, s.userID, user.RoleMember)
		c.Next()
	}

	g := s.router.Group("/bookings", authMiddleware)
	g.POST("", s.handler.Create)
	g.GET("", s.handler.List)
	g.GET("/:id", s.handler.Get)
	g.PATCH("/:id", s.handler.Update)
	g.DELETE("/:id", s.handler.Cancel)
	g.POST("/:id/reschedule", s.handler.Reschedule)
}

func (s *BookingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

func (s *BookingHandlerTestSuite) view(id uuid.UUID) *queries.BookingView {
	start := time.Date(2026, 11, 2, 15, 0, 0, 0, time.UTC)
	note := "running late"
	return &queries.BookingView{
		ID:               id,
		HostID:           s.userID,
		Start:            start,
		End:              start.Add(45 * time.Minute),
		DurationMinutes:  45,
		RevisionSequence: 2,
		Stage:            "booked",
		PendingProposal: &queries.ProposalView{
			ID:            uuid.New(),
			ProposedBy:    "counterparty",
			ProposerEmail: "guest@example.com",
			Start:         start.Add(time.Hour),
			End:           start.Add(105 * time.Minute),
			Note:          &note,
		},
	}
}

// ================================================================================
// TestCreate
// ================================================================================

func (s *BookingHandlerTestSuite) TestCreate() {
	url := "/bookings"
	b := builder.NewBookingBuilder().WithHost(s.userID)
	reqBody := b.BuildCreateDTO()
	created, err := b.BuildDomain()
	s.Require().NoError(err)

	s.Run("success: returns 201 with the stored session", func() {
		s.mockCommands.EXPECT().Create(gomock.Any(), s.userID, commands.CreateBookingInput{Start: b.Start, DurationMinutes: b.DurationMinutes}).
			Return(&commands.BookingResult{Booking: created, Notification: commands.NotifyOK{}}, nil).Times(1)
		s.mockQueries.EXPECT().Get(gomock.Any(), created.ID(), s.userID).
			Return(s.view(created.ID()), nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")

		var body struct {
			Booking      resdto.BookingResponse      `json:"booking"`
			Notification resdto.NotificationResponse `json:"notification"`
		}
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(created.ID(), body.Booking.ID)
		s.Equal("ok", body.Notification.Status)
		httptest.AssertHeaders(s.T(), rec, map[string]string{"Location": "/api/bookings/" + created.ID().String()})
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		cases := []struct {
			name   string
			mutate func(m map[string]any)
		}{
			{name: "missing start_time", mutate: testutil.Field("start_time", nil)},
			{name: "missing duration", mutate: testutil.Field("duration_minutes", nil)},
			{name: "duration too short", mutate: testutil.Field("duration_minutes", 4)},
			{name: "duration too long", mutate: testutil.Field("duration_minutes", 481)},
			{name: "start not a time", mutate: testutil.Field("start_time", "tomorrow")},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				body := testutil.DtoMap(s.T(), reqBody, tc.mutate)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
			})
		}
	})

	s.Run("error: 400 for a start in the past", func() {
		s.mockCommands.EXPECT().Create(gomock.Any(), s.userID, gomock.Any()).
			Return(nil, booking.ErrStartNotInFuture).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "start time must be in the future")
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})
}

// ================================================================================
// TestGet / TestList
// ================================================================================

func (s *BookingHandlerTestSuite) TestGet() {
	id := uuid.New()
	url := "/bookings/" + id.String()

	s.Run("success: returns the session with its pending proposal", func() {
		v := s.view(id)
		s.mockQueries.EXPECT().Get(gomock.Any(), id, s.userID).Return(v, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")

		var body resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		want := resdto.BookingResponse{
			ID:               id,
			HostID:           s.userID,
			Start:            v.Start,
			End:              v.End,
			DurationMinutes:  45,
			RevisionSequence: 2,
			Stage:            "booked",
			PendingProposal: &resdto.ProposalResponse{
				ID:            v.PendingProposal.ID,
				ProposedBy:    "counterparty",
				ProposerEmail: "guest@example.com",
				Start:         v.PendingProposal.Start,
				End:           v.PendingProposal.End,
				Note:          v.PendingProposal.Note,
			},
		}
		if diff := cmp.Diff(want, body); diff != "" {
			s.Failf("response mismatch", "(-want +got):\n%s", diff)
		}
	})

	s.Run("error: 400 Bad Request for invalid UUID", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/invalid-uuid", nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid id")
	})

	s.Run("error: 404 Not Found for sessions of other people", func() {
		s.mockQueries.EXPECT().Get(gomock.Any(), id, s.userID).Return(nil, queries.ErrNotVisible).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Not found")
	})
}

func (s *BookingHandlerTestSuite) TestList() {
	s.Run("success: passes the limit through", func() {
		v := s.view(uuid.New())
		s.mockQueries.EXPECT().ListMine(gomock.Any(), s.userID, 5).Return([]queries.BookingView{*v}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings?limit=5", nil, "bearer-token")

		var body struct {
			Bookings []resdto.BookingResponse `json:"bookings"`
		}
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Require().Len(body.Bookings, 1)
		s.Equal(v.ID, body.Bookings[0].ID)
	})

	s.Run("success: default limit", func() {
		s.mockQueries.EXPECT().ListMine(gomock.Any(), s.userID, queries.DefaultListLimit).Return(nil, nil).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings?limit=abc", nil, "bearer-token")
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"bookings":[]}`, rec.Body.String())
	})
}

// ================================================================================
// TestUpdate
// ================================================================================

func (s *BookingHandlerTestSuite) TestUpdate() {
	id := uuid.New()
	url := "/bookings/" + id.String()

	s.Run("success: book=true books the caller as guest", func() {
		s.mockCommands.EXPECT().Update(gomock.Any(), id, s.userID, booking.Patch{GuestID: &s.userID}).
			Return(&commands.BookingResult{Notification: commands.NotifyOK{}}, nil).Times(1)
		s.mockQueries.EXPECT().Get(gomock.Any(), id, s.userID).Return(s.view(id), nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{"book": true}, "bearer-token")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("success: duration change", func() {
		minutes := 60
		s.mockCommands.EXPECT().Update(gomock.Any(), id, s.userID, booking.Patch{DurationMinutes: &minutes}).
			Return(&commands.BookingResult{Notification: commands.NotifyFailed{}}, nil).Times(1)
		s.mockQueries.EXPECT().Get(gomock.Any(), id, s.userID).Return(s.view(id), nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{"duration_minutes": 60}, "bearer-token")

		var body struct {
			Notification resdto.NotificationResponse `json:"notification"`
		}
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("failed", body.Notification.Status)
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		cases := []errorCase{
			{name: "guest moves session", err: booking.ErrOnlyHostCanReschedule, expectedStatus: http.StatusForbidden, expectedMsg: "only the host"},
			{name: "already booked", err: booking.ErrAlreadyBooked, expectedStatus: http.StatusConflict, expectedMsg: "session changed"},
			{name: "empty patch", err: booking.ErrEmptyPatch, expectedStatus: http.StatusBadRequest, expectedMsg: "nothing to update"},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().Update(gomock.Any(), id, s.userID, gomock.Any()).Return(nil, tc.err).Times(1)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{}, "bearer-token")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

// ================================================================================
// TestCancel / TestReschedule
// ================================================================================

func (s *BookingHandlerTestSuite) TestCancel() {
	id := uuid.New()
	url := "/bookings/" + id.String()

	s.Run("success: returns ok with the notification outcome", func() {
		s.mockCommands.EXPECT().Cancel(gomock.Any(), id, s.userID).
			Return(&commands.BookingResult{Notification: commands.NotifyOK{}}, nil).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "bearer-token")
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"ok":true,"notification":{"status":"ok","deliveries":[]}}`, rec.Body.String())
	})

	s.Run("error: 403 for a guest", func() {
		s.mockCommands.EXPECT().Cancel(gomock.Any(), id, s.userID).Return(nil, commands.ErrOnlyHostCanCancel).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodDelete, url, nil, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "")
	})
}

func (s *BookingHandlerTestSuite) TestReschedule() {
	id := uuid.New()
	url := "/bookings/" + id.String() + "/reschedule"
	start, end := slotBody(time.Now())
	body := map[string]any{"proposedStartUtc": start, "proposedEndUtc": end}

	s.Run("success: proposes as the logged-in participant", func() {
		prior := uuid.New()
		s.mockReschedule.EXPECT().ProposeAsParticipant(gomock.Any(), id, s.userID, slotMatcher{start: start, end: end}).
			Return(&commands.ProposeResult{ProposalID: uuid.New(), NegotiationID: uuid.New(), Superseded: &prior}, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "bearer-token")

		var res resdto.ProposeResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &res)
		s.Require().NotNil(res.Superseded)
		s.Equal(prior, *res.Superseded)
	})

	s.Run("error: 403 for outsiders", func() {
		s.mockReschedule.EXPECT().ProposeAsParticipant(gomock.Any(), id, s.userID, gomock.Any()).
			Return(nil, booking.ErrNotParticipant).Times(1)
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "bearer-token")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusForbidden, "not a participant")
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})
}
