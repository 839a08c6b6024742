//go:build e2e

package reschedule_test

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"practice-hub/internal/domain/user"
	"practice-hub/internal/pkg/cookie"
	"practice-hub/tests/common/authtest"
	"practice-hub/tests/common/dbtest"
	"practice-hub/tests/common/httptest"
	"practice-hub/tests/common/mailtest"
	"practice-hub/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	bookingsURL  = "/api/bookings"
	decideURL    = "/api/reschedule/decide"
	proposeURL   = "/api/reschedule/propose"
	decisionURL  = "/api/reschedule/decision?t="
	hostEmail    = "host@example.com"
	guestEmail   = "guest@example.com"
	timeFormat   = time.RFC3339
	sessionLenMn = 45
)

var (
	decisionLinkRe = regexp.MustCompile(`/decision\?t=(\S+)`)
	proposeLinkRe  = regexp.MustCompile(`/reschedule\?r=(\S+)`)
)

type RescheduleSuite struct {
	e2e.SharedSuite
}

func TestRescheduleSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(RescheduleSuite))
}

type session struct {
	id         string
	hostToken  string
	guestToken string
	start      time.Time
}

type bookingBody struct {
	Booking struct {
		ID               string    `json:"id"`
		Start            time.Time `json:"start_utc"`
		RevisionSequence int       `json:"revision_sequence"`
		Stage            string    `json:"stage"`
		PendingProposal  *struct {
			ID string `json:"id"`
		} `json:"pending_proposal"`
	} `json:"booking"`
}

// bookedSession creates a session as the host and books it as the guest.
func (s *RescheduleSuite) bookedSession() session {
	t := s.T()
	jwt := authtest.NewJWTHelper(s.Config.JWT)
	hostID := dbtest.CreateTestUser(t, s.DB, hostEmail, "Hana Host", string(user.RoleMember))
	guestID := dbtest.CreateTestUser(t, s.DB, guestEmail, "Gil Guest", string(user.RoleMember))
	sess := session{
		hostToken:  jwt.GenerateToken(t, hostID, user.RoleMember),
		guestToken: jwt.GenerateToken(t, guestID, user.RoleMember),
		start:      time.Now().UTC().Add(48 * time.Hour).Truncate(time.Minute),
	}

	w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
		map[string]any{"start_time": sess.start.Format(timeFormat), "duration_minutes": sessionLenMn}, sess.hostToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created bookingBody
	httptest.DecodeResponseBody(t, w.Body, &created)
	sess.id = created.Booking.ID
	require.Equal(t, "open", created.Booking.Stage)

	w = httptest.PerformRequest(t, s.Router, http.MethodPatch, bookingsURL+"/"+sess.id, map[string]any{"book": true}, sess.guestToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return sess
}

func (s *RescheduleSuite) lastLink(re *regexp.Regexp, recipient string) string {
	t := s.T()
	msgs := s.Mailer.SentTo(recipient)
	for i := len(msgs) - 1; i >= 0; i-- {
		if m := re.FindStringSubmatch(msgs[i].Text); m != nil {
			token, err := url.QueryUnescape(m[1])
			require.NoError(t, err)
			return token
		}
	}
	t.Fatalf("no link mailed to %s", recipient)
	return ""
}

func slot(start time.Time) map[string]any {
	return map[string]any{
		"proposedStartUtc": start.Format(timeFormat),
		"proposedEndUtc":   start.Add(sessionLenMn * time.Minute).Format(timeFormat),
	}
}

func with(m map[string]any, kv ...any) map[string]any {
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

// =============================================================================
// TestNegotiation - end-to-end reschedule flows
// =============================================================================

func (s *RescheduleSuite) TestNegotiation() {
	s.Run("Normal case: booking sends invites with propose links", func() {
		t := s.T()
		s.bookedSession()

		for _, to := range []string{hostEmail, guestEmail} {
			msgs := s.Mailer.SentTo(to)
			require.Len(t, msgs, 1, to)
			require.True(t, strings.HasPrefix(msgs[0].Subject, "Session scheduled"))
			require.Regexp(t, proposeLinkRe, msgs[0].Text)
			require.Len(t, msgs[0].Attachments, 1)
		}
		require.Equal(t, 2, dbtest.CountSends(t, s.DB, "sent"))
	})

	s.Run("Normal case: participant proposes and the host agrees", func() {
		t := s.T()
		sess := s.bookedSession()
		newStart := sess.start.Add(3 * time.Hour)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL+"/"+sess.id+"/reschedule",
			with(slot(newStart), "note", "dentist"), sess.guestToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		token := s.lastLink(decisionLinkRe, hostEmail)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, decisionURL+url.QueryEscape(token), nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var preview struct {
			ProposerEmail string    `json:"proposerEmail"`
			ProposedStart time.Time `json:"proposedStartUtc"`
			Note          string    `json:"note"`
			Actionable    bool      `json:"actionable"`
		}
		httptest.DecodeResponseBody(t, w.Body, &preview)
		require.True(t, preview.Actionable)
		require.Equal(t, guestEmail, preview.ProposerEmail)
		require.Equal(t, "dentist", preview.Note)
		require.True(t, newStart.Equal(preview.ProposedStart))

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, decideURL, map[string]any{"token": token, "action": "agree"}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var decided struct {
			Action       string `json:"action"`
			Notification struct {
				Status string `json:"status"`
			} `json:"notification"`
		}
		httptest.DecodeResponseBody(t, w.Body, &decided)
		require.Equal(t, "agree", decided.Action)
		require.Equal(t, "ok", decided.Notification.Status)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"/"+sess.id, nil, sess.guestToken)
		require.Equal(t, http.StatusOK, w.Code)
		var got bookingBody
		httptest.DecodeResponseBody(t, w.Body, &got.Booking)
		require.True(t, newStart.Equal(got.Booking.Start))
		require.Equal(t, 1, got.Booking.RevisionSequence)
		require.Nil(t, got.Booking.PendingProposal)

		// the link is single use
		w = httptest.PerformRequest(t, s.Router, http.MethodPost, decideURL, map[string]any{"token": token, "action": "agree"}, "")
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})

	s.Run("Normal case: propose link, counter proposal, then cancel", func() {
		t := s.T()
		sess := s.bookedSession()

		proposeToken := s.lastLink(proposeLinkRe, guestEmail)
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, proposeURL,
			with(slot(sess.start.Add(time.Hour)), "token", proposeToken), "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		hostDecision := s.lastLink(decisionLinkRe, hostEmail)
		w = httptest.PerformRequest(t, s.Router, http.MethodPost, decideURL,
			with(slot(sess.start.Add(2*time.Hour)), "token", hostDecision, "action", "propose"), "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		guestDecision := s.lastLink(decisionLinkRe, guestEmail)
		w = httptest.PerformRequest(t, s.Router, http.MethodPost, decideURL,
			map[string]any{"token": guestDecision, "action": "cancel"}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"/"+sess.id, nil, sess.hostToken)
		require.Equal(t, http.StatusNotFound, w.Code)

		for _, to := range []string{hostEmail, guestEmail} {
			msgs := s.Mailer.SentTo(to)
			require.True(t, strings.HasPrefix(msgs[len(msgs)-1].Subject, "Session cancelled"), to)
		}

		// the spent propose link cannot be replayed
		w = httptest.PerformRequest(t, s.Router, http.MethodPost, proposeURL,
			with(slot(sess.start.Add(time.Hour)), "token", proposeToken), "")
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})

	s.Run("Abnormal case: failed decision mail leaves the link usable", func() {
		t := s.T()
		sess := s.bookedSession()
		s.Mailer.FailFor(hostEmail, mailtest.ErrPermanent)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL+"/"+sess.id+"/reschedule",
			slot(sess.start.Add(time.Hour)), sess.guestToken)
		require.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"/"+sess.id, nil, sess.guestToken)
		var got bookingBody
		httptest.DecodeResponseBody(t, w.Body, &got.Booking)
		require.Nil(t, got.Booking.PendingProposal, "proposal was rolled back")

		s.Mailer.FailFor(hostEmail, nil)
		w = httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL+"/"+sess.id+"/reschedule",
			slot(sess.start.Add(time.Hour)), sess.guestToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})
}

// =============================================================================
// TestAccess - authentication on booking endpoints
// =============================================================================

func (s *RescheduleSuite) TestAccess() {
	s.Run("Normal case: session cookie is accepted", func() {
		t := s.T()
		sess := s.bookedSession()
		w := httptest.PerformRequestWithCookies(t, s.Router, http.MethodGet, bookingsURL, nil,
			[]*http.Cookie{{Name: cookie.AccessTokenCookieName, Value: sess.hostToken}}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.Contains(t, w.Body.String(), sess.id)
	})

	s.Run("Abnormal case: expired token is rejected", func() {
		t := s.T()
		token := authtest.NewJWTHelper(s.Config.JWT).CreateExpiredToken(t, uuid.New(), user.RoleMember)
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL, nil, token)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	s.Run("Abnormal case: outsiders cannot see or reschedule a session", func() {
		t := s.T()
		sess := s.bookedSession()
		outsiderID := dbtest.CreateTestUser(t, s.DB, "outsider@example.com", "Otto", string(user.RoleMember))
		token := authtest.NewJWTHelper(s.Config.JWT).GenerateToken(t, outsiderID, user.RoleMember)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"/"+sess.id, nil, token)
		require.Equal(t, http.StatusNotFound, w.Code)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL+"/"+sess.id+"/reschedule",
			slot(sess.start.Add(time.Hour)), token)
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})
}
