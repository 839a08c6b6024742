package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"practice-hub/internal/domain/booking"
	"practice-hub/internal/domain/negotiation"
	"practice-hub/internal/domain/user"
	"practice-hub/internal/pkg/captoken"
	"practice-hub/internal/pkg/clock"
	"practice-hub/internal/pkg/config"
	"practice-hub/internal/pkg/errs"
	"practice-hub/internal/pkg/ics"
	"practice-hub/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	KindDecisionLink  = "decision_link"
	KindInviteRequest = "invite_request"
	KindInviteCancel  = "invite_cancel"

	inviteFilename = "invite.ics"
	methodDecide   = "DECIDE"
	timeLayout     = "Mon, 02 Jan 2006 15:04 MST"
)

// Participants are the contacts of a booked session.
type Participants struct {
	Host  *user.Contact
	Guest *user.Contact
}

func (p Participants) All() []*user.Contact {
	out := []*user.Contact{p.Host}
	if p.Guest != nil {
		out = append(out, p.Guest)
	}
	return out
}

// ByEmail finds the participant holding an address.
func (p Participants) ByEmail(email string) (*user.Contact, bool) {
	for _, c := range p.All() {
		if c.Email().Matches(email) {
			return c, true
		}
	}
	return nil, false
}

func (p Participants) Other(c *user.Contact) *user.Contact {
	if p.Guest != nil && c.ID() == p.Host.ID() {
		return p.Guest
	}
	return p.Host
}

func loadParticipants(ctx context.Context, tx shared.Tx, b *booking.Booking) (Participants, error) {
	host, err := tx.Users().Contact(ctx, tx.DB(), b.HostID())
	if err != nil {
		return Participants{}, err
	}
	p := Participants{Host: host}
	if b.GuestID() != nil {
		guest, err := tx.Users().Contact(ctx, tx.DB(), *b.GuestID())
		if err != nil {
			return Participants{}, err
		}
		p.Guest = guest
	}
	return p, nil
}

// InviteComposer renders the emails of the negotiation. It has no side effects.
type InviteComposer struct {
	links    config.LinkConfig
	calendar config.CalendarConfig
	clock    clock.Clock
}

func NewInviteComposer(cfg config.Config, clk clock.Clock) *InviteComposer {
	return &InviteComposer{links: cfg.Links, calendar: cfg.Calendar, clock: clk}
}

func (c *InviteComposer) DecisionURL(token string) string {
	return c.frontend("/decision", "t", token)
}

func (c *InviteComposer) ProposeURL(token string) string {
	return c.frontend("/reschedule", "r", token)
}

func (c *InviteComposer) frontend(path, param, token string) string {
	return strings.TrimRight(c.links.FrontendBaseURL, "/") + path + "?" + param + "=" + url.QueryEscape(token)
}

type DecisionEmail struct {
	Token     string
	ExpiresAt time.Time
	Proposal  *negotiation.Proposal
	// Revision is the booking revision the proposal was made against.
	Revision  int
	Recipient *user.Contact
	Proposer  string
}

func (c *InviteComposer) DecisionLink(e DecisionEmail) Notification {
	p := e.Proposal
	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", e.Recipient.DisplayName())
	fmt.Fprintf(&body, "%s proposed a new time for your session:\n", e.Proposer)
	fmt.Fprintf(&body, "  %s - %s\n", p.Slot().Start().Format(timeLayout), p.Slot().End().Format(timeLayout))
	if p.Note() != nil {
		fmt.Fprintf(&body, "\nNote: %s\n", *p.Note())
	}
	fmt.Fprintf(&body, "\nAgree, cancel or suggest another time:\n%s\n", c.DecisionURL(e.Token))
	fmt.Fprintf(&body, "\nThis link can be used once and expires %s.\n", e.ExpiresAt.Format(timeLayout))

	correlation := p.NegotiationID().String() + "/" + p.ID().String()
	return Notification{
		IdempotencyKey: IdempotencyKey(correlation, e.Revision, e.Recipient.Email().Value(), methodDecide),
		Kind:           KindDecisionLink,
		Message: shared.MailMessage{
			To:      e.Recipient.Email().Value(),
			Subject: "New time proposed for your session",
			Text:    body.String(),
		},
	}
}

type CalendarEmail struct {
	Booking   *booking.Booking
	Recipient *user.Contact
	// Participants only feed the description; the ICS lists the recipient alone.
	Participants []*user.Contact
	Method       ics.Method
	Correlation string
	// ProposeURL is included in REQUEST mail when set.
	ProposeURL string
}

func (c *InviteComposer) CalendarInvite(e CalendarEmail) (Notification, error) {
	b := e.Booking
	attendee := ics.Person{Email: e.Recipient.Email().Value(), Name: e.Recipient.DisplayName()}

	var desc strings.Builder
	fmt.Fprintf(&desc, "%s with %s.", c.calendar.EventSummary, names(e.Participants))
	if e.ProposeURL != "" {
		fmt.Fprintf(&desc, "\nNeed another time? %s", e.ProposeURL)
	}

	body, err := ics.Build(ics.Params{
		UID:         b.CalendarUID(),
		Start:       b.Start(),
		End:         b.End(),
		Summary:     c.calendar.EventSummary,
		Description: desc.String(),
		Organizer:   ics.Person{Email: c.calendar.OrganizerEmail, Name: c.calendar.OrganizerName},
		Attendees:   []ics.Person{attendee},
		Method:      e.Method,
		Sequence:    b.RevisionSequence(),
		ProductID:   c.calendar.ProductID,
		Stamp:       c.clock.Now(),
	})
	if err != nil {
		return Notification{}, err
	}

	kind := KindInviteRequest
	subject := fmt.Sprintf("Session scheduled: %s", b.Start().Format(timeLayout))
	text := fmt.Sprintf("Hi %s,\n\nYour session is set for %s - %s. The calendar invite is attached.\n",
		e.Recipient.DisplayName(), b.Start().Format(timeLayout), b.End().Format(timeLayout))
	if e.ProposeURL != "" {
		text += fmt.Sprintf("\nNeed another time? Propose one here:\n%s\n", e.ProposeURL)
	}
	if e.Method == ics.MethodCancel {
		kind = KindInviteCancel
		subject = fmt.Sprintf("Session cancelled: %s", b.Start().Format(timeLayout))
		text = fmt.Sprintf("Hi %s,\n\nYour session on %s has been cancelled.\n",
			e.Recipient.DisplayName(), b.Start().Format(timeLayout))
	}

	recipient := e.Recipient.Email().Value()
	return Notification{
		IdempotencyKey: IdempotencyKey(e.Correlation, b.RevisionSequence(), recipient, string(e.Method)),
		Kind:           kind,
		Message: shared.MailMessage{
			To:      recipient,
			Subject: subject,
			Text:    text,
			Attachments: []shared.Attachment{{
				Filename:    inviteFilename,
				ContentType: ics.ContentType(e.Method),
				Content:     []byte(body),
			}},
		},
	}, nil
}

func names(cs []*user.Contact) string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.DisplayName())
	}
	return strings.Join(out, " and ")
}

// CalendarNotifier sends the calendar invite of a committed booking state to
// each attendee. REQUEST mail carries a propose link per recipient, issued
// only once the send is claimed.
type CalendarNotifier struct {
	uow        shared.UnitOfWork
	tokens     *TokenService
	composer   *InviteComposer
	dispatcher *NotificationDispatcher
	links      config.LinkConfig
}

func NewCalendarNotifier(
	uow shared.UnitOfWork,
	tokens *TokenService,
	composer *InviteComposer,
	dispatcher *NotificationDispatcher,
	cfg config.Config,
) *CalendarNotifier {
	return &CalendarNotifier{
		uow:        uow,
		tokens:     tokens,
		composer:   composer,
		dispatcher: dispatcher,
		links:      cfg.Links,
	}
}

// Notify never fails the caller. Problems are reported in the NotifyResult.
func (n *CalendarNotifier) Notify(ctx context.Context, b *booking.Booking, people Participants, method ics.Method, correlation string) NotifyResult {
	participants := people.All()
	var batch []Notification
	var failures []FailedDelivery
	negotiationID := uuid.New()

	for _, recipient := range participants {
		email := CalendarEmail{
			Booking:      b,
			Recipient:    recipient,
			Participants: participants,
			Method:       method,
			Correlation:  correlation,
		}
		msg, err := n.composer.CalendarInvite(email)
		if err != nil {
			failures = append(failures, FailedDelivery{Recipient: recipient.Email().Value(), Err: err})
			continue
		}
		if method == ics.MethodRequest && people.Guest != nil {
			msg.Prepare = n.withProposeLink(b, negotiationID, email)
		}
		batch = append(batch, msg)
	}

	result := n.dispatcher.DeliverAll(ctx, batch)
	if len(failures) > 0 {
		merged := NotifyFailed{Failures: failures}
		switch r := result.(type) {
		case NotifyOK:
			merged.Deliveries = r.Deliveries
		case NotifyFailed:
			merged.Deliveries = r.Deliveries
			merged.Failures = append(merged.Failures, r.Failures...)
		}
		result = merged
	}
	if failed, ok := result.(NotifyFailed); ok {
		for _, f := range failed.Failures {
			slog.Error("calendar notification failed",
				"booking_id", b.ID(),
				"method", method,
				"recipient", f.Recipient,
				"error", f.Err.Error())
		}
	}
	return result
}

// withProposeLink re-renders the invite with a freshly issued propose link.
// A link that cannot be issued leaves the invite without one.
func (n *CalendarNotifier) withProposeLink(b *booking.Booking, negotiationID uuid.UUID, email CalendarEmail) func(context.Context) (shared.MailMessage, error) {
	return func(ctx context.Context) (shared.MailMessage, error) {
		link, err := n.proposeLink(ctx, b, negotiationID, email.Recipient)
		if err != nil {
			slog.Warn("failed to issue propose link", "booking_id", b.ID(), "error", err.Error())
		} else {
			email.ProposeURL = link
		}
		msg, err := n.composer.CalendarInvite(email)
		if err != nil {
			return shared.MailMessage{}, err
		}
		return msg.Message, nil
	}
}

func (n *CalendarNotifier) proposeLink(ctx context.Context, b *booking.Booking, negotiationID uuid.UUID, recipient *user.Contact) (string, error) {
	var issued *IssuedToken
	err := n.uow.WithDB(ctx, func(ctx context.Context, tx shared.Tx) error {
		t, err := n.tokens.Issue(ctx, tx, IssueParams{
			NegotiationID: negotiationID,
			BookingID:     b.ID(),
			ActorEmail:    recipient.Email().Value(),
			ActorRole:     negotiation.RoleInitiator,
			Purpose:       captoken.PurposePropose,
			TTL:           n.links.ProposeTTL,
		})
		if err != nil {
			return err
		}
		issued = t
		return nil
	})
	if err != nil {
		return "", errs.Wrap(err, "issue propose link")
	}
	return n.composer.ProposeURL(issued.Token), nil
}
