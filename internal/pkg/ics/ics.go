// Package ics renders single-event iCalendar invitations.
package ics

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"practice-hub/internal/pkg/errs"

	"github.com/emersion/go-ical"
)

const DefaultProductID = "-//Practice Hub//Sessions//EN"

var (
	ErrMissingUID       = errs.Mark(errs.New("ics: event uid is required"), errs.ErrInvalidInput)
	ErrInvalidTimeRange = errs.Mark(errs.New("ics: end must be after start"), errs.ErrInvalidInput)
	ErrNegativeSequence = errs.Mark(errs.New("ics: sequence must not be negative"), errs.ErrInvalidInput)
)

type Method string

const (
	MethodRequest Method = "REQUEST"
	MethodCancel  Method = "CANCEL"
)

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

type Person struct {
	Email string
	Name  string
}

type Params struct {
	UID         string
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
	Location    string
	Organizer   Person
	Attendees   []Person
	Method      Method
	// Status defaults to CONFIRMED, or CANCELLED for a CANCEL method.
	Status    Status
	Sequence  int
	ProductID string
	// Stamp is DTSTAMP; zero means the build time.
	Stamp time.Time
}

// Build renders params as a VCALENDAR with one VEVENT. Text values are escaped once.
func Build(p Params) (string, error) {
	if strings.TrimSpace(p.UID) == "" {
		return "", ErrMissingUID
	}
	if !p.End.After(p.Start) {
		return "", ErrInvalidTimeRange
	}
	if p.Sequence < 0 {
		return "", ErrNegativeSequence
	}

	method := p.Method
	if method == "" {
		method = MethodRequest
	}
	status := p.Status
	if status == "" {
		status = StatusConfirmed
		if method == MethodCancel {
			status = StatusCancelled
		}
	}
	productID := p.ProductID
	if productID == "" {
		productID = DefaultProductID
	}
	stamp := p.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, string(method))

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, p.UID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, p.Start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, p.End.UTC())
	event.Props.SetText(ical.PropSummary, p.Summary)
	if p.Description != "" {
		event.Props.SetText(ical.PropDescription, p.Description)
	}
	if p.Location != "" {
		event.Props.SetText(ical.PropLocation, p.Location)
	}
	event.Props.SetText(ical.PropStatus, string(status))

	seq := ical.NewProp(ical.PropSequence)
	seq.Value = strconv.Itoa(p.Sequence)
	event.Props.Set(seq)

	if p.Organizer.Email != "" {
		event.Props.Set(personProp(ical.PropOrganizer, p.Organizer))
	}
	for _, a := range p.Attendees {
		prop := personProp(ical.PropAttendee, a)
		prop.Params.Set(ical.ParamRole, "REQ-PARTICIPANT")
		prop.Params.Set(ical.ParamParticipationStatus, "NEEDS-ACTION")
		prop.Params.Set(ical.ParamRSVP, "TRUE")
		event.Props.Add(prop)
	}

	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", errs.Wrap(err, "encode calendar")
	}
	return buf.String(), nil
}

// ContentType is the MIME type of an attachment built with method m.
func ContentType(m Method) string {
	return "text/calendar; method=" + string(m) + "; charset=UTF-8"
}

func personProp(name string, p Person) *ical.Prop {
	prop := ical.NewProp(name)
	prop.Value = "mailto:" + p.Email
	if p.Name != "" {
		prop.Params.Set(ical.ParamCommonName, p.Name)
	}
	return prop
}
