package main

import (
	"context"
	"time"
)

// EventRequest is the provider-neutral body accepted by every create-event
// route. Participants and NeedMeetLink stay untyped until validation so that
// a wrong JSON type is reported with its own message.
type EventRequest struct {
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description" validate:"required"`
	Location     string `json:"location" validate:"required"`
	StartTime    string `json:"startTime" validate:"required"`
	EndTime      string `json:"endTime" validate:"required"`
	Participants any    `json:"participants"`
	NeedMeetLink any    `json:"needMeetLink"`
	AccessToken  string `json:"accessToken"`
}

// Event is an EventRequest that passed validation. Start and End are the
// instants that were checked; payloads are formatted from them, never from
// the raw request strings.
type Event struct {
	Title        string
	Description  string
	Location     string
	Start        time.Time
	End          time.Time
	Participants []string
	NeedMeetLink bool
}

type EventResult struct {
	EventID   string  `json:"eventId"`
	EventLink string  `json:"eventLink"`
	MeetLink  *string `json:"meetLink"`
}

type CalendarProvider interface {
	Name() string
	DisplayName() string
	// Location is the zone the provider books events in; datetimes sent
	// without an offset are read in it.
	Location() *time.Location
	Credentials() CredentialStore
	AuthURL() (string, error)
	ExchangeCode(ctx context.Context, code string) (*TokenCredential, error)
	CreateEvent(ctx context.Context, cred *TokenCredential, event *Event) (*EventResult, error)
}

// meetLinkFor drops a conferencing link the caller never asked for.
func meetLinkFor(event *Event, link string) *string {
	if !event.NeedMeetLink || link == "" {
		return nil
	}
	return &link
}
