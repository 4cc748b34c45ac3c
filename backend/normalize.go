package main

import (
	"time"
	_ "time/tzdata"

	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"google.golang.org/api/calendar/v3"
)

// Timezones are fixed per provider and never derived from the request.
const (
	googleTimeZone    = "Asia/Ho_Chi_Minh"
	microsoftTimeZone = "Asia/Bangkok"

	googleMeetSolution = "hangoutsMeet"
	googleCalendarID   = "primary"

	// Graph wants a wall-clock time next to a separate zone name.
	graphDateTimeLayout = "2006-01-02T15:04:05"
)

var (
	googleLocation    = mustLoadLocation(googleTimeZone)
	microsoftLocation = mustLoadLocation(microsoftTimeZone)
)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// GooglePayload pairs the insert body with the query flag the Calendar API
// needs before it will act on ConferenceData.
type GooglePayload struct {
	Event                 *calendar.Event
	ConferenceDataVersion int64
}

func NormalizeGoogle(event *Event, requestID func() string) *GooglePayload {
	payload := &GooglePayload{
		Event: &calendar.Event{
			Summary:     event.Title,
			Description: event.Description,
			Location:    event.Location,
			Start: &calendar.EventDateTime{
				DateTime: event.Start.In(googleLocation).Format(time.RFC3339),
				TimeZone: googleTimeZone,
			},
			End: &calendar.EventDateTime{
				DateTime: event.End.In(googleLocation).Format(time.RFC3339),
				TimeZone: googleTimeZone,
			},
		},
	}

	for _, email := range event.Participants {
		payload.Event.Attendees = append(payload.Event.Attendees, &calendar.EventAttendee{Email: email})
	}

	if event.NeedMeetLink {
		payload.Event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: requestID(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: googleMeetSolution,
				},
			},
		}
		payload.ConferenceDataVersion = 1
	}
	return payload
}

func NormalizeMicrosoft(event *Event) models.Eventable {
	msEvent := models.NewEvent()
	msEvent.SetSubject(&event.Title)

	body := models.NewItemBody()
	contentType := models.TEXT_BODYTYPE
	body.SetContentType(&contentType)
	body.SetContent(&event.Description)
	msEvent.SetBody(body)

	location := models.NewLocation()
	location.SetDisplayName(&event.Location)
	msEvent.SetLocation(location)

	msEvent.SetStart(microsoftDateTime(event.Start))
	msEvent.SetEnd(microsoftDateTime(event.End))

	if len(event.Participants) > 0 {
		attendees := make([]models.Attendeeable, 0, len(event.Participants))
		for _, email := range event.Participants {
			attendees = append(attendees, microsoftAttendee(email))
		}
		msEvent.SetAttendees(attendees)
	}

	if event.NeedMeetLink {
		online := true
		provider := models.TEAMSFORBUSINESS_ONLINEMEETINGPROVIDERTYPE
		msEvent.SetIsOnlineMeeting(&online)
		msEvent.SetOnlineMeetingProvider(&provider)
	}
	return msEvent
}

func microsoftDateTime(t time.Time) models.DateTimeTimeZoneable {
	dt := models.NewDateTimeTimeZone()
	value := t.In(microsoftLocation).Format(graphDateTimeLayout)
	timeZone := microsoftTimeZone
	dt.SetDateTime(&value)
	dt.SetTimeZone(&timeZone)
	return dt
}

func microsoftAttendee(email string) models.Attendeeable {
	address := models.NewEmailAddress()
	address.SetAddress(&email)

	attendee := models.NewAttendee()
	attendee.SetEmailAddress(address)
	attendeeType := models.REQUIRED_ATTENDEETYPE
	attendee.SetTypeEscaped(&attendeeType)
	return attendee
}
