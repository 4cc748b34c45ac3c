package main

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	msgMissingFields   = "Missing required fields: title, description, location, startTime, endTime"
	msgInvalidDateTime = "Invalid datetime format for startTime or endTime"
	msgEndBeforeStart  = "endTime must be after startTime"
	msgStartInPast     = "startTime cannot be in the past"
	msgNotAnArray      = "participants must be an array of email addresses"
	msgInvalidEmail    = "Invalid email address in participants: "
	msgWrongType       = "needMeetLink must be a boolean"
)

type ValidationKind int

const (
	MissingFields ValidationKind = iota + 1
	InvalidFormat
	EndBeforeStart
	StartInPast
	NotAnArray
	InvalidEmail
	WrongType
)

type ValidationError struct {
	Kind ValidationKind
	// Fields holds the missing field names for MissingFields.
	Fields []string
	// Value holds the offending participant for InvalidEmail.
	Value string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case MissingFields:
		return msgMissingFields
	case InvalidFormat:
		return msgInvalidDateTime
	case EndBeforeStart:
		return msgEndBeforeStart
	case StartInPast:
		return msgStartInPast
	case NotAnArray:
		return msgNotAnArray
	case InvalidEmail:
		return msgInvalidEmail + e.Value
	case WrongType:
		return msgWrongType
	}
	return "invalid request"
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Offset-free layouts, read in the target provider's zone.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateEventRequest runs every check in a fixed order and reports the
// first violation only. loc is the provider's booking zone.
func ValidateEventRequest(req *EventRequest, now time.Time, loc *time.Location) (*Event, error) {
	if err := validateRequiredFields(req); err != nil {
		return nil, err
	}

	start, err := validateDateTime(req.StartTime, loc)
	if err != nil {
		return nil, err
	}
	end, err := validateDateTime(req.EndTime, loc)
	if err != nil {
		return nil, err
	}
	if err := validateTemporalOrder(start, end, now); err != nil {
		return nil, err
	}

	participants, err := validateParticipants(req.Participants)
	if err != nil {
		return nil, err
	}
	needMeetLink, err := validateFlag(req.NeedMeetLink)
	if err != nil {
		return nil, err
	}

	return &Event{
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		Start:        start,
		End:          end,
		Participants: participants,
		NeedMeetLink: needMeetLink,
	}, nil
}

func validateRequiredFields(req *EventRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate event request: %w", err)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{Kind: MissingFields, Fields: fields}
}

func validateDateTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ValidationError{Kind: InvalidFormat}
}

func validateTemporalOrder(start, end, now time.Time) error {
	if !end.After(start) {
		return &ValidationError{Kind: EndBeforeStart}
	}
	if start.Before(now) {
		return &ValidationError{Kind: StartInPast}
	}
	return nil
}

func validateParticipants(value any) ([]string, error) {
	if value == nil {
		return nil, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, &ValidationError{Kind: NotAnArray}
	}

	participants := make([]string, 0, len(items))
	for _, item := range items {
		email, ok := item.(string)
		if !ok || !emailPattern.MatchString(email) {
			return nil, &ValidationError{Kind: InvalidEmail, Value: fmt.Sprint(item)}
		}
		participants = append(participants, email)
	}
	return participants, nil
}

func validateFlag(value any) (bool, error) {
	if value == nil {
		return false, nil
	}
	flag, ok := value.(bool)
	if !ok {
		return false, &ValidationError{Kind: WrongType}
	}
	return flag, nil
}
