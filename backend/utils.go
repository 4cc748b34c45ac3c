package main

import (
	"github.com/google/uuid"
)

// conferenceRequestID returns a time-ordered id, unique per create call, used
// by Google to deduplicate conference creation.
func conferenceRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func newRequestID() string {
	return uuid.NewString()
}
