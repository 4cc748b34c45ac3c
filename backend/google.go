package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Arch-4ng3l/CalendarBridge/backend/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const msgGoogleUnauthenticated = "Not authenticated with Google. Please visit /google/auth first"

type GoogleCalendar struct {
	oauth      *oauth2.Config
	store      CredentialStore
	httpClient *http.Client
	// endpoint overrides the Calendar API base URL when set.
	endpoint  string
	requestID func() string
}

func NewGoogleCalendar(cfg config.Config, store CredentialStore, httpClient *http.Client) *GoogleCalendar {
	return &GoogleCalendar{
		oauth: &oauth2.Config{
			RedirectURL:  cfg.GoogleRedirectURL,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Scopes:       []string{calendar.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		},
		store:      store,
		httpClient: httpClient,
		endpoint:   cfg.GoogleCalendarEndpoint,
		requestID:  conferenceRequestID,
	}
}

func (g *GoogleCalendar) Name() string                 { return Google }
func (g *GoogleCalendar) DisplayName() string          { return "Google" }
func (g *GoogleCalendar) Location() *time.Location     { return googleLocation }
func (g *GoogleCalendar) Credentials() CredentialStore { return g.store }

func (g *GoogleCalendar) AuthURL() (string, error) {
	if err := checkOAuthConfig(Google, g.oauth); err != nil {
		return "", err
	}
	return g.oauth.AuthCodeURL("", oauth2.AccessTypeOffline), nil
}

// ExchangeCode hands the new credential to the store; with the process
// store that replaces the token used by every later Google event call.
func (g *GoogleCalendar) ExchangeCode(ctx context.Context, code string) (*TokenCredential, error) {
	cred, err := exchangeCode(ctx, g.oauth, g.httpClient, Google, code)
	if err != nil {
		return nil, err
	}
	g.store.Save(cred)
	return cred, nil
}

func (g *GoogleCalendar) CreateEvent(ctx context.Context, cred *TokenCredential, event *Event) (*EventResult, error) {
	payload := NormalizeGoogle(event, g.requestID)

	client := g.oauth.Client(oauthContext(ctx, g.httpClient), cred.OAuth2Token())
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}

	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, &ProviderError{Provider: Google, Kind: Unknown, Status: http.StatusInternalServerError, Err: err}
	}

	created, err := srv.Events.
		Insert(googleCalendarID, payload.Event).
		ConferenceDataVersion(payload.ConferenceDataVersion).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyGoogleError(err)
	}

	return &EventResult{
		EventID:   created.Id,
		EventLink: created.HtmlLink,
		MeetLink:  meetLinkFor(event, googleMeetLink(created)),
	}, nil
}

func googleMeetLink(ev *calendar.Event) string {
	if ev.HangoutLink != "" {
		return ev.HangoutLink
	}
	if ev.ConferenceData == nil {
		return ""
	}
	for _, entry := range ev.ConferenceData.EntryPoints {
		if entry.EntryPointType == "video" && entry.Uri != "" {
			return entry.Uri
		}
	}
	return ""
}

// classifyGoogleError keeps the Calendar API's status and message for 4xx
// rejections; server-side failures collapse to a generic create failure.
func classifyGoogleError(err error) *ProviderError {
	// A refresh attempt rejected by the token endpoint means the token is gone.
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &ProviderError{Provider: Google, Kind: Unauthorized, Status: http.StatusUnauthorized, Message: msgGoogleUnauthenticated, Err: err}
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return &ProviderError{Provider: Google, Kind: Unknown, Status: http.StatusInternalServerError, Err: err}
	}
	switch {
	case apiErr.Code == http.StatusUnauthorized:
		return &ProviderError{Provider: Google, Kind: Unauthorized, Status: http.StatusUnauthorized, Message: msgGoogleUnauthenticated, Err: err}
	case apiErr.Code >= 400 && apiErr.Code < 500:
		message := apiErr.Message
		if message == "" {
			message = msgCreateEventFailed
		}
		return &ProviderError{Provider: Google, Kind: UpstreamRejected, Status: apiErr.Code, Message: message, Err: err}
	}
	return &ProviderError{Provider: Google, Kind: Unknown, Status: http.StatusInternalServerError, Err: err}
}
