package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Arch-4ng3l/CalendarBridge/backend/config"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	abstractions "github.com/microsoft/kiota-abstractions-go"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testMicrosoftConfig() config.Config {
	return config.Config{
		MicrosoftClientID:     "ms-client",
		MicrosoftClientSecret: "ms-secret",
		MicrosoftRedirectURL:  "http://localhost:8080/microsoft/callback",
		MicrosoftTenantID:     "common",
	}
}

func graphODataError(status int, message string) error {
	oerr := odataerrors.NewODataError()
	oerr.ResponseStatusCode = status
	if message != "" {
		mainErr := odataerrors.NewMainError()
		mainErr.SetMessage(&message)
		oerr.SetErrorEscaped(mainErr)
	}
	return oerr
}

func createdGraphEvent(id, webLink, joinURL string) models.Eventable {
	ev := models.NewEvent()
	ev.SetId(&id)
	ev.SetWebLink(&webLink)
	if joinURL != "" {
		info := models.NewOnlineMeetingInfo()
		info.SetJoinUrl(&joinURL)
		ev.SetOnlineMeeting(info)
	}
	return ev
}

func TestMicrosoftAuthURL(t *testing.T) {
	m := NewMicrosoftCalendar(testMicrosoftConfig(), NewStatelessCallerSuppliedStore(Microsoft), nil)

	raw, err := m.AuthURL()
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "login.microsoftonline.com", u.Host)
	assert.Equal(t, "/common/oauth2/v2.0/authorize", u.Path)
	assert.Equal(t, "ms-client", q.Get("client_id"))
	assert.Equal(t, "openid offline_access User.Read Calendars.ReadWrite", q.Get("scope"))
	assert.Equal(t, "http://localhost:8080/microsoft/callback", q.Get("redirect_uri"))
}

func TestMicrosoftExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("code") {
		case "bad":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		case "down":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"temporarily_unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"ms-token","token_type":"Bearer","expires_in":3599}`))
	}))
	defer srv.Close()

	store := NewStatelessCallerSuppliedStore(Microsoft)
	m := NewMicrosoftCalendar(testMicrosoftConfig(), store, srv.Client())
	m.oauth.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token"}
	ctx := context.Background()

	_, err := m.ExchangeCode(ctx, "  ")
	assert.ErrorIs(t, err, ErrMissingCode)

	_, err = m.ExchangeCode(ctx, "bad")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.ExchangeCode(ctx, "down")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)

	cred, err := m.ExchangeCode(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "ms-token", cred.AccessToken)
	require.NotNil(t, cred.Expiry)
	assert.True(t, cred.Expiry.After(time.Now()))

	// Nothing is kept server-side.
	_, err = store.Load("")
	assert.ErrorIs(t, err, ErrMissingAccessToken)
}

func TestMicrosoftCreateEvent(t *testing.T) {
	m := NewMicrosoftCalendar(testMicrosoftConfig(), NewStatelessCallerSuppliedStore(Microsoft), nil)

	var gotToken string
	var gotEvent models.Eventable
	m.post = func(_ context.Context, cred *TokenCredential, event models.Eventable) (models.Eventable, error) {
		gotToken = cred.AccessToken
		gotEvent = event
		return createdGraphEvent("AAMk-1", "https://outlook.office365.com/owa/?itemid=AAMk-1", "https://teams.microsoft.com/l/meetup-join/1"), nil
	}

	event := sampleEvent()
	event.NeedMeetLink = true
	event.Participants = []string{"a@example.com"}

	result, err := m.CreateEvent(context.Background(), &TokenCredential{Provider: Microsoft, AccessToken: "caller-token"}, event)
	require.NoError(t, err)
	assert.Equal(t, "caller-token", gotToken)
	assert.Equal(t, "AAMk-1", result.EventID)
	assert.Equal(t, "https://outlook.office365.com/owa/?itemid=AAMk-1", result.EventLink)
	require.NotNil(t, result.MeetLink)
	assert.Equal(t, "https://teams.microsoft.com/l/meetup-join/1", *result.MeetLink)

	require.NotNil(t, gotEvent.GetIsOnlineMeeting())
	assert.True(t, *gotEvent.GetIsOnlineMeeting())
	assert.Len(t, gotEvent.GetAttendees(), 1)

	// A join URL the caller never asked for is not passed on.
	event.NeedMeetLink = false
	result, err = m.CreateEvent(context.Background(), &TokenCredential{Provider: Microsoft, AccessToken: "caller-token"}, event)
	require.NoError(t, err)
	assert.Nil(t, result.MeetLink)
}

// graphStandIn answers POST /v1.0/me/events the way Graph does, keyed on
// the bearer token.
func graphStandIn(t *testing.T, bodies chan<- map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1.0/me/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")

		switch strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ") {
		case "caller-token":
		case "expired":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"InvalidAuthenticationToken","message":"Lifetime validation failed, the token is expired."}}`))
			return
		case "denied":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":"ErrorAccessDenied","message":"Access is denied. Check credentials and try again."}}`))
			return
		default:
			t.Errorf("unexpected authorization %q", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies <- body

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id": "AAMkAGI2",
			"webLink": "https://outlook.office365.com/owa/?itemid=AAMkAGI2",
			"onlineMeeting": {"joinUrl": "https://teams.microsoft.com/l/meetup-join/19%3ameeting"}
		}`))
	})

	srv := httptest.NewTLSServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestMicrosoftCreateEventAgainstGraph(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	srv := graphStandIn(t, bodies)

	cfg := testMicrosoftConfig()
	cfg.MicrosoftGraphEndpoint = srv.URL + "/v1.0"
	m := NewMicrosoftCalendar(cfg, NewStatelessCallerSuppliedStore(Microsoft), srv.Client())
	ctx := context.Background()

	event := sampleEvent()
	event.NeedMeetLink = true
	event.Participants = []string{"a@example.com"}

	result, err := m.CreateEvent(ctx, &TokenCredential{Provider: Microsoft, AccessToken: "caller-token"}, event)
	require.NoError(t, err)
	assert.Equal(t, "AAMkAGI2", result.EventID)
	assert.Equal(t, "https://outlook.office365.com/owa/?itemid=AAMkAGI2", result.EventLink)
	require.NotNil(t, result.MeetLink)
	assert.Equal(t, "https://teams.microsoft.com/l/meetup-join/19%3ameeting", *result.MeetLink)

	body := <-bodies
	assert.Equal(t, "Planning", body["subject"])
	assert.Equal(t, true, body["isOnlineMeeting"])
	assert.Equal(t, "teamsForBusiness", body["onlineMeetingProvider"])
	start, ok := body["start"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2030-01-02T10:00:00", start["dateTime"])
	assert.Equal(t, microsoftTimeZone, start["timeZone"])
	attendees, ok := body["attendees"].([]any)
	require.True(t, ok)
	assert.Len(t, attendees, 1)

	tests := []struct {
		token   string
		kind    FailureKind
		status  int
		message string
	}{
		{"expired", Unauthorized, http.StatusUnauthorized, msgMicrosoftUnauthorized},
		{"denied", UpstreamRejected, http.StatusForbidden, "Access is denied. Check credentials and try again."},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			_, err := m.CreateEvent(ctx, &TokenCredential{Provider: Microsoft, AccessToken: tt.token}, sampleEvent())
			var perr *ProviderError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tt.kind, perr.Kind)
			assert.Equal(t, tt.status, perr.Status)
			assert.Equal(t, tt.message, perr.Message)
		})
	}
}

func TestMicrosoftCreateEventNoResult(t *testing.T) {
	m := NewMicrosoftCalendar(testMicrosoftConfig(), NewStatelessCallerSuppliedStore(Microsoft), nil)
	m.post = func(context.Context, *TokenCredential, models.Eventable) (models.Eventable, error) {
		return nil, nil
	}

	_, err := m.CreateEvent(context.Background(), &TokenCredential{AccessToken: "t"}, sampleEvent())
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, Unknown, perr.Kind)
}

func TestClassifyGraphError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    FailureKind
		status  int
		message string
	}{
		{
			name:    "expired token",
			err:     graphODataError(http.StatusUnauthorized, "Lifetime validation failed"),
			kind:    Unauthorized,
			status:  http.StatusUnauthorized,
			message: msgMicrosoftUnauthorized,
		},
		{
			name:    "rejected with message",
			err:     graphODataError(http.StatusForbidden, "Access is denied."),
			kind:    UpstreamRejected,
			status:  http.StatusForbidden,
			message: "Access is denied.",
		},
		{
			name:    "rejected without message",
			err:     graphODataError(http.StatusServiceUnavailable, ""),
			kind:    UpstreamRejected,
			status:  http.StatusServiceUnavailable,
			message: msgCreateEventFailed,
		},
		{
			name:    "kiota api error",
			err:     &abstractions.ApiError{ResponseStatusCode: http.StatusUnauthorized},
			kind:    Unauthorized,
			status:  http.StatusUnauthorized,
			message: msgMicrosoftUnauthorized,
		},
		{
			name:   "transport failure",
			err:    errors.New("dial tcp: connection refused"),
			kind:   Unknown,
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perr := classifyGraphError(tt.err)
			assert.Equal(t, Microsoft, perr.Provider)
			assert.Equal(t, tt.kind, perr.Kind)
			assert.Equal(t, tt.status, perr.Status)
			assert.Equal(t, tt.message, perr.Message)
			assert.ErrorIs(t, perr, tt.err)
		})
	}
}

func TestGraphCredential(t *testing.T) {
	ctx := context.Background()

	_, err := (&graphCredential{}).GetToken(ctx, policy.TokenRequestOptions{})
	assert.Error(t, err)

	tok, err := (&graphCredential{cred: &TokenCredential{AccessToken: "abc"}}).GetToken(ctx, policy.TokenRequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.Token)
	assert.True(t, tok.ExpiresOn.After(time.Now()))

	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	tok, err = (&graphCredential{cred: &TokenCredential{AccessToken: "abc", Expiry: &expiry}}).GetToken(ctx, policy.TokenRequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, expiry, tok.ExpiresOn)
}
