package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Arch-4ng3l/CalendarBridge/backend/config"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/coreos/go-oidc"
	abstractions "github.com/microsoft/kiota-abstractions-go"
	azauth "github.com/microsoft/kiota-authentication-azure-go"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const (
	msgMicrosoftUnauthorized = "Access token expired or invalid. Please re-authenticate via /microsoft/auth"
	msgCreateEventFailed     = "Failed to create event"
)

var graphScopes = []string{"User.Read", "Calendars.ReadWrite"}

// graphCredential exposes a caller-supplied token to the Graph SDK.
type graphCredential struct {
	cred *TokenCredential
}

func (g *graphCredential) GetToken(ctx context.Context, options policy.TokenRequestOptions) (azcore.AccessToken, error) {
	if g.cred == nil || g.cred.AccessToken == "" {
		return azcore.AccessToken{}, fmt.Errorf("token not valid")
	}
	expiresOn := time.Now().Add(time.Hour)
	if g.cred.Expiry != nil {
		expiresOn = *g.cred.Expiry
	}
	return azcore.AccessToken{
		Token:     g.cred.AccessToken,
		ExpiresOn: expiresOn,
	}, nil
}

type graphEventPoster func(ctx context.Context, cred *TokenCredential, event models.Eventable) (models.Eventable, error)

type MicrosoftCalendar struct {
	oauth      *oauth2.Config
	store      CredentialStore
	httpClient *http.Client
	// graphURL is the Graph API base, version segment included.
	graphURL string
	post     graphEventPoster
}

func NewMicrosoftCalendar(cfg config.Config, store CredentialStore, httpClient *http.Client) *MicrosoftCalendar {
	graphURL := cfg.MicrosoftGraphEndpoint
	if graphURL == "" {
		graphURL = config.DefaultGraphEndpoint
	}
	m := &MicrosoftCalendar{
		oauth: &oauth2.Config{
			RedirectURL:  cfg.MicrosoftRedirectURL,
			ClientID:     cfg.MicrosoftClientID,
			ClientSecret: cfg.MicrosoftClientSecret,
			Scopes: append([]string{
				oidc.ScopeOpenID,
				oidc.ScopeOfflineAccess,
			}, graphScopes...),
			Endpoint: microsoft.AzureADEndpoint(cfg.MicrosoftTenantID),
		},
		store:      store,
		httpClient: httpClient,
		graphURL:   graphURL,
	}
	m.post = m.postGraphEvent
	return m
}

func (m *MicrosoftCalendar) Name() string                 { return Microsoft }
func (m *MicrosoftCalendar) DisplayName() string          { return "Microsoft" }
func (m *MicrosoftCalendar) Location() *time.Location     { return microsoftLocation }
func (m *MicrosoftCalendar) Credentials() CredentialStore { return m.store }

func (m *MicrosoftCalendar) AuthURL() (string, error) {
	if err := checkOAuthConfig(Microsoft, m.oauth); err != nil {
		return "", err
	}
	return m.oauth.AuthCodeURL(""), nil
}

func (m *MicrosoftCalendar) ExchangeCode(ctx context.Context, code string) (*TokenCredential, error) {
	cred, err := exchangeCode(ctx, m.oauth, m.httpClient, Microsoft, code)
	if err != nil {
		return nil, err
	}
	m.store.Save(cred)
	return cred, nil
}

func (m *MicrosoftCalendar) CreateEvent(ctx context.Context, cred *TokenCredential, event *Event) (*EventResult, error) {
	created, err := m.post(ctx, cred, NormalizeMicrosoft(event))
	if err != nil {
		return nil, classifyGraphError(err)
	}
	if created == nil {
		return nil, &ProviderError{Provider: Microsoft, Kind: Unknown, Status: http.StatusInternalServerError, Err: errors.New("graph returned no event")}
	}

	var joinURL string
	if meeting := created.GetOnlineMeeting(); meeting != nil {
		joinURL = deref(meeting.GetJoinUrl())
	}
	return &EventResult{
		EventID:   deref(created.GetId()),
		EventLink: deref(created.GetWebLink()),
		MeetLink:  meetLinkFor(event, joinURL),
	}, nil
}

// postGraphEvent builds a Graph client for one caller token. Requests go
// through the shared outbound client, so they are traced like the token
// exchange and carry no retry middleware.
func (m *MicrosoftCalendar) postGraphEvent(ctx context.Context, cred *TokenCredential, event models.Eventable) (models.Eventable, error) {
	base, err := url.Parse(m.graphURL)
	if err != nil {
		return nil, fmt.Errorf("graph endpoint: %w", err)
	}

	auth, err := azauth.NewAzureIdentityAuthenticationProviderWithScopesAndValidHosts(
		&graphCredential{cred: cred}, graphScopes, []string{base.Hostname()})
	if err != nil {
		return nil, fmt.Errorf("graph auth provider: %w", err)
	}

	adapter, err := msgraphsdk.NewGraphRequestAdapterWithParseNodeFactoryAndSerializationWriterFactoryAndHttpClient(auth, nil, nil, m.httpClient)
	if err != nil {
		return nil, fmt.Errorf("graph request adapter: %w", err)
	}
	adapter.SetBaseUrl(m.graphURL)

	return msgraphsdk.NewGraphServiceClient(adapter).Me().Events().Post(ctx, event, nil)
}

// classifyGraphError separates an expired token from other Graph rejections,
// keeping the Graph status and message when there is one.
func classifyGraphError(err error) *ProviderError {
	status, message := 0, ""

	var odataErr *odataerrors.ODataError
	var apiErr *abstractions.ApiError
	switch {
	case errors.As(err, &odataErr):
		status = odataErr.ResponseStatusCode
		if mainErr := odataErr.GetErrorEscaped(); mainErr != nil {
			message = deref(mainErr.GetMessage())
		}
	case errors.As(err, &apiErr):
		status = apiErr.ResponseStatusCode
	}

	switch {
	case status == http.StatusUnauthorized:
		return &ProviderError{Provider: Microsoft, Kind: Unauthorized, Status: status, Message: msgMicrosoftUnauthorized, Err: err}
	case status >= 400:
		if message == "" {
			message = msgCreateEventFailed
		}
		return &ProviderError{Provider: Microsoft, Kind: UpstreamRejected, Status: status, Message: message, Err: err}
	}
	return &ProviderError{Provider: Microsoft, Kind: Unknown, Status: http.StatusInternalServerError, Err: err}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
