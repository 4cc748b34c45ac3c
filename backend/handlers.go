package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidBody        = "Invalid request body"
	msgMissingCode        = "Missing or invalid authorization code"
	msgInvalidCredentials = "Invalid authorization code or credentials"
	msgAuthFailed         = "Authentication failed"
	msgAuthURLFailed      = "Failed to generate auth URL"
	msgInternal           = "Internal server error"
	msgEventCreated       = "Event created successfully"
	msgWelcome            = "Welcome to the Calendar Bridge"
)

type Server struct {
	logger    *slog.Logger
	providers []CalendarProvider
	now       func() time.Time
}

func NewServer(logger *slog.Logger, providers ...CalendarProvider) *Server {
	return &Server{logger: logger, providers: providers, now: time.Now}
}

// Router registers the same three routes for every provider, keyed by the
// provider's name.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(s.logger), recovery(s.logger))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, msgWelcome)
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	for _, p := range s.providers {
		group := r.Group("/" + p.Name())
		group.GET("/auth", s.Auth(p))
		group.GET("/callback", s.Callback(p))
		group.POST("/create-event", s.CreateEvent(p))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return r
}

func (s *Server) Auth(p CalendarProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		url, err := p.AuthURL()
		if err != nil {
			s.logFailure(c, "auth url", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgAuthURLFailed})
			return
		}
		c.Redirect(http.StatusFound, url)
	}
}

func (s *Server) Callback(p CalendarProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		// A repeated code parameter is as unusable as a missing one.
		var code string
		if codes := c.QueryArray("code"); len(codes) == 1 {
			code = codes[0]
		}

		cred, err := p.ExchangeCode(c.Request.Context(), code)
		switch {
		case errors.Is(err, ErrMissingCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": msgMissingCode})
			return
		case errors.Is(err, ErrInvalidCredentials):
			s.logger.Warn("code exchange rejected", "provider", p.Name(), "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidCredentials})
			return
		case err != nil:
			s.logFailure(c, "code exchange", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgAuthFailed})
			return
		}

		resp := gin.H{
			"message": fmt.Sprintf("Successfully authenticated with %s Calendar", p.DisplayName()),
		}
		if p.Credentials().CallerSupplied() {
			resp["accessToken"] = cred.AccessToken
			resp["expiresOn"] = cred.Expiry
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (s *Server) CreateEvent(p CalendarProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EventRequest
		// An empty body falls through to the missing-fields check.
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
			return
		}

		store := p.Credentials()
		if store.CallerSupplied() && req.AccessToken == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": missingTokenMessage(p)})
			return
		}

		event, err := ValidateEventRequest(&req, s.now(), p.Location())
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
				return
			}
			s.logFailure(c, "validation", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
			return
		}

		cred, err := store.Load(req.AccessToken)
		switch {
		case errors.Is(err, ErrNotAuthenticated):
			c.JSON(http.StatusUnauthorized, gin.H{"error": unauthenticatedMessage(p)})
			return
		case errors.Is(err, ErrMissingAccessToken):
			c.JSON(http.StatusUnauthorized, gin.H{"error": missingTokenMessage(p)})
			return
		case err != nil:
			s.logFailure(c, "load credential", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
			return
		}

		result, err := p.CreateEvent(c.Request.Context(), cred, event)
		if err != nil {
			status, message := s.providerFailure(c, err)
			c.JSON(status, gin.H{"error": message})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message":   msgEventCreated,
			"eventId":   result.EventID,
			"eventLink": result.EventLink,
			"meetLink":  result.MeetLink,
		})
	}
}

func (s *Server) providerFailure(c *gin.Context, err error) (int, string) {
	var perr *ProviderError
	if !errors.As(err, &perr) {
		s.logFailure(c, "create event", err)
		return http.StatusInternalServerError, msgCreateEventFailed
	}

	switch perr.Kind {
	case Unauthorized:
		s.logger.Warn("provider rejected token", "provider", perr.Provider, "error", perr.Err)
		return http.StatusUnauthorized, perr.Message
	case UpstreamRejected:
		s.logger.Warn("provider rejected event", "provider", perr.Provider, "status", perr.Status, "error", perr.Err)
		message := perr.Message
		if message == "" {
			message = msgCreateEventFailed
		}
		return perr.Status, message
	}
	s.logFailure(c, "create event", err)
	return http.StatusInternalServerError, msgCreateEventFailed
}

func (s *Server) logFailure(c *gin.Context, op string, err error) {
	s.logger.Error(op+" failed",
		"request_id", c.GetString(requestIDKey),
		"path", c.Request.URL.Path,
		"error", err,
	)
}

func unauthenticatedMessage(p CalendarProvider) string {
	return fmt.Sprintf("Not authenticated with %s. Please visit /%s/auth first", p.DisplayName(), p.Name())
}

func missingTokenMessage(p CalendarProvider) string {
	return fmt.Sprintf("Missing access token. Please authenticate via /%s/auth", p.Name())
}
