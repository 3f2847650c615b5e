package whop

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"app/internal/config"
	"app/internal/util"

	"github.com/rs/zerolog"
)

// UserTokenHeader is the header the Whop iframe bridge attaches to requests
// made from inside an embedded app.
const UserTokenHeader = "x-whop-user-token"

// AccessLevel is the caller's relationship to a company or experience.
type AccessLevel string

const (
	AccessAdmin    AccessLevel = "admin"
	AccessCustomer AccessLevel = "customer"
	AccessNone     AccessLevel = "no_access"
)

// ErrTokenInvalid is returned when a user token is missing, malformed or
// fails verification.
var ErrTokenInvalid = errors.New("invalid user token")

// AccessResult is the outcome of an access check.
type AccessResult struct {
	HasAccess   bool        `json:"has_access"`
	AccessLevel AccessLevel `json:"access_level"`
}

// Client talks to the Whop platform API. Token verification is local (JWT
// against the app's key material); access checks and push notifications go
// over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	appID      string
	jwtKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a Whop API client from config.
func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.WhopAPIBaseURL, "/"),
		apiKey:     cfg.WhopAPIKey,
		appID:      cfg.WhopAppID,
		jwtKey:     cfg.WhopJWTPublicKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With().Str("service", "WhopClient").Logger(),
	}
}

// VerifyUserToken extracts and verifies the user token from request headers,
// returning the caller's Whop user id.
func (c *Client) VerifyUserToken(header http.Header) (string, error) {
	tokenString := header.Get(UserTokenHeader)
	if tokenString == "" {
		return "", fmt.Errorf("%w: missing %s header", ErrTokenInvalid, UserTokenHeader)
	}
	claims, err := util.ValidateJWT(tokenString, c.jwtKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrTokenInvalid)
	}
	return claims.Subject, nil
}

// CheckCompanyAccess resolves the user's access level to a company.
func (c *Client) CheckCompanyAccess(ctx context.Context, userID, companyID string) (*AccessResult, error) {
	return c.checkAccess(ctx, userID, companyID)
}

// CheckExperienceAccess resolves the user's access level to an experience.
func (c *Client) CheckExperienceAccess(ctx context.Context, userID, experienceID string) (*AccessResult, error) {
	return c.checkAccess(ctx, userID, experienceID)
}

func (c *Client) checkAccess(ctx context.Context, userID, resourceID string) (*AccessResult, error) {
	endpoint := fmt.Sprintf("%s/app/users/%s/access/%s", c.baseURL, url.PathEscape(userID), url.PathEscape(resourceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building access check request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("access check for user %s on %s: %w", userID, resourceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &AccessResult{HasAccess: false, AccessLevel: AccessNone}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("access check for user %s on %s: status %d: %s", userID, resourceID, resp.StatusCode, string(body))
	}

	var result AccessResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding access check response: %w", err)
	}
	return &result, nil
}

// PushNotification is a fire-and-forget push to every member of an experience.
type PushNotification struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	ExperienceID string `json:"experience_id"`
	SenderUserID string `json:"sender_user_id,omitempty"`
	RestPath     string `json:"rest_path,omitempty"`
	IsMention    bool   `json:"is_mention"`
}

// SendPushNotification delivers a push notification to an experience
// audience. Failures are surfaced to the caller but must never fail the
// operation that triggered the notification.
func (c *Client) SendPushNotification(ctx context.Context, n PushNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding push notification: %w", err)
	}

	endpoint := c.baseURL + "/app/notifications"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building push notification request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending push notification to experience %s: %w", n.ExperienceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("push notification to experience %s: status %d: %s", n.ExperienceID, resp.StatusCode, string(body))
	}
	return nil
}
