// Package identity talks to the admin API of the external identity provider
// that owns credentials. This service never sees passwords at rest; it only
// asks the provider to create or delete accounts.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// NewUser is the payload for creating an account.
type NewUser struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

type createRequest struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type errorResponse struct {
	Msg     string `json:"msg"`
	Message string `json:"message"`
	Error   string `json:"error_description"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Client is the identity provider admin client.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient builds a client against baseURL authenticated with the
// provider's service key.
func NewClient(baseURL, serviceKey string, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("apikey", serviceKey).
		SetAuthToken(serviceKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{httpClient: httpClient, logger: logger}
}

func asError(op string, resp *resty.Response) error {
	var body errorResponse
	if e, ok := resp.Error().(*errorResponse); ok && e != nil {
		body = *e
	}
	if msg := body.text(); msg != "" {
		return errors.New(msg)
	}
	return fmt.Errorf("%s: identity provider returned %s", op, resp.Status())
}

// CreateUser registers an already confirmed account and returns its id.
func (c *Client) CreateUser(ctx context.Context, u NewUser) (string, error) {
	meta := map[string]any{}
	if u.FullName != "" {
		meta["full_name"] = u.FullName
	}
	if u.Phone != "" {
		meta["phone"] = u.Phone
	}
	var out userResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(createRequest{Email: u.Email, Password: u.Password, EmailConfirm: true, UserMetadata: meta}).
		SetResult(&out).
		SetError(&errorResponse{}).
		Post("/admin/users")
	if err != nil {
		c.logger.Error("identity create user failed", zap.String("email", u.Email), zap.Error(err))
		return "", err
	}
	if resp.IsError() {
		return "", asError("create user", resp)
	}
	if out.ID == "" {
		return "", errors.New("create user: identity provider returned no id")
	}
	c.logger.Info("identity user created", zap.String("user_id", out.ID))
	return out.ID, nil
}

// DeleteUser removes an account. It cannot be undone.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("id", userID).
		SetError(&errorResponse{}).
		Delete("/admin/users/{id}")
	if err != nil {
		c.logger.Error("identity delete user failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	if resp.IsError() {
		return asError("delete user", resp)
	}
	c.logger.Info("identity user deleted", zap.String("user_id", userID))
	return nil
}
