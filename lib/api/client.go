// Package api is a typed client for the Buzdealz REST backend. Session
// credentials travel as cookies in the jar of the injected http.Client.
package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/carlmjohnson/requests"
	"github.com/fiffu/buzdealz/lib/models"
	"go.uber.org/zap"
)

type Client struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewClient(baseURL string, client *http.Client, log *zap.Logger) *Client {
	// requests resolves paths relative to the base, so it must end in a slash
	// or the last segment (e.g. "/api") would be replaced.
	baseURL = strings.TrimRight(baseURL, "/") + "/"
	return &Client{baseURL, client, log}
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Ack is the body of auth mutations.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type wishlistBody struct {
	DealID       string `json:"dealId"`
	AlertEnabled bool   `json:"alertEnabled"`
}

func (c *Client) request(path string) *requests.Builder {
	return requests.
		URL(c.baseURL).
		Path(path).
		Client(c.client).
		Accept("application/json")
}

// fetch runs rb and turns failures into *Error, keeping the server's
// message when the error body carries one.
func (c *Client) fetch(ctx context.Context, rb *requests.Builder) error {
	var (
		status int
		body   errorBody
	)
	err := rb.
		AddValidator(func(res *http.Response) error {
			status = res.StatusCode
			if err := requests.DefaultValidator(res); err != nil {
				_ = requests.ToJSON(&body)(res)
				return err
			}
			return nil
		}).
		Fetch(ctx)
	if err != nil {
		c.log.Debug("api call failed", zap.Int("status", status), zap.Error(err))
		return newError(err, status, body)
	}
	return nil
}

// Me returns the user of the current session, or ErrNoSession.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var resp envelope[*models.User]
	if err := c.fetch(ctx, c.request("auth/me").ToJSON(&resp)); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, ErrNoSession
	}
	return resp.Data, nil
}

func (c *Client) Login(ctx context.Context, creds Credentials) (*Ack, error) {
	var ack Ack
	err := c.fetch(ctx, c.request("auth/login").BodyJSON(creds).ToJSON(&ack))
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

func (c *Client) Register(ctx context.Context, creds Credentials) (*Ack, error) {
	var ack Ack
	err := c.fetch(ctx, c.request("auth/register").BodyJSON(creds).ToJSON(&ack))
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.fetch(ctx, c.request("auth/logout").Post())
}

func (c *Client) Deals(ctx context.Context) ([]models.Deal, error) {
	var resp envelope[[]models.RawDeal]
	if err := c.fetch(ctx, c.request("deals").ToJSON(&resp)); err != nil {
		return nil, err
	}

	deals := make([]models.Deal, len(resp.Data))
	for i, raw := range resp.Data {
		deals[i] = raw.Deal()
	}
	return deals, nil
}

func (c *Client) Wishlist(ctx context.Context) ([]models.WishlistItem, error) {
	var resp envelope[[]models.RawWishlistEntry]
	if err := c.fetch(ctx, c.request("wishlist").ToJSON(&resp)); err != nil {
		return nil, err
	}

	items := make([]models.WishlistItem, len(resp.Data))
	for i, raw := range resp.Data {
		items[i] = raw.Item()
	}
	return items, nil
}

func (c *Client) AddToWishlist(ctx context.Context, dealID string, alertEnabled bool) error {
	body := wishlistBody{DealID: dealID, AlertEnabled: alertEnabled}
	return c.fetch(ctx, c.request("wishlist").BodyJSON(body))
}

func (c *Client) RemoveFromWishlist(ctx context.Context, dealID string) error {
	return c.fetch(ctx, c.request("wishlist/"+url.PathEscape(dealID)).Delete())
}

// SetAlert upserts the wishlist entry with the desired alert state.
func (c *Client) SetAlert(ctx context.Context, dealID string, enabled bool) error {
	body := wishlistBody{DealID: dealID, AlertEnabled: enabled}
	return c.fetch(ctx, c.request("wishlist").BodyJSON(body))
}

func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := c.fetch(ctx, c.request("notifications").ToJSON(&notifications)); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (c *Client) MarkNotificationsRead(ctx context.Context) error {
	return c.fetch(ctx, c.request("notifications/read").Post())
}
