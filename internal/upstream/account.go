package upstream

import (
	"context"
	"net/http"
)

// Credentials is the login payload forwarded to the accounts service.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up payload forwarded to the accounts service.
type Registration struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ConfirmedPassword string `json:"confirmed_password"`
}

// AccountClient talks to the accounts service. It never interprets status codes; the
// gateway handlers decide what each one means.
type AccountClient struct {
	client
	registerURL string
	loginURL    string
}

func NewAccountClient(hc *http.Client, registerURL, loginURL string) *AccountClient {
	return &AccountClient{
		client:      client{http: hc, service: "accounts"},
		registerURL: registerURL,
		loginURL:    loginURL,
	}
}

func (a *AccountClient) Register(ctx context.Context, r Registration, requestID string) (*Response, error) {
	return a.postJSON(ctx, a.registerURL, r, requestID)
}

func (a *AccountClient) Login(ctx context.Context, c Credentials, requestID string) (*Response, error) {
	return a.postJSON(ctx, a.loginURL, c, requestID)
}
