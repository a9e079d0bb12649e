package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/authgw/gateway/internal/config"
	"github.com/authgw/gateway/internal/models"
	"github.com/authgw/gateway/internal/sessions"
	"github.com/authgw/gateway/internal/upstream"
	"github.com/authgw/gateway/pkg/logger"
	"github.com/authgw/gateway/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// SignUpRequest is the body of POST /register.
type SignUpRequest struct {
	Email             string `json:"email" binding:"required,email"`
	Password          string `json:"password" binding:"required,password"`
	ConfirmedPassword string `json:"confirmed_password" binding:"required,eqfield=Password"`
}

// SignInRequest is the body of POST /login.
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AccountService is the upstream that owns credentials.
type AccountService interface {
	Register(ctx context.Context, r upstream.Registration, requestID string) (*upstream.Response, error)
	Login(ctx context.Context, c upstream.Credentials, requestID string) (*upstream.Response, error)
}

// Notifier sends verification codes.
type Notifier interface {
	SendCode(ctx context.Context, r upstream.CodeRequest, requestID string) error
}

// SessionService is the session lifecycle the handlers drive.
type SessionService interface {
	middleware.Authenticator
	Issue(ctx context.Context, subject models.Identity, fingerprint string) (*sessions.TokenPair, error)
	Rotate(ctx context.Context, refreshToken, fingerprint string) (*sessions.TokenPair, error)
	Revoke(ctx context.Context, userID, sessionID string) error
	RevokeAll(ctx context.Context, userID string) (int, error)
}

// AuthHandler holds dependencies
type AuthHandler struct {
	unverifiedStatus int
	accounts         AccountService
	notifier         Notifier
	sessions         SessionService
}

func NewAuthHandler(cfg *config.Config, accounts AccountService, notifier Notifier, s SessionService) *AuthHandler {
	registerValidators()
	return &AuthHandler{
		unverifiedStatus: cfg.Upstream.UnverifiedStatus,
		accounts:         accounts,
		notifier:         notifier,
		sessions:         s,
	}
}

// Register mounts the gateway routes on rg.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/register", h.SignUp)
	rg.POST("/login", h.Login)
	rg.POST("/refresh", h.Refresh)
	rg.POST("/logout", middleware.RefreshAuth(h.sessions), h.Logout)
	rg.POST("/logout_all", middleware.RefreshAuth(h.sessions), h.LogoutAll)
}

// SignUp forwards a registration to the accounts service. A created account gets a
// verification code and, when the accounts service returns its id, a first session.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}
	ctx := c.Request.Context()
	rid := middleware.GetRequestID(c)

	resp, err := h.accounts.Register(ctx, upstream.Registration{
		Email:             req.Email,
		Password:          req.Password,
		ConfirmedPassword: req.ConfirmedPassword,
	}, rid)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	if resp.Status != http.StatusCreated {
		passThrough(c, resp)
		return
	}

	h.sendVerificationCode(ctx, req.Email, rid)
	out := gin.H{"message": "A code was sent to your email", "data": rawBody(resp.Body)}

	if id, err := resp.Identity(); err == nil {
		if id.Email == "" {
			id.Email = req.Email
		}
		pair, err := h.sessions.Issue(ctx, id, c.GetHeader("User-Agent"))
		if err != nil {
			// The account exists either way; the client can still log in.
			logger.Errorf("register: session for user %s not issued: %v", id.ID, err)
		} else {
			out["access"] = pair.Access
			out["refresh"] = pair.Refresh
		}
	}
	c.JSON(http.StatusCreated, out)
}

// Login forwards credentials and opens a session on success. An unverified account gets a
// fresh verification code; every other answer is passed through untouched.
func (h *AuthHandler) Login(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}
	ctx := c.Request.Context()
	rid := middleware.GetRequestID(c)

	resp, err := h.accounts.Login(ctx, upstream.Credentials{Email: req.Email, Password: req.Password}, rid)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	switch resp.Status {
	case http.StatusOK:
		id, err := resp.Identity()
		if err != nil {
			logger.Errorf("login: unusable accounts response: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "invalid response from accounts service"})
			return
		}
		if id.Email == "" {
			id.Email = req.Email
		}
		pair, err := h.sessions.Issue(ctx, id, c.GetHeader("User-Agent"))
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, pair)
	case h.unverifiedStatus:
		h.sendVerificationCode(ctx, req.Email, rid)
		passThrough(c, resp)
	default:
		passThrough(c, resp)
	}
}

// Refresh rotates the presented refresh token into a new pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw, err := middleware.RefreshToken(c)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	pair, err := h.sessions.Rotate(c.Request.Context(), raw, c.GetHeader("User-Agent"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Logout ends the caller's session.
func (h *AuthHandler) Logout(c *gin.Context) {
	tok, ok := middleware.TokenFromContext(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "refresh token missing"})
		return
	}
	if err := h.sessions.Revoke(c.Request.Context(), tok.Subject.ID, tok.SessionID); err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// LogoutAll ends every session of the caller.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	tok, ok := middleware.TokenFromContext(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "refresh token missing"})
		return
	}
	n, err := h.sessions.RevokeAll(c.Request.Context(), tok.Subject.ID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully", "revoked": n})
}

// sendVerificationCode is best effort: failures are logged and never reach the client.
func (h *AuthHandler) sendVerificationCode(ctx context.Context, email, requestID string) {
	if h.notifier == nil {
		return
	}
	err := h.notifier.SendCode(ctx, upstream.CodeRequest{Email: email, Action: upstream.ActionVerifyAccount}, requestID)
	if err != nil {
		logger.Warnf("verification code for %s not sent: %v", email, err)
	}
}

func passThrough(c *gin.Context, resp *upstream.Response) {
	ct := resp.ContentType
	if ct == "" {
		ct = "application/json"
	}
	c.Data(resp.Status, ct, resp.Body)
}

// rawBody embeds an upstream JSON body as-is, or as a string when it is not JSON.
func rawBody(b []byte) any {
	if len(b) > 0 && json.Valid(b) {
		return json.RawMessage(b)
	}
	return string(b)
}
