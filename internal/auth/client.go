package auth

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/fjod/shopflow/internal/apigw"
	"github.com/fjod/shopflow/internal/domain"
	"github.com/fjod/shopflow/internal/surface"
)

var (
	phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)
	codePattern  = regexp.MustCompile(`^\d{6}$`)
)

// Sessions is where a successful login is recorded.
type Sessions interface {
	SignIn(ctx context.Context, token string, user *domain.User) error
	SignOut(ctx context.Context) error
}

type Client struct {
	gw       apigw.Caller
	sessions Sessions
	gate     *Gate
	nav      surface.Navigator
	log      *slog.Logger
}

func NewClient(gw apigw.Caller, sessions Sessions, gate *Gate, nav surface.Navigator, log *slog.Logger) *Client {
	return &Client{gw: gw, sessions: sessions, gate: gate, nav: nav, log: log}
}

type SendCodeResult struct {
	// VerifyCode is only echoed back by development servers.
	VerifyCode string `json:"verifyCode,omitempty"`
}

type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type,omitempty"`
	User        *domain.User `json:"user"`
}

func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return domain.Validationf("please enter a valid mobile number")
	}
	return nil
}

func ValidateCode(code string) error {
	if !codePattern.MatchString(code) {
		return domain.Validationf("please enter the 6-digit verification code")
	}
	return nil
}

func (c *Client) SendCode(ctx context.Context, phone string) (SendCodeResult, error) {
	if err := ValidatePhone(phone); err != nil {
		return SendCodeResult{}, err
	}
	return apigw.Do[SendCodeResult](ctx, c.gw, http.MethodPost, "/api/auth/send-code",
		map[string]string{"phone": phone})
}

// Login exchanges phone and code for a token, stores it and resumes
// whatever the gate interrupted. Resumption happens before Login returns,
// so no new draft can sneak in between.
func (c *Client) Login(ctx context.Context, phone, code string) (surface.Destination, error) {
	if err := ValidatePhone(phone); err != nil {
		return surface.Destination{}, err
	}
	if err := ValidateCode(code); err != nil {
		return surface.Destination{}, err
	}

	res, err := apigw.Do[LoginResult](ctx, c.gw, http.MethodPost, "/api/auth/phone-login",
		map[string]string{"phone": phone, "code": code})
	if err != nil {
		return surface.Destination{}, err
	}
	if res.AccessToken == "" {
		return surface.Destination{}, &domain.Error{Kind: domain.ErrRequest, Message: "login failed, please try again"}
	}

	if err := c.sessions.SignIn(ctx, res.AccessToken, res.User); err != nil {
		return surface.Destination{}, err
	}
	c.log.InfoContext(ctx, "shopper logged in", "user_id", userID(res.User))

	return c.gate.Resume(ctx), nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.sessions.SignOut(ctx); err != nil {
		return err
	}
	c.nav.Reset(ctx, surface.To(surface.Home))
	return nil
}

func userID(u *domain.User) int64 {
	if u == nil {
		return 0
	}
	return u.ID
}
