package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"eventreg-backend/internal/components/assert"
	"eventreg-backend/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const (
	report_verifier_userinfo = "verifier.userinfo"
)

var ErrUnauthenticated = errors.New("unauthenticated")

const DefaultUserInfoUrl = "https://openidconnect.googleapis.com/v1/userinfo"

type Identity struct {
	Email string
}

func (i Identity) Domain() string {
	_, domain, found := strings.Cut(i.Email, "@")
	if !found {
		return ""
	}
	return strings.ToLower(domain)
}

type Verifier interface {
	// VerifyToken returns ErrUnauthenticated when the token is not valid.
	VerifyToken(ctx context.Context, token string) (Identity, error)
}

// GoogleVerifier validates access tokens by asking the userinfo endpoint
// who they belong to, a successful lookup implies the token is valid.
type GoogleVerifier struct {
	userInfoUrl string
	http        *resty.Client
	tel         telemetry.API
}

type googleUserInfo struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

func NewGoogleVerifier(userInfoUrl string, timeout time.Duration, tel telemetry.API) GoogleVerifier {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("auth", tel)

	if userInfoUrl == "" {
		userInfoUrl = DefaultUserInfoUrl
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New()
	client.SetTimeout(timeout)
	telemetry.InstrumentResty(client, tel)

	return GoogleVerifier{
		userInfoUrl: userInfoUrl,
		http:        client,
		tel:         tel,
	}
}

func (v GoogleVerifier) VerifyToken(ctx context.Context, token string) (Identity, error) {
	var info googleUserInfo
	res, err := v.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&info).
		Get(v.userInfoUrl)
	if err != nil {
		v.tel.ReportBroken(report_verifier_userinfo, err)
		return Identity{}, fmt.Errorf("userinfo: %w", err)
	}
	switch {
	case res.StatusCode() == http.StatusUnauthorized || res.StatusCode() == http.StatusForbidden:
		return Identity{}, ErrUnauthenticated
	case res.StatusCode() >= 400:
		err := fmt.Errorf("userinfo: unexpected status %s", res.Status())
		v.tel.ReportBroken(report_verifier_userinfo, err)
		return Identity{}, err
	}

	if info.Email == "" || !info.EmailVerified {
		return Identity{}, fmt.Errorf("%w: token has no verified email", ErrUnauthenticated)
	}
	return Identity{Email: info.Email}, nil
}
