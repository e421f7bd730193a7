package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/totegamma/survey-playground/internal/domain"
	"github.com/totegamma/survey-playground/internal/usecase"
)

const defaultTimeout = 10 * time.Second

// AuthError is a non-2xx answer of the auth service.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth service returned status %d", e.StatusCode)
	}
	return e.Message
}

// AuthGateway talks to a GoTrue compatible auth service such as Supabase Auth.
type AuthGateway struct {
	client  *http.Client
	cache   *cache.Cache
	baseURL string
	apiKey  string
}

func NewAuthGateway(baseURL, apiKey string, timeout time.Duration) *AuthGateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &AuthGateway{
		client:  &http.Client{Timeout: timeout},
		cache:   cache.New(time.Minute, 5*time.Minute),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signUpResponse covers both shapes GoTrue answers with: a bare user when email
// confirmation is pending, or a session when the account is confirmed right away.
type signUpResponse struct {
	domain.AuthUser
	User *domain.AuthUser `json:"user"`
}

func (g *AuthGateway) SignUp(ctx context.Context, email, password string) (domain.AuthUser, error) {
	var resp signUpResponse
	err := g.do(ctx, http.MethodPost, "/auth/v1/signup", "", credentials{email, password}, &resp)
	if err != nil {
		return domain.AuthUser{}, err
	}
	if resp.User != nil && resp.User.ID != "" {
		return *resp.User, nil
	}
	if resp.ID == "" {
		return domain.AuthUser{}, errors.New("auth service returned no user")
	}
	return resp.AuthUser, nil
}

func (g *AuthGateway) SignInWithPassword(ctx context.Context, email, password string) (domain.Session, error) {
	var session domain.Session
	err := g.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", credentials{email, password}, &session)
	if err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// GetUser resolves the account owning accessToken. Results are cached briefly per token.
func (g *AuthGateway) GetUser(ctx context.Context, accessToken string) (domain.AuthUser, error) {
	if cached, ok := g.cache.Get(accessToken); ok {
		return cached.(domain.AuthUser), nil
	}

	var user domain.AuthUser
	if err := g.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &user); err != nil {
		return domain.AuthUser{}, err
	}
	g.cache.SetDefault(accessToken, user)
	return user, nil
}

// RefreshSession exchanges a refresh token for a new session.
func (g *AuthGateway) RefreshSession(ctx context.Context, refreshToken string) (domain.Session, error) {
	var session domain.Session
	body := map[string]string{"refresh_token": refreshToken}
	err := g.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body, &session)
	if err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (g *AuthGateway) do(ctx context.Context, method, path, bearer string, body, response any) error {
	endpoint := g.baseURL + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("apikey", g.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to perform request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAuthError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

func decodeAuthError(resp *http.Response) error {
	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(raw, &body)

	msg := body.Msg
	for _, candidate := range []string{body.ErrorDescription, body.Message, body.Error} {
		if msg != "" {
			break
		}
		msg = candidate
	}
	return &AuthError{StatusCode: resp.StatusCode, Message: msg}
}

var _ usecase.AuthGateway = (*AuthGateway)(nil)
