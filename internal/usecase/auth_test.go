package usecase_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/totegamma/survey-playground/internal/domain"
	"github.com/totegamma/survey-playground/internal/usecase"
)

type fakeGateway struct {
	user      domain.AuthUser
	session   domain.Session
	err       error
	tokens    []string
	refreshed domain.Session
	refreshes []string
}

func (g *fakeGateway) SignUp(ctx context.Context, email, password string) (domain.AuthUser, error) {
	if g.err != nil {
		return domain.AuthUser{}, g.err
	}
	return domain.AuthUser{ID: g.user.ID, Email: email}, nil
}

func (g *fakeGateway) SignInWithPassword(ctx context.Context, email, password string) (domain.Session, error) {
	return g.session, g.err
}

func (g *fakeGateway) GetUser(ctx context.Context, accessToken string) (domain.AuthUser, error) {
	g.tokens = append(g.tokens, accessToken)
	return g.user, g.err
}

func (g *fakeGateway) RefreshSession(ctx context.Context, refreshToken string) (domain.Session, error) {
	g.refreshes = append(g.refreshes, refreshToken)
	if g.refreshed.User.ID == "" {
		return domain.Session{}, errors.New("Invalid Refresh Token")
	}
	return g.refreshed, nil
}

func TestAuthSignUpStoresHashedUser(t *testing.T) {
	store := newStore()
	uc := usecase.NewAuthUsecase(store, &fakeGateway{user: domain.AuthUser{ID: "auth-1"}})

	user, err := uc.SignUp(context.Background(), usecase.SignUpInput{
		Email:    "a@example.com",
		Password: "hunter22",
		Username: "alice",
	})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if user.ID != "auth-1" || user.Username != "alice" {
		t.Errorf("unexpected user %+v", user)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}

	ok, err := store.Users().Exists(context.Background(), "auth-1")
	if err != nil || !ok {
		t.Errorf("expected user row to exist, got %v %v", ok, err)
	}
}

func TestAuthSignUpGatewayFailure(t *testing.T) {
	store := newStore()
	uc := usecase.NewAuthUsecase(store, &fakeGateway{err: errors.New("User already registered")})

	_, err := uc.SignUp(context.Background(), usecase.SignUpInput{
		Email:    "a@example.com",
		Password: "hunter22",
		Username: "alice",
	})
	var upstreamErr domain.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if got := store.Counts()["users"]; got != 0 {
		t.Errorf("expected no user row, got %d", got)
	}
}

func TestAuthSignUpRejectsBadEmail(t *testing.T) {
	uc := usecase.NewAuthUsecase(newStore(), &fakeGateway{})

	_, err := uc.SignUp(context.Background(), usecase.SignUpInput{Email: "nope", Password: "x", Username: "y"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAuthSignIn(t *testing.T) {
	gateway := &fakeGateway{session: domain.Session{AccessToken: "tok", TokenType: "bearer"}}
	uc := usecase.NewAuthUsecase(newStore(), gateway)

	session, err := uc.SignIn(context.Background(), usecase.SignInInput{Email: "a@example.com", Password: "x"})
	if err != nil {
		t.Fatalf("signin failed: %v", err)
	}
	if session.AccessToken != "tok" {
		t.Errorf("unexpected session %+v", session)
	}
}

func TestAuthConfirm(t *testing.T) {
	gateway := &fakeGateway{user: domain.AuthUser{ID: "auth-1"}}
	uc := usecase.NewAuthUsecase(newStore(), gateway)
	ctx := context.Background()

	invalid := []usecase.ConfirmInput{
		{AccessToken: "", Type: usecase.ConfirmTypeSignup},
		{AccessToken: "tok", Type: "recovery"},
	}
	for _, input := range invalid {
		_, err := uc.Confirm(ctx, input)
		var validationErr domain.ValidationError
		if !errors.As(err, &validationErr) || validationErr.Message != "Invalid confirmation URL" {
			t.Errorf("expected Invalid confirmation URL for %+v, got %v", input, err)
		}
	}
	if len(gateway.tokens) != 0 {
		t.Errorf("expected gateway to be skipped, got %v", gateway.tokens)
	}

	user, err := uc.Confirm(ctx, usecase.ConfirmInput{AccessToken: "tok", Type: usecase.ConfirmTypeSignup})
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if user.ID != "auth-1" || len(gateway.tokens) != 1 || gateway.tokens[0] != "tok" {
		t.Errorf("unexpected confirm result %+v tokens %v", user, gateway.tokens)
	}
}

func TestAuthConfirmRefreshesRejectedToken(t *testing.T) {
	gateway := &fakeGateway{
		err:       errors.New("token is expired"),
		refreshed: domain.Session{AccessToken: "fresh", User: domain.AuthUser{ID: "auth-2"}},
	}
	uc := usecase.NewAuthUsecase(newStore(), gateway)

	user, err := uc.Confirm(context.Background(), usecase.ConfirmInput{
		AccessToken:  "stale",
		RefreshToken: "ref",
		Type:         usecase.ConfirmTypeSignup,
	})
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if user.ID != "auth-2" {
		t.Errorf("expected refreshed session user, got %+v", user)
	}
	if len(gateway.refreshes) != 1 || gateway.refreshes[0] != "ref" {
		t.Errorf("expected one refresh with ref, got %v", gateway.refreshes)
	}
}

func TestAuthConfirmWithoutRefreshToken(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("token is expired")}
	uc := usecase.NewAuthUsecase(newStore(), gateway)

	_, err := uc.Confirm(context.Background(), usecase.ConfirmInput{AccessToken: "stale", Type: usecase.ConfirmTypeSignup})
	var upstreamErr domain.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if len(gateway.refreshes) != 0 {
		t.Errorf("expected no refresh, got %v", gateway.refreshes)
	}
}

func TestAuthConfirmRefreshFailure(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("token is expired")}
	uc := usecase.NewAuthUsecase(newStore(), gateway)

	_, err := uc.Confirm(context.Background(), usecase.ConfirmInput{
		AccessToken:  "stale",
		RefreshToken: "bad",
		Type:         usecase.ConfirmTypeSignup,
	})
	var upstreamErr domain.UpstreamError
	if !errors.As(err, &upstreamErr) || upstreamErr.Op != "refresh session" {
		t.Fatalf("expected refresh session UpstreamError, got %v", err)
	}
}
