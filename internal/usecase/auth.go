package usecase

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/totegamma/survey-playground/internal/domain"
)

const ConfirmTypeSignup = "signup"

type SignUpInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Username string `json:"username" validate:"required"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ConfirmInput struct {
	AccessToken  string
	RefreshToken string
	Type         string
}

// AuthUsecase passes account operations through to the auth service and keeps the local
// users table in step with it.
type AuthUsecase struct {
	store   Store
	gateway AuthGateway
	cost    int
}

func NewAuthUsecase(store Store, gateway AuthGateway) *AuthUsecase {
	return &AuthUsecase{store: store, gateway: gateway, cost: bcrypt.DefaultCost}
}

func (uc *AuthUsecase) SignUp(ctx context.Context, input SignUpInput) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "Auth.Usecase.SignUp")
	defer span.End()

	if err := validateInput(input); err != nil {
		return domain.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), uc.cost)
	if err != nil {
		return domain.User{}, errors.Wrap(err, "hash password")
	}

	account, err := uc.gateway.SignUp(ctx, input.Email, input.Password)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, upstream("sign up", err)
	}

	user, err := uc.store.Users().Create(ctx, domain.User{
		ID:           account.ID,
		Email:        account.Email,
		Username:     input.Username,
		PasswordHash: string(hashed),
	})
	if err != nil {
		span.RecordError(err)
		return domain.User{}, upstream("create user", err)
	}

	slog.InfoContext(ctx, "user created", "user_id", user.ID)
	return user, nil
}

func (uc *AuthUsecase) SignIn(ctx context.Context, input SignInInput) (domain.Session, error) {
	ctx, span := tracer.Start(ctx, "Auth.Usecase.SignIn")
	defer span.End()

	if err := validateInput(input); err != nil {
		return domain.Session{}, err
	}

	session, err := uc.gateway.SignInWithPassword(ctx, input.Email, input.Password)
	if err != nil {
		span.RecordError(err)
		return domain.Session{}, upstream("sign in", err)
	}
	return session, nil
}

// Confirm completes the email confirmation redirect by resolving the user owning the token.
// When the access token is rejected and a refresh token came with the redirect, the session
// is refreshed and its user is returned instead.
func (uc *AuthUsecase) Confirm(ctx context.Context, input ConfirmInput) (domain.AuthUser, error) {
	ctx, span := tracer.Start(ctx, "Auth.Usecase.Confirm")
	defer span.End()

	if input.AccessToken == "" || input.Type != ConfirmTypeSignup {
		return domain.AuthUser{}, domain.ValidationError{Message: "Invalid confirmation URL"}
	}

	user, err := uc.gateway.GetUser(ctx, input.AccessToken)
	if err == nil {
		return user, nil
	}
	span.RecordError(err)
	if input.RefreshToken == "" {
		return domain.AuthUser{}, upstream("confirm session", err)
	}

	slog.DebugContext(ctx, "access token rejected, refreshing session", slog.String("error", err.Error()))
	session, err := uc.gateway.RefreshSession(ctx, input.RefreshToken)
	if err != nil {
		span.RecordError(err)
		return domain.AuthUser{}, upstream("refresh session", err)
	}
	return session.User, nil
}
