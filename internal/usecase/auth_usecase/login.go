package auth

import (
	"context"
	"errors"
	"time"

	"edushop/internal/domain/model"
	"edushop/internal/repository"
)

var (
	// emailかpasswordが違う。どちらが違うかは教えない
	ErrInvalidCredentials = errors.New("invalid credentials")

	// 無効化されたアカウント
	ErrUserInactive = errors.New("user inactive")
)

// ログインの入力
type LoginInput struct {
	Email    string
	Password string
}

// ログインの出力。アクセストークンとユーザー情報
type LoginOutput struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
}

// ハッシュと平文の照合の約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

// JWTの発行の約束。実装はcmd/api側
type TokenIssuer interface {
	Issue(user model.User, now time.Time) (string, time.Time, error)
}

type LoginUsecase struct {
	userRepo repository.UserRepository
	verifier PasswordVerifier
	issuer   TokenIssuer
	clock    Clock
}

// DI
func NewLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	issuer TokenIssuer,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		clock:    clock,
	}
}

// ログイン実行
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	var out LoginOutput

	user, err := u.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return out, err
	}
	if user == nil {
		return out, ErrInvalidCredentials
	}

	if !u.verifier.Verify(in.Password, user.PasswordHash) {
		return out, ErrInvalidCredentials
	}

	if !user.IsActive {
		return out, ErrUserInactive
	}

	token, expiresAt, err := u.issuer.Issue(*user, u.clock.Now())
	if err != nil {
		return out, err
	}

	out.Token = token
	out.ExpiresAt = expiresAt
	out.User = *user
	return out, nil
}
