package services

import (
	"bbs-lab/auth"
	bbserrors "bbs-lab/errors"
	"bbs-lab/repositories"
	"fmt"
)

type IAuthService interface {
	Register(req auth.RegisterRequest) (Token, error)
	Login(req auth.LoginRequest) (Token, error)
	Resolve(token string) (id string, name string, err error)
}

type Token string

// AuthService issues bearer tokens and resolves them back to identities.
// Its Resolve method is the identity-lookup collaborator the relay uses
// to classify a connection as agent or observer.
type AuthService struct {
	userRepository repositories.IUserRepository
	issuer         *auth.TokenIssuer
}

func NewAuthService(repo repositories.IUserRepository, issuer *auth.TokenIssuer) IAuthService {
	return &AuthService{userRepository: repo, issuer: issuer}
}

func (s *AuthService) Register(req auth.RegisterRequest) (Token, error) {
	// Validate business rules before any expensive cryptographic work.
	if err := auth.ValidateRegister(req); err != nil {
		return "", fmt.Errorf("%w: %v", bbserrors.ErrInvalidPassword, err)
	}

	// Hashing happens in the service layer so the repository never sees a
	// plain password.
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.CreateUser(req.Handle, req.Email, hashedPassword)
	if err != nil {
		return "", err // propagates ErrUserAlreadyExists when the email is taken
	}

	token, err := s.issuer.Generate(userID, req.Handle)
	if err != nil {
		return "", bbserrors.ErrTokenGeneration
	}
	return Token(token), nil
}

func (s *AuthService) Login(req auth.LoginRequest) (Token, error) {
	if err := auth.ValidateLogin(req); err != nil {
		return "", bbserrors.ErrInvalidCredentials
	}

	user, err := s.userRepository.GetUserByEmail(req.Email)
	if err != nil {
		// Generic error to prevent user enumeration attacks.
		return "", bbserrors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		return "", bbserrors.ErrInvalidCredentials
	}

	token, err := s.issuer.Generate(user.ID, user.Handle)
	if err != nil {
		return "", bbserrors.ErrTokenGeneration
	}
	return Token(token), nil
}

// Resolve validates a bearer credential and returns the identity behind
// it. Invalid or expired tokens are reported as errors; the relay then
// treats the caller as an anonymous observer.
func (s *AuthService) Resolve(token string) (string, string, error) {
	claims, err := s.issuer.Validate(token)
	if err != nil {
		return "", "", bbserrors.ErrInvalidCredentials
	}
	return claims.UserID, claims.Name, nil
}
