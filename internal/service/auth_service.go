package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ascenthq/ascent-api/internal/dto"
	"github.com/ascenthq/ascent-api/internal/models"
	"github.com/ascenthq/ascent-api/internal/repository"
)

// Auth errors surfaced to handlers.
var (
	ErrAccountExists      = errors.New("email or username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthService handles registration and login.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error)
}

type authService struct {
	students  repository.StudentRepository
	validator *validator.Validate
	secret    string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

// NewAuthService constructs the auth service.
func NewAuthService(students repository.StudentRepository, validate *validator.Validate, secret string, tokenTTL time.Duration, logger zerolog.Logger) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &authService{
		students:  students,
		validator: validate,
		secret:    secret,
		tokenTTL:  tokenTTL,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.ToLower(strings.TrimSpace(req.Username))

	exists, err := s.students.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("check existing account: %w", err)
	}
	if exists {
		return dto.AuthResponse{}, ErrAccountExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	student := models.Student{
		Username:        username,
		Name:            strings.TrimSpace(req.Name),
		Email:           email,
		PasswordHash:    string(hash),
		Phone:           strings.TrimSpace(req.Phone),
		DateOfBirth:     strings.TrimSpace(req.DateOfBirth),
		CareerGoal:      strings.TrimSpace(req.CareerGoal),
		DreamCompany:    strings.TrimSpace(req.DreamCompany),
		KeyInterests:    req.KeyInterests,
		GitHubProfile:   strings.TrimSpace(req.GitHubProfile),
		LinkedInProfile: strings.TrimSpace(req.LinkedInProfile),
	}

	if err := s.students.Create(ctx, &student); err != nil {
		return dto.AuthResponse{}, fmt.Errorf("create student: %w", err)
	}

	token, err := s.issueToken(student)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("student_id", student.ID).Msg("student registered")
	return dto.AuthResponse{Token: token, Student: dto.NewStudentResponse(student)}, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	login := strings.ToLower(strings.TrimSpace(req.Login))
	student, err := s.students.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, fmt.Errorf("find student: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)); err != nil {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	token, err := s.issueToken(student)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	return dto.AuthResponse{Token: token, Student: dto.NewStudentResponse(student)}, nil
}

func (s *authService) issueToken(student models.Student) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  fmt.Sprint(student.ID),
		"name": student.Name,
		"role": "student",
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
