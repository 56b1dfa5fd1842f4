package dto

import "github.com/ascenthq/ascent-api/internal/models"

// RegisterRequest captures the sign-up form payload.
type RegisterRequest struct {
	Username        string   `json:"username" validate:"required,min=3,max=64"`
	Name            string   `json:"name" validate:"required,max=255"`
	Email           string   `json:"email" validate:"required,email"`
	Phone           string   `json:"phone" validate:"omitempty,max=32"`
	DateOfBirth     string   `json:"date_of_birth" validate:"omitempty,max=32"`
	Password        string   `json:"password" validate:"required,min=8"`
	ConfirmPassword string   `json:"confirm_password" validate:"required,eqfield=Password"`
	CareerGoal      string   `json:"career_goal" validate:"omitempty,max=255"`
	DreamCompany    string   `json:"dream_company" validate:"omitempty,max=255"`
	KeyInterests    []string `json:"key_interests" validate:"omitempty,dive,max=64"`
	GitHubProfile   string   `json:"github_profile" validate:"omitempty,max=255"`
	LinkedInProfile string   `json:"linkedin_profile" validate:"omitempty,max=255"`
}

// LoginRequest captures the sign-in payload; login accepts email or username.
type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the issued token and the authenticated profile.
type AuthResponse struct {
	Token   string          `json:"token"`
	Student StudentResponse `json:"student"`
}

// StudentResponse serialises the public view of a student profile.
type StudentResponse struct {
	ID                uint     `json:"id"`
	Username          string   `json:"username"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone,omitempty"`
	CareerGoal        string   `json:"career_goal,omitempty"`
	DreamCompany      string   `json:"dream_company,omitempty"`
	CompanyPreference string   `json:"company_preference,omitempty"`
	PersonalStatement string   `json:"personal_statement,omitempty"`
	KeyInterests      []string `json:"key_interests,omitempty"`
	GitHubProfile     string   `json:"github_profile,omitempty"`
	LinkedInProfile   string   `json:"linkedin_profile,omitempty"`
}

// NewStudentResponse maps a student model to its public representation.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:                student.ID,
		Username:          student.Username,
		Name:              student.Name,
		Email:             student.Email,
		Phone:             student.Phone,
		CareerGoal:        student.CareerGoal,
		DreamCompany:      student.DreamCompany,
		CompanyPreference: student.CompanyPreference,
		PersonalStatement: student.PersonalStatement,
		KeyInterests:      append([]string(nil), student.KeyInterests...),
		GitHubProfile:     student.GitHubProfile,
		LinkedInProfile:   student.LinkedInProfile,
	}
}
