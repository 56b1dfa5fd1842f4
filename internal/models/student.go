package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Student represents a learner profile, including the career fields that
// drive roadmap generation. The roadmap itself is persisted as one JSON text
// value; RoadmapVersion backs the optimistic concurrency check on writes.
type Student struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Phone        string `gorm:"size:32" json:"phone"`
	DateOfBirth  string `gorm:"size:32" json:"date_of_birth"`

	CareerGoal               string   `gorm:"size:255" json:"career_goal"`
	DreamCompany             string   `gorm:"size:255" json:"dream_company"`
	CompanyPreference        string   `gorm:"size:255" json:"company_preference"`
	PersonalStatement        string   `gorm:"type:text" json:"personal_statement"`
	EntrepreneurshipInterest string   `gorm:"size:64" json:"entrepreneurship_interest"`
	KeyInterestsRaw          string   `gorm:"column:key_interests;type:text" json:"-"`
	KeyInterests             []string `gorm:"-" json:"key_interests"`
	GitHubProfile            string   `gorm:"column:github_profile;size:255" json:"github_profile"`
	LinkedInProfile          string   `gorm:"size:255" json:"linkedin_profile"`

	RoadmapJSON    string `gorm:"column:roadmap;type:text" json:"-"`
	RoadmapVersion int    `gorm:"not null;default:0" json:"-"`
	RoadmapOutcome string `gorm:"size:32" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeSave normalises the interest list before persisting.
func (s *Student) BeforeSave(tx *gorm.DB) error {
	s.KeyInterestsRaw = encodeInterests(s.KeyInterests)
	return nil
}

// AfterFind hydrates the interest list after retrieval.
func (s *Student) AfterFind(tx *gorm.DB) error {
	s.KeyInterests = decodeInterests(s.KeyInterestsRaw)
	return nil
}

func encodeInterests(interests []string) string {
	if len(interests) == 0 {
		return ""
	}
	cleaned := make([]string, 0, len(interests))
	for _, interest := range interests {
		trimmed := strings.TrimSpace(interest)
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	if len(cleaned) == 0 {
		return ""
	}
	return "|" + strings.Join(cleaned, "|") + "|"
}

func decodeInterests(raw string) []string {
	raw = strings.Trim(raw, "|")
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, "|")
}
