package dto

// ProfileUpdateRequest captures an edit to the student profile. Empty fields
// keep their stored value; a change to any career-relevant field triggers a
// wholesale roadmap regeneration.
type ProfileUpdateRequest struct {
	Name                     string   `json:"name" validate:"omitempty,max=255"`
	Phone                    string   `json:"phone" validate:"omitempty,max=32"`
	CareerGoal               string   `json:"career_goal" validate:"omitempty,max=255"`
	DreamCompany             string   `json:"dream_company" validate:"omitempty,max=255"`
	CompanyPreference        string   `json:"company_preference" validate:"omitempty,max=255"`
	PersonalStatement        string   `json:"personal_statement" validate:"omitempty,max=4000"`
	EntrepreneurshipInterest string   `json:"entrepreneurship_interest" validate:"omitempty,max=64"`
	KeyInterests             []string `json:"key_interests" validate:"omitempty,dive,max=64"`
	GitHubProfile            string   `json:"github_profile" validate:"omitempty,max=255"`
	LinkedInProfile          string   `json:"linkedin_profile" validate:"omitempty,max=255"`
}

// ProfileUpdateResult reports the saved profile and whether the roadmap was
// regenerated as part of the update.
type ProfileUpdateResult struct {
	Student            StudentResponse `json:"student"`
	RoadmapRegenerated bool            `json:"roadmap_regenerated"`
	GenerationOutcome  string          `json:"generation_outcome,omitempty"`
}
