package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/ascenthq/ascent-api/internal/dto"
	"github.com/ascenthq/ascent-api/internal/models"
	"github.com/ascenthq/ascent-api/internal/observability"
	"github.com/ascenthq/ascent-api/internal/repository"
	"github.com/ascenthq/ascent-api/internal/roadmap"
)

// ProfileService reads and updates student profiles. A change to any
// career-relevant field triggers a wholesale roadmap regeneration,
// discarding all learning plans and completion state.
type ProfileService interface {
	Get(ctx context.Context, studentID uint) (dto.StudentResponse, error)
	Update(ctx context.Context, studentID uint, req dto.ProfileUpdateRequest) (dto.ProfileUpdateResult, error)
}

type profileService struct {
	students      repository.StudentRepository
	roadmaps      repository.RoadmapRepository
	generator     *roadmap.Generator
	notifications NotificationService
	validator     *validator.Validate
	exposeOutcome bool
	logger        zerolog.Logger
}

// NewProfileService constructs the profile service.
func NewProfileService(
	students repository.StudentRepository,
	roadmaps repository.RoadmapRepository,
	generator *roadmap.Generator,
	notifications NotificationService,
	validate *validator.Validate,
	exposeOutcome bool,
	logger zerolog.Logger,
) ProfileService {
	return &profileService{
		students:      students,
		roadmaps:      roadmaps,
		generator:     generator,
		notifications: notifications,
		validator:     validate,
		exposeOutcome: exposeOutcome,
		logger:        logger.With().Str("component", "profile_service").Logger(),
	}
}

func (s *profileService) Get(ctx context.Context, studentID uint) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(student), nil
}

func (s *profileService) Update(ctx context.Context, studentID uint, req dto.ProfileUpdateRequest) (dto.ProfileUpdateResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProfileUpdateResult{}, err
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return dto.ProfileUpdateResult{}, err
	}

	keyChanged := applyProfileUpdate(&student, req)

	if err := s.students.UpdateProfile(ctx, &student); err != nil {
		return dto.ProfileUpdateResult{}, fmt.Errorf("save profile: %w", err)
	}

	result := dto.ProfileUpdateResult{Student: dto.NewStudentResponse(student)}
	if !keyChanged && student.RoadmapJSON != "" {
		return result, nil
	}

	// Career-relevant fields changed (or no roadmap exists yet): replace the
	// whole document, dropping plans and completion state.
	goal := student.CareerGoal
	if goal == "" {
		goal = "Software Developer"
	}

	start := time.Now()
	doc, outcome := s.generator.GenerateRoadmap(ctx, goal)
	observability.GenerationLatency().WithLabelValues("roadmap").Observe(time.Since(start).Seconds())
	observability.Generations().WithLabelValues("roadmap", string(outcome)).Inc()

	if err := s.roadmaps.ReplaceWithOutcome(ctx, studentID, doc, student.RoadmapVersion, outcome); err != nil {
		return dto.ProfileUpdateResult{}, fmt.Errorf("store roadmap: %w", err)
	}

	result.RoadmapRegenerated = true
	if s.exposeOutcome {
		result.GenerationOutcome = string(outcome)
	}

	s.notify(ctx, studentID, goal, outcome)
	s.logger.Info().
		Uint("student_id", studentID).
		Str("goal", goal).
		Str("outcome", string(outcome)).
		Msg("roadmap regenerated")

	return result, nil
}

func (s *profileService) notify(ctx context.Context, studentID uint, goal string, outcome roadmap.Outcome) {
	if s.notifications == nil {
		return
	}

	_, err := s.notifications.Publish(ctx, dto.NotificationCreateRequest{
		StudentID: studentID,
		Type:      "roadmap.generated",
		Message:   fmt.Sprintf("Your learning roadmap for %s is ready.", goal),
		Metadata:  map[string]string{"outcome": string(outcome)},
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish roadmap notification")
	}
}

// applyProfileUpdate merges the request into the stored profile, keeping
// stored values where the request is empty, and reports whether any
// career-relevant field changed.
func applyProfileUpdate(student *models.Student, req dto.ProfileUpdateRequest) bool {
	setIfPresent(&student.Name, req.Name)
	setIfPresent(&student.Phone, req.Phone)
	setIfPresent(&student.EntrepreneurshipInterest, req.EntrepreneurshipInterest)
	setIfPresent(&student.GitHubProfile, req.GitHubProfile)
	setIfPresent(&student.LinkedInProfile, req.LinkedInProfile)
	if len(req.KeyInterests) > 0 {
		student.KeyInterests = req.KeyInterests
	}

	keyChanged := false
	keyChanged = setKeyField(&student.CareerGoal, req.CareerGoal) || keyChanged
	keyChanged = setKeyField(&student.DreamCompany, req.DreamCompany) || keyChanged
	keyChanged = setKeyField(&student.CompanyPreference, req.CompanyPreference) || keyChanged
	keyChanged = setKeyField(&student.PersonalStatement, req.PersonalStatement) || keyChanged
	return keyChanged
}

func setIfPresent(target *string, value string) {
	value = strings.TrimSpace(value)
	if value != "" {
		*target = value
	}
}

func setKeyField(target *string, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || value == *target {
		return false
	}
	*target = value
	return true
}
