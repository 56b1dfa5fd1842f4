package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ascenthq/ascent-api/internal/models"
	"github.com/ascenthq/ascent-api/internal/roadmap"
)

// ErrVersionConflict indicates a concurrent writer replaced the document
// since it was read. Callers should re-read and reapply their change.
var ErrVersionConflict = errors.New("roadmap document version conflict")

// RoadmapRepository persists the per-student roadmap document as a single
// JSON text value with an optimistic version counter.
type RoadmapRepository interface {
	Load(ctx context.Context, studentID uint) (roadmap.Document, error)
	LoadWithOutcome(ctx context.Context, studentID uint) (roadmap.Document, roadmap.Outcome, error)
	Replace(ctx context.Context, studentID uint, doc roadmap.Document, expectedVersion int) error
	ReplaceWithOutcome(ctx context.Context, studentID uint, doc roadmap.Document, expectedVersion int, outcome roadmap.Outcome) error
}

type roadmapRepository struct {
	db *gorm.DB
}

// NewRoadmapRepository constructs a roadmap document repository.
func NewRoadmapRepository(db *gorm.DB) RoadmapRepository {
	return &roadmapRepository{db: db}
}

func (r *roadmapRepository) Load(ctx context.Context, studentID uint) (roadmap.Document, error) {
	doc, _, err := r.LoadWithOutcome(ctx, studentID)
	return doc, err
}

// LoadWithOutcome also reports how the stored document was last produced
// (provider, repaired or fallback).
func (r *roadmapRepository) LoadWithOutcome(ctx context.Context, studentID uint) (roadmap.Document, roadmap.Outcome, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Select("id", "roadmap", "roadmap_version", "roadmap_outcome").First(&student, studentID).Error; err != nil {
		return roadmap.Document{}, "", err
	}

	doc, err := roadmap.Decode(student.RoadmapJSON)
	if err != nil {
		return roadmap.Document{}, "", err
	}
	doc.Version = student.RoadmapVersion
	return doc, roadmap.Outcome(student.RoadmapOutcome), nil
}

func (r *roadmapRepository) Replace(ctx context.Context, studentID uint, doc roadmap.Document, expectedVersion int) error {
	return r.replace(ctx, studentID, doc, expectedVersion, "")
}

func (r *roadmapRepository) ReplaceWithOutcome(ctx context.Context, studentID uint, doc roadmap.Document, expectedVersion int, outcome roadmap.Outcome) error {
	return r.replace(ctx, studentID, doc, expectedVersion, outcome)
}

// replace writes the whole document back, guarded by a compare-and-swap on
// the version column. A concurrent write bumps the version and the stale
// writer sees zero affected rows.
func (r *roadmapRepository) replace(ctx context.Context, studentID uint, doc roadmap.Document, expectedVersion int, outcome roadmap.Outcome) error {
	doc.Version = expectedVersion + 1
	payload, err := roadmap.Encode(doc)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"roadmap":         payload,
		"roadmap_version": expectedVersion + 1,
	}
	if outcome != "" {
		updates["roadmap_outcome"] = string(outcome)
	}

	result := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id = ? AND roadmap_version = ?", studentID, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", studentID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrVersionConflict
	}
	return nil
}
