package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// practiceGain is the fraction of the remaining headroom earned per practice
	practiceGain = 0.08
	// practicingThreshold and masteredThreshold drive status advancement
	practicingThreshold = 0.25
	masteredThreshold   = 0.85
	// decayGrace is how long a skill can sit idle before it starts decaying
	decayGrace = 14 * 24 * time.Hour
	// weeklyDecayFactor is applied once per full idle week past the grace period
	weeklyDecayFactor = 0.97
	// proficiencyFloor is the lowest decay can take a skill
	proficiencyFloor = 0.05
)

// Skill represents a learned skill with proficiency that grows with
// practice and decays with neglect
type Skill struct {
	ID                uuid.UUID   `json:"id"`
	Name              string      `json:"name"`
	Category          string      `json:"category,omitempty"`
	Proficiency       float64     `json:"proficiency"`
	TargetProficiency float64     `json:"targetProficiency"`
	PracticeCount     int         `json:"practiceCount"`
	LastPracticedAt   *time.Time  `json:"lastPracticedAt,omitempty"`
	Status            SkillStatus `json:"status"`
	Notes             string      `json:"notes,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// RecordPractice applies one practice session: proficiency gains a fixed
// fraction of the remaining headroom, so growth is fast early and
// asymptotic near 1.
func (s *Skill) RecordPractice(now time.Time) {
	s.PracticeCount++
	s.Proficiency = clamp01(s.Proficiency + practiceGain*(1-s.Proficiency))
	s.LastPracticedAt = &now
	s.syncStatus()
}

// Decay applies idle decay as of the given time: after two idle weeks,
// proficiency loses 3% per full idle week, floored so a skill never
// vanishes. Mastered skills do not decay. Returns true if proficiency
// changed.
func (s *Skill) Decay(asOf time.Time) bool {
	if s.Status == SkillStatusMastered {
		return false
	}

	last := s.CreatedAt
	if s.LastPracticedAt != nil {
		last = *s.LastPracticedAt
	}
	idle := asOf.Sub(last)
	if idle <= decayGrace {
		return false
	}

	weeks := int(idle / (7 * 24 * time.Hour))
	decayed := s.Proficiency
	for i := 0; i < weeks; i++ {
		decayed *= weeklyDecayFactor
	}
	if decayed < proficiencyFloor {
		decayed = proficiencyFloor
	}
	if decayed == s.Proficiency {
		return false
	}

	s.Proficiency = decayed
	s.syncStatus()
	return true
}

// syncStatus derives the status from proficiency. Mastery is sticky:
// once mastered, a skill stays mastered.
func (s *Skill) syncStatus() {
	if s.Status == SkillStatusMastered {
		return
	}
	switch {
	case s.Proficiency >= masteredThreshold:
		s.Status = SkillStatusMastered
	case s.Proficiency >= practicingThreshold:
		s.Status = SkillStatusPracticing
	default:
		s.Status = SkillStatusLearning
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SkillInput represents input for creating a skill
type SkillInput struct {
	Name              string  `json:"name" validate:"required,min=1,max=100"`
	Category          string  `json:"category,omitempty" validate:"omitempty,max=100"`
	Proficiency       float64 `json:"proficiency,omitempty" validate:"omitempty,min=0,max=1"`
	TargetProficiency float64 `json:"targetProficiency,omitempty" validate:"omitempty,min=0,max=1"`
	Notes             string  `json:"notes,omitempty"`
}

// SkillUpdateInput represents input for updating a skill
type SkillUpdateInput struct {
	Name              *string  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Category          *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	Proficiency       *float64 `json:"proficiency,omitempty" validate:"omitempty,min=0,max=1"`
	TargetProficiency *float64 `json:"targetProficiency,omitempty" validate:"omitempty,min=0,max=1"`
	Notes             *string  `json:"notes,omitempty"`
}

// SkillFilter represents filter options for querying skills
type SkillFilter struct {
	Category *string
	Status   *SkillStatus

	Limit  int
	Offset int
}

// SkillList represents a paginated list of skills
type SkillList struct {
	Skills     []Skill `json:"skills"`
	TotalCount int64   `json:"totalCount"`
	HasMore    bool    `json:"hasMore"`
}
