package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// reinforceStep is the fraction of remaining headroom gained per observation
	reinforceStep = 0.15
	// contradictFactor is applied to confidence when evidence contradicts
	contradictFactor = 0.6
	// deactivateBelow retires a pattern whose confidence has collapsed
	deactivateBelow = 0.2
	// observationGrace is how long a pattern holds confidence without fresh evidence
	observationGrace = 30 * 24 * time.Hour
	// weeklyErosionFactor is applied once per full idle week past the grace period
	weeklyErosionFactor = 0.95
)

// Pattern represents an observed behavioral pattern with a confidence
// that strengthens with supporting evidence and erodes when contradicted
type Pattern struct {
	ID                   uuid.UUID   `json:"id"`
	Kind                 PatternKind `json:"kind"`
	Description          string      `json:"description"`
	Confidence           float64     `json:"confidence"`
	EvidenceCount        int         `json:"evidenceCount"`
	FirstObservedAt      time.Time   `json:"firstObservedAt"`
	LastObservedAt       time.Time   `json:"lastObservedAt"`
	Active               bool        `json:"active"`
	SourceConversationID *uuid.UUID  `json:"sourceConversationId,omitempty"`
	CreatedAt            time.Time   `json:"createdAt"`
	UpdatedAt            time.Time   `json:"updatedAt"`
}

// Reinforce records a supporting observation: confidence moves
// asymptotically toward 1 and the observation window extends.
func (p *Pattern) Reinforce(now time.Time) {
	p.EvidenceCount++
	p.Confidence = clamp01(p.Confidence + reinforceStep*(1-p.Confidence))
	p.LastObservedAt = now
}

// Contradict records a contradicting observation: confidence takes a
// multiplicative hit, and a collapsed pattern deactivates.
func (p *Pattern) Contradict() {
	p.Confidence = clamp01(p.Confidence * contradictFactor)
	if p.Confidence < deactivateBelow {
		p.Active = false
	}
}

// Decay erodes confidence as of the given time: after thirty idle days
// without evidence, confidence loses 5% per full idle week, and a
// collapsed pattern deactivates just as a contradicted one does.
// Returns true if the pattern changed.
func (p *Pattern) Decay(asOf time.Time) bool {
	if !p.Active {
		return false
	}

	idle := asOf.Sub(p.LastObservedAt)
	if idle <= observationGrace {
		return false
	}

	weeks := int(idle / (7 * 24 * time.Hour))
	eroded := p.Confidence
	for i := 0; i < weeks; i++ {
		eroded *= weeklyErosionFactor
	}
	if eroded == p.Confidence {
		return false
	}

	p.Confidence = eroded
	if p.Confidence < deactivateBelow {
		p.Active = false
	}
	return true
}

// PatternInput represents input for creating a pattern
type PatternInput struct {
	Kind                 PatternKind `json:"kind" validate:"required"`
	Description          string      `json:"description" validate:"required,min=3,max=500"`
	Confidence           float64     `json:"confidence,omitempty" validate:"omitempty,min=0,max=1"`
	SourceConversationID *uuid.UUID  `json:"sourceConversationId,omitempty"`
}

// PatternUpdateInput represents input for updating a pattern
type PatternUpdateInput struct {
	Kind        *PatternKind `json:"kind,omitempty"`
	Description *string      `json:"description,omitempty" validate:"omitempty,min=3,max=500"`
	Active      *bool        `json:"active,omitempty"`
}

// PatternFilter represents filter options for querying patterns
type PatternFilter struct {
	Kind          *PatternKind
	Active        *bool
	MinConfidence *float64

	Limit  int
	Offset int
}

// PatternList represents a paginated list of patterns
type PatternList struct {
	Patterns   []Pattern `json:"patterns"`
	TotalCount int64     `json:"totalCount"`
	HasMore    bool      `json:"hasMore"`
}
