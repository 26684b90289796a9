package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelahq/angela/internal/domain"
)

// NewTestUser creates a test user with default values.
func NewTestUser() *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		Email:     "angela@example.com",
		Name:      "Test User",
		Timezone:  "Europe/Berlin",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// NewTestAPIKey creates a test API key with default scopes.
func NewTestAPIKey() *domain.APIKey {
	return &domain.APIKey{
		ID:        uuid.New(),
		Name:      "test-key",
		PublicKey: "ak-testtesttesttesttesttesttest00",
		Scopes:    domain.DefaultScopes(),
		CreatedAt: time.Now(),
	}
}

// NewTestProject creates a test project with default values.
func NewTestProject() *domain.Project {
	return &domain.Project{
		ID:        uuid.New(),
		Name:      "Garden Overhaul",
		Slug:      "garden-overhaul",
		Status:    domain.ProjectStatusActive,
		Priority:  3,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// NewTestMeeting creates a one-hour test meeting starting an hour from now.
func NewTestMeeting() *domain.Meeting {
	starts := time.Now().Add(time.Hour).Truncate(time.Minute)
	return &domain.Meeting{
		ID:        uuid.New(),
		Title:     "Planning sync",
		StartsAt:  starts,
		EndsAt:    starts.Add(time.Hour),
		Status:    domain.MeetingStatusScheduled,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// NewTestSkill creates a test skill with default values.
func NewTestSkill() *domain.Skill {
	return &domain.Skill{
		ID:                uuid.New(),
		Name:              "Woodworking",
		Category:          "crafts",
		Proficiency:       0.3,
		TargetProficiency: 0.8,
		Status:            domain.SkillStatusPracticing,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
}

// NewTestPattern creates an active test pattern.
func NewTestPattern() *domain.Pattern {
	now := time.Now()
	return &domain.Pattern{
		ID:              uuid.New(),
		Kind:            domain.PatternKindHabit,
		Description:     "Works best in the morning",
		Confidence:      0.6,
		EvidenceCount:   3,
		FirstObservedAt: now.Add(-72 * time.Hour),
		LastObservedAt:  now,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// NewTestReminder creates a pending test reminder due in an hour.
func NewTestReminder() *domain.Reminder {
	return &domain.Reminder{
		ID:         uuid.New(),
		Title:      "Water the plants",
		DueAt:      time.Now().Add(time.Hour).Truncate(time.Minute),
		Recurrence: domain.RecurrenceNone,
		Priority:   domain.ReminderPriorityNormal,
		Status:     domain.ReminderStatusPending,
		Channel:    domain.ReminderChannelDashboard,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

// NewTestConversation creates a test conversation with default values.
func NewTestConversation() *domain.Conversation {
	return &domain.Conversation{
		ID:        uuid.New(),
		Title:     "Test chat",
		Model:     "llama3.1:8b",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// NewTestMessage creates a test message in the given conversation.
func NewTestMessage(conversationID uuid.UUID, role domain.MessageRole, content string) *domain.Message {
	return &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	}
}

// NewTestMemoryFact creates an embedded test memory fact.
func NewTestMemoryFact(content string) *domain.MemoryFact {
	return &domain.MemoryFact{
		ID:           uuid.New(),
		Content:      content,
		Category:     domain.MemoryCategoryPreference,
		Importance:   3,
		HasEmbedding: true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// NewTestTrainingExample creates a candidate training example.
func NewTestTrainingExample() *domain.TrainingExample {
	return &domain.TrainingExample{
		ID:        uuid.New(),
		Prompt:    "What should I plant in March?",
		Response:  "March is a good month for peas, radishes, and spinach.",
		Source:    domain.TrainingSourceManual,
		Status:    domain.TrainingExampleStatusCandidate,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
