package domain

// ProjectStatus represents the lifecycle state of a project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusPaused    ProjectStatus = "paused"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// IsValid checks if the project status is valid
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusPaused, ProjectStatusCompleted, ProjectStatusArchived:
		return true
	}
	return false
}

// MeetingStatus represents the state of a meeting
type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

// IsValid checks if the meeting status is valid
func (s MeetingStatus) IsValid() bool {
	switch s {
	case MeetingStatusScheduled, MeetingStatusCompleted, MeetingStatusCancelled:
		return true
	}
	return false
}

// SkillStatus represents how far along a skill is
type SkillStatus string

const (
	SkillStatusLearning   SkillStatus = "learning"
	SkillStatusPracticing SkillStatus = "practicing"
	SkillStatusMastered   SkillStatus = "mastered"
)

// IsValid checks if the skill status is valid
func (s SkillStatus) IsValid() bool {
	switch s {
	case SkillStatusLearning, SkillStatusPracticing, SkillStatusMastered:
		return true
	}
	return false
}

// PatternKind represents the kind of observed behavioral pattern
type PatternKind string

const (
	PatternKindPreference    PatternKind = "preference"
	PatternKindHabit         PatternKind = "habit"
	PatternKindTrigger       PatternKind = "trigger"
	PatternKindCommunication PatternKind = "communication"
)

// IsValid checks if the pattern kind is valid
func (k PatternKind) IsValid() bool {
	switch k {
	case PatternKindPreference, PatternKindHabit, PatternKindTrigger, PatternKindCommunication:
		return true
	}
	return false
}

// Recurrence represents how a reminder repeats
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// IsValid checks if the recurrence is valid
func (r Recurrence) IsValid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// ReminderPriority represents the urgency of a reminder
type ReminderPriority string

const (
	ReminderPriorityLow    ReminderPriority = "low"
	ReminderPriorityNormal ReminderPriority = "normal"
	ReminderPriorityHigh   ReminderPriority = "high"
	ReminderPriorityUrgent ReminderPriority = "urgent"
)

// IsValid checks if the reminder priority is valid
func (p ReminderPriority) IsValid() bool {
	switch p {
	case ReminderPriorityLow, ReminderPriorityNormal, ReminderPriorityHigh, ReminderPriorityUrgent:
		return true
	}
	return false
}

// ReminderStatus represents the delivery state of a reminder
type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusSent      ReminderStatus = "sent"
	ReminderStatusDone      ReminderStatus = "done"
	ReminderStatusSnoozed   ReminderStatus = "snoozed"
	ReminderStatusCancelled ReminderStatus = "cancelled"
)

// IsValid checks if the reminder status is valid
func (s ReminderStatus) IsValid() bool {
	switch s {
	case ReminderStatusPending, ReminderStatusSent, ReminderStatusDone, ReminderStatusSnoozed, ReminderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal checks if the reminder status is terminal
func (s ReminderStatus) IsTerminal() bool {
	return s == ReminderStatusDone || s == ReminderStatusCancelled
}

// ReminderChannel represents where a reminder is delivered
type ReminderChannel string

const (
	ReminderChannelDashboard ReminderChannel = "dashboard"
	ReminderChannelEmail     ReminderChannel = "email"
)

// IsValid checks if the reminder channel is valid
func (c ReminderChannel) IsValid() bool {
	switch c {
	case ReminderChannelDashboard, ReminderChannelEmail:
		return true
	}
	return false
}

// MessageRole represents who authored a chat message
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// IsValid checks if the message role is valid
func (r MessageRole) IsValid() bool {
	switch r {
	case MessageRoleUser, MessageRoleAssistant, MessageRoleSystem:
		return true
	}
	return false
}

// MemoryCategory represents the kind of long-term memory fact
type MemoryCategory string

const (
	MemoryCategoryPersonal   MemoryCategory = "personal"
	MemoryCategoryPreference MemoryCategory = "preference"
	MemoryCategoryFact       MemoryCategory = "fact"
	MemoryCategoryEvent      MemoryCategory = "event"
)

// IsValid checks if the memory category is valid
func (c MemoryCategory) IsValid() bool {
	switch c {
	case MemoryCategoryPersonal, MemoryCategoryPreference, MemoryCategoryFact, MemoryCategoryEvent:
		return true
	}
	return false
}

// TrainingExampleStatus represents where an example sits in the curation flow
type TrainingExampleStatus string

const (
	TrainingExampleStatusCandidate TrainingExampleStatus = "candidate"
	TrainingExampleStatusApproved  TrainingExampleStatus = "approved"
	TrainingExampleStatusRejected  TrainingExampleStatus = "rejected"
	TrainingExampleStatusExported  TrainingExampleStatus = "exported"
)

// IsValid checks if the training example status is valid
func (s TrainingExampleStatus) IsValid() bool {
	switch s {
	case TrainingExampleStatusCandidate, TrainingExampleStatusApproved, TrainingExampleStatusRejected, TrainingExampleStatusExported:
		return true
	}
	return false
}

// TrainingSource represents where a training example came from
type TrainingSource string

const (
	TrainingSourceConversation TrainingSource = "conversation"
	TrainingSourceManual       TrainingSource = "manual"
	TrainingSourceImport       TrainingSource = "import"
)

// IsValid checks if the training source is valid
func (s TrainingSource) IsValid() bool {
	switch s {
	case TrainingSourceConversation, TrainingSourceManual, TrainingSourceImport:
		return true
	}
	return false
}

// TrainingRunStatus represents the state of a fine-tuning run
type TrainingRunStatus string

const (
	TrainingRunStatusPreparing TrainingRunStatus = "preparing"
	TrainingRunStatusExported  TrainingRunStatus = "exported"
	TrainingRunStatusTraining  TrainingRunStatus = "training"
	TrainingRunStatusCompleted TrainingRunStatus = "completed"
	TrainingRunStatusFailed    TrainingRunStatus = "failed"
)

// IsValid checks if the training run status is valid
func (s TrainingRunStatus) IsValid() bool {
	switch s {
	case TrainingRunStatusPreparing, TrainingRunStatusExported, TrainingRunStatusTraining, TrainingRunStatusCompleted, TrainingRunStatusFailed:
		return true
	}
	return false
}

// IsTerminal checks if the training run status is terminal
func (s TrainingRunStatus) IsTerminal() bool {
	return s == TrainingRunStatusCompleted || s == TrainingRunStatusFailed
}

// SortOrder represents the sort order for queries
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// IsValid checks if the sort order is valid
func (o SortOrder) IsValid() bool {
	switch o {
	case SortOrderAsc, SortOrderDesc:
		return true
	}
	return false
}
