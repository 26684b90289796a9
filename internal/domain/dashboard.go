package domain

// DashboardStats aggregates the numbers the brain dashboard shows on
// its front page
type DashboardStats struct {
	Projects      ProjectStats      `json:"projects"`
	Meetings      MeetingStats      `json:"meetings"`
	Skills        SkillStats        `json:"skills"`
	Patterns      PatternStats      `json:"patterns"`
	Reminders     ReminderStats     `json:"reminders"`
	Conversations ConversationStats `json:"conversations"`
	Memory        MemoryStats       `json:"memory"`
	Training      TrainingStats     `json:"training"`
}

// ProjectStats summarizes project state
type ProjectStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
	Paused int64 `json:"paused"`
}

// MeetingStats summarizes the calendar
type MeetingStats struct {
	Today    int64 `json:"today"`
	ThisWeek int64 `json:"thisWeek"`
}

// SkillStats summarizes the skill tree
type SkillStats struct {
	Total          int64   `json:"total"`
	Mastered       int64   `json:"mastered"`
	AvgProficiency float64 `json:"avgProficiency"`
}

// PatternStats summarizes observed patterns
type PatternStats struct {
	Active        int64   `json:"active"`
	AvgConfidence float64 `json:"avgConfidence"`
}

// ReminderStats summarizes reminder load
type ReminderStats struct {
	DueToday int64 `json:"dueToday"`
	Overdue  int64 `json:"overdue"`
	Pending  int64 `json:"pending"`
}

// ConversationStats summarizes chat history
type ConversationStats struct {
	Total    int64 `json:"total"`
	Messages int64 `json:"messages"`
}

// MemoryStats summarizes the long-term memory store
type MemoryStats struct {
	Facts            int64 `json:"facts"`
	MissingEmbedding int64 `json:"missingEmbedding"`
}
