package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelahq/angela/internal/config"
	"github.com/angelahq/angela/internal/domain"
	"github.com/angelahq/angela/internal/ollama"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
	"github.com/angelahq/angela/internal/validator"
)

// MeetingRepository defines meeting repository operations
type MeetingRepository interface {
	Create(ctx context.Context, meeting *domain.Meeting) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Meeting, error)
	Update(ctx context.Context, meeting *domain.Meeting) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.MeetingFilter) (*domain.MeetingList, error)
	ListUpcoming(ctx context.Context, from, to time.Time) ([]domain.Meeting, error)
}

// MeetingService handles meeting tracking and summarization
type MeetingService struct {
	meetingRepo MeetingRepository
	llm         LLM
	ollamaCfg   config.OllamaConfig
}

// NewMeetingService creates a new meeting service
func NewMeetingService(meetingRepo MeetingRepository, llm LLM, ollamaCfg config.OllamaConfig) *MeetingService {
	return &MeetingService{
		meetingRepo: meetingRepo,
		llm:         llm,
		ollamaCfg:   ollamaCfg,
	}
}

// Create creates a new meeting
func (s *MeetingService) Create(ctx context.Context, input *domain.MeetingInput) (*domain.Meeting, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if !input.EndsAt.After(input.StartsAt) {
		return nil, apperrors.Validation("meeting must end after it starts")
	}

	now := time.Now()
	meeting := &domain.Meeting{
		ID:          uuid.New(),
		ProjectID:   input.ProjectID,
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		Attendees:   input.Attendees,
		Status:      domain.MeetingStatusScheduled,
		Notes:       input.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.meetingRepo.Create(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}

	return meeting, nil
}

// Get retrieves a meeting by ID
func (s *MeetingService) Get(ctx context.Context, id uuid.UUID) (*domain.Meeting, error) {
	return s.meetingRepo.GetByID(ctx, id)
}

// Update applies a partial update to a meeting
func (s *MeetingService) Update(ctx context.Context, id uuid.UUID, input *domain.MeetingUpdateInput) (*domain.Meeting, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	meeting, err := s.meetingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.ProjectID != nil {
		meeting.ProjectID = input.ProjectID
	}
	if input.Title != nil {
		meeting.Title = *input.Title
	}
	if input.Description != nil {
		meeting.Description = *input.Description
	}
	if input.Location != nil {
		meeting.Location = *input.Location
	}
	if input.StartsAt != nil {
		meeting.StartsAt = *input.StartsAt
	}
	if input.EndsAt != nil {
		meeting.EndsAt = *input.EndsAt
	}
	if input.Attendees != nil {
		meeting.Attendees = input.Attendees
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, apperrors.Validation(fmt.Sprintf("invalid status %q", *input.Status))
		}
		meeting.Status = *input.Status
	}
	if input.Notes != nil {
		meeting.Notes = *input.Notes
	}
	if input.ActionItems != nil {
		meeting.ActionItems = input.ActionItems
	}

	if !meeting.EndsAt.After(meeting.StartsAt) {
		return nil, apperrors.Validation("meeting must end after it starts")
	}

	meeting.UpdatedAt = time.Now()

	if err := s.meetingRepo.Update(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to update meeting: %w", err)
	}

	return meeting, nil
}

// Delete deletes a meeting
func (s *MeetingService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.meetingRepo.Delete(ctx, id)
}

// List retrieves meetings matching the filter
func (s *MeetingService) List(ctx context.Context, filter *domain.MeetingFilter) (*domain.MeetingList, error) {
	return s.meetingRepo.List(ctx, filter)
}

// ListUpcoming retrieves scheduled meetings in the coming window
func (s *MeetingService) ListUpcoming(ctx context.Context, window time.Duration) ([]domain.Meeting, error) {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	now := time.Now()
	return s.meetingRepo.ListUpcoming(ctx, now, now.Add(window))
}

// Complete marks a meeting completed, appending notes if given
func (s *MeetingService) Complete(ctx context.Context, id uuid.UUID, notes string) (*domain.Meeting, error) {
	meeting, err := s.meetingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if meeting.Status == domain.MeetingStatusCancelled {
		return nil, apperrors.Conflict("cancelled meetings cannot be completed")
	}

	meeting.Status = domain.MeetingStatusCompleted
	if notes != "" {
		if meeting.Notes != "" {
			meeting.Notes += "\n\n" + notes
		} else {
			meeting.Notes = notes
		}
	}
	meeting.UpdatedAt = time.Now()

	if err := s.meetingRepo.Update(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to update meeting: %w", err)
	}

	return meeting, nil
}

// Summarize asks the chat model for a short summary of the meeting and
// stores it on the record
func (s *MeetingService) Summarize(ctx context.Context, id uuid.UUID) (*domain.Meeting, error) {
	meeting, err := s.meetingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if meeting.Notes == "" && meeting.Description == "" && len(meeting.ActionItems) == 0 {
		return nil, apperrors.Validation("meeting has no notes to summarize")
	}

	resp, err := s.llm.Chat(ctx, &ollama.ChatRequest{
		Model: s.ollamaCfg.ChatModel,
		Messages: []ollama.ChatMessage{
			{Role: "system", Content: "You summarize meeting notes. Reply with a concise summary of at most four sentences, covering decisions and follow-ups. Reply with the summary only."},
			{Role: "user", Content: summarizePrompt(meeting)},
		},
	})
	if err != nil {
		return nil, err
	}

	summary := strings.TrimSpace(resp.Message.Content)
	if summary == "" {
		return nil, apperrors.Unavailable("model returned an empty summary")
	}

	meeting.Summary = summary
	meeting.UpdatedAt = time.Now()

	if err := s.meetingRepo.Update(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to store summary: %w", err)
	}

	return meeting, nil
}

// summarizePrompt flattens a meeting into the text the model sees
func summarizePrompt(m *domain.Meeting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Meeting: %s\n", m.Title)
	fmt.Fprintf(&b, "When: %s (%s)\n", m.StartsAt.Format("Mon Jan 2 2006 15:04"), m.Duration())
	if len(m.Attendees) > 0 {
		fmt.Fprintf(&b, "Attendees: %s\n", strings.Join(m.Attendees, ", "))
	}
	if m.Description != "" {
		fmt.Fprintf(&b, "\nDescription:\n%s\n", m.Description)
	}
	if m.Notes != "" {
		fmt.Fprintf(&b, "\nNotes:\n%s\n", m.Notes)
	}
	if len(m.ActionItems) > 0 {
		b.WriteString("\nAction items:\n")
		for _, item := range m.ActionItems {
			status := "open"
			if item.Done {
				status = "done"
			}
			fmt.Fprintf(&b, "- [%s] %s\n", status, item.Description)
		}
	}
	return b.String()
}
