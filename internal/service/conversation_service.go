package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/config"
	"github.com/angelahq/angela/internal/domain"
	"github.com/angelahq/angela/internal/ollama"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
	"github.com/angelahq/angela/internal/pkg/pagination"
	"github.com/angelahq/angela/internal/validator"
)

const (
	// Patterns below this confidence stay out of the system prompt
	promptPatternMinConfidence = 0.5
	promptPatternLimit         = 10

	defaultContextMessages = 20
	maxTitleLength         = 80
)

// ConversationRepository defines conversation and message repository operations
type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	Update(ctx context.Context, conv *domain.Conversation) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.ConversationFilter) (*domain.ConversationList, error)
	AppendMessage(ctx context.Context, msg *domain.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit int, cursor *pagination.Cursor) (*pagination.Page[domain.Message], error)
	ListRecentMessages(ctx context.Context, conversationID uuid.UUID, n int) ([]domain.Message, error)
}

// MemoryRecaller recalls stored facts relevant to a chat turn
type MemoryRecaller interface {
	Search(ctx context.Context, input *domain.MemorySearchInput) ([]domain.MemorySearchResult, error)
}

// PatternLister lists active patterns for prompt composition
type PatternLister interface {
	ListActive(ctx context.Context, minConfidence float64, limit int) ([]domain.Pattern, error)
}

// ChatPublisher pushes realtime events for a chat turn
type ChatPublisher interface {
	PublishMessage(conversationID uuid.UUID, message *domain.Message)
	PublishTitle(conversationID uuid.UUID, title string)
}

// ChatFollowups schedules the async work a chat turn produces
type ChatFollowups interface {
	EmbedMessage(ctx context.Context, messageID uuid.UUID) error
	CaptureTraining(ctx context.Context, conversationID, userMessageID, assistantMessageID uuid.UUID) error
	GenerateTitle(ctx context.Context, conversationID uuid.UUID) error
}

// ConversationService orchestrates chat turns against the local model
type ConversationService struct {
	convRepo  ConversationRepository
	memories  MemoryRecaller
	patterns  PatternLister
	llm       LLM
	publisher ChatPublisher
	followups ChatFollowups
	ollamaCfg config.OllamaConfig
	chatCfg   config.ChatConfig
	logger    *zap.Logger
}

// NewConversationService creates a new conversation service
func NewConversationService(
	convRepo ConversationRepository,
	memories MemoryRecaller,
	patterns PatternLister,
	llm LLM,
	publisher ChatPublisher,
	followups ChatFollowups,
	ollamaCfg config.OllamaConfig,
	chatCfg config.ChatConfig,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		convRepo:  convRepo,
		memories:  memories,
		patterns:  patterns,
		llm:       llm,
		publisher: publisher,
		followups: followups,
		ollamaCfg: ollamaCfg,
		chatCfg:   chatCfg,
		logger:    logger,
	}
}

// Create starts a new conversation
func (s *ConversationService) Create(ctx context.Context, input *domain.ConversationInput) (*domain.Conversation, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	model := input.Model
	if model == "" {
		model = s.ollamaCfg.ChatModel
	}

	now := time.Now()
	conv := &domain.Conversation{
		ID:        uuid.New(),
		Title:     input.Title,
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return conv, nil
}

// Get retrieves a conversation by ID
func (s *ConversationService) Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	return s.convRepo.GetByID(ctx, id)
}

// Update applies a partial update to a conversation
func (s *ConversationService) Update(ctx context.Context, id uuid.UUID, input *domain.ConversationUpdateInput) (*domain.Conversation, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	conv, err := s.convRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		conv.Title = *input.Title
	}
	if input.Archived != nil {
		conv.Archived = *input.Archived
	}
	conv.UpdatedAt = time.Now()

	if err := s.convRepo.Update(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}

	return conv, nil
}

// Delete deletes a conversation and its messages
func (s *ConversationService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.convRepo.Delete(ctx, id)
}

// List retrieves conversations matching the filter
func (s *ConversationService) List(ctx context.Context, filter *domain.ConversationFilter) (*domain.ConversationList, error) {
	return s.convRepo.List(ctx, filter)
}

// Messages pages through a conversation's messages
func (s *ConversationService) Messages(ctx context.Context, conversationID uuid.UUID, limit int, cursor string) (*pagination.Page[domain.Message], error) {
	if _, err := s.convRepo.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}

	var c *pagination.Cursor
	if cursor != "" {
		decoded, err := pagination.DecodeCursor(cursor)
		if err != nil {
			return nil, apperrors.Validation("invalid cursor")
		}
		c = decoded
	}

	return s.convRepo.ListMessages(ctx, conversationID, limit, c)
}

// SendMessage runs one chat turn: store the user message, recall
// relevant memory and patterns, ask the model, store and publish the
// reply, and schedule the async follow-up work.
//
// The user message survives a model failure; a turn that dies at the
// model comes back as 503 with the message already in history.
func (s *ConversationService) SendMessage(ctx context.Context, conversationID uuid.UUID, input *domain.SendMessageInput) (*domain.ChatReply, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Archived {
		return nil, apperrors.Conflict("conversation is archived")
	}
	firstExchange := conv.MessageCount == 0

	now := time.Now()
	userMsg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		Role:           domain.MessageRoleUser,
		Content:        input.Content,
		CreatedAt:      now,
	}
	if err := s.convRepo.AppendMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	recalled := s.recallMemories(ctx, input.Content)
	patterns := s.activePatterns(ctx)

	contextSize := s.chatCfg.ContextMessages
	if contextSize <= 0 {
		contextSize = defaultContextMessages
	}
	recent, err := s.convRepo.ListRecentMessages(ctx, conv.ID, contextSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load context window: %w", err)
	}

	chatMessages := make([]ollama.ChatMessage, 0, len(recent)+1)
	chatMessages = append(chatMessages, ollama.ChatMessage{
		Role:    "system",
		Content: s.composeSystemPrompt(recalled, patterns),
	})
	for _, m := range recent {
		chatMessages = append(chatMessages, ollama.ChatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	req := &ollama.ChatRequest{
		Model:    conv.Model,
		Messages: chatMessages,
	}
	if s.ollamaCfg.NumCtx > 0 {
		req.Options = &ollama.ChatOptions{NumCtx: s.ollamaCfg.NumCtx}
	}

	resp, err := s.llm.Chat(ctx, req)
	if err != nil {
		// The user message is already stored; the turn can be retried
		// once the model server is back.
		return nil, err
	}

	assistantMsg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		Role:           domain.MessageRoleAssistant,
		Content:        resp.Message.Content,
		Tokens:         resp.EvalCount,
		CreatedAt:      time.Now(),
	}
	if err := s.convRepo.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to store reply: %w", err)
	}

	s.publisher.PublishMessage(conv.ID, assistantMsg)
	s.scheduleFollowups(conv.ID, userMsg.ID, assistantMsg.ID, firstExchange, conv.Title)

	return &domain.ChatReply{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		MemoriesRecalled: len(recalled),
	}, nil
}

// GenerateTitle writes a short model-generated title on an untitled
// conversation. Safe to call repeatedly; a titled conversation is left
// alone.
func (s *ConversationService) GenerateTitle(ctx context.Context, conversationID uuid.UUID) error {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv.Title != "" {
		return nil
	}

	msgs, err := s.convRepo.ListRecentMessages(ctx, conv.ID, 4)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}
	if len(msgs) < 2 {
		return nil
	}

	var transcript strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&transcript, "%s: %s\n", m.Role, m.Content)
	}

	resp, err := s.llm.Chat(ctx, &ollama.ChatRequest{
		Model: conv.Model,
		Messages: []ollama.ChatMessage{
			{Role: "system", Content: "Write a very short title for this conversation, at most six words. Reply with the title only, no quotes."},
			{Role: "user", Content: transcript.String()},
		},
	})
	if err != nil {
		return err
	}

	title := strings.Trim(strings.TrimSpace(resp.Message.Content), `"`)
	if title == "" {
		return nil
	}
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}

	conv.Title = title
	conv.UpdatedAt = time.Now()
	if err := s.convRepo.Update(ctx, conv); err != nil {
		return fmt.Errorf("failed to store title: %w", err)
	}

	s.publisher.PublishTitle(conv.ID, title)
	return nil
}

// recallMemories is best-effort: chat goes on without memory when the
// embed model or the store is unhealthy
func (s *ConversationService) recallMemories(ctx context.Context, query string) []domain.MemorySearchResult {
	limit := s.chatCfg.MemoryRecall
	if limit <= 0 {
		limit = 5
	}

	results, err := s.memories.Search(ctx, &domain.MemorySearchInput{
		Query:         query,
		Limit:         limit,
		MinSimilarity: s.chatCfg.MinSimilarity,
	})
	if err != nil {
		s.logger.Warn("memory recall failed, continuing without", zap.Error(err))
		return nil
	}
	return results
}

// activePatterns is best-effort for the same reason
func (s *ConversationService) activePatterns(ctx context.Context) []domain.Pattern {
	patterns, err := s.patterns.ListActive(ctx, promptPatternMinConfidence, promptPatternLimit)
	if err != nil {
		s.logger.Warn("pattern load failed, continuing without", zap.Error(err))
		return nil
	}
	return patterns
}

// composeSystemPrompt builds the persona plus whatever the companion
// currently knows that is relevant to this turn
func (s *ConversationService) composeSystemPrompt(memories []domain.MemorySearchResult, patterns []domain.Pattern) string {
	var b strings.Builder
	b.WriteString(s.chatCfg.SystemPersona)

	if len(memories) > 0 {
		b.WriteString("\n\nThings you remember about the user:\n")
		for _, m := range memories {
			fmt.Fprintf(&b, "- %s\n", m.Fact.Content)
		}
	}

	if len(patterns) > 0 {
		b.WriteString("\nPatterns you have observed:\n")
		for _, p := range patterns {
			fmt.Fprintf(&b, "- (%s) %s\n", p.Kind, p.Description)
		}
	}

	return b.String()
}

// scheduleFollowups hands the post-turn work to the queue. Failures are
// logged and swallowed; the reply is already committed.
func (s *ConversationService) scheduleFollowups(conversationID, userMsgID, assistantMsgID uuid.UUID, firstExchange bool, title string) {
	if s.followups == nil {
		return
	}
	ctx := context.Background()

	for _, msgID := range []uuid.UUID{userMsgID, assistantMsgID} {
		if err := s.followups.EmbedMessage(ctx, msgID); err != nil {
			s.logger.Warn("failed to enqueue embedding", zap.String("messageId", msgID.String()), zap.Error(err))
		}
	}

	if s.chatCfg.CaptureTraining {
		if err := s.followups.CaptureTraining(ctx, conversationID, userMsgID, assistantMsgID); err != nil {
			s.logger.Warn("failed to enqueue training capture", zap.Error(err))
		}
	}

	if s.chatCfg.TitleAfterFirst && firstExchange && title == "" {
		if err := s.followups.GenerateTitle(ctx, conversationID); err != nil {
			s.logger.Warn("failed to enqueue title generation", zap.Error(err))
		}
	}
}
