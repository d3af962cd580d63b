package services

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"eco-challenge-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Per-exchange states: Composing → Sent → {Answered | Failed}
const (
	ChatStatusComposing = "composing"
	ChatStatusSent      = "sent"
	ChatStatusAnswered  = "answered"
	ChatStatusFailed    = "failed"
)

const assistantContextHint = "environmental education platform"

const chatGreeting = "Hello! I'm your AI environmental assistant. I can help you with environmental challenges, sustainability tips, and answer questions about climate action. How can I help you today?"

const chatFallback = "I'm sorry, I'm having trouble connecting right now. Please try again later."

// ChatMessage is one entry in a session's append-only log.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"` // user | assistant
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession holds one user's conversation for the lifetime of the process.
// The log is append-only: messages are never mutated or removed, a failed
// round trip only affects the reply side.
type ChatSession struct {
	mu       sync.Mutex
	userID   string
	status   string
	nextID   int64
	messages []ChatMessage
}

func (cs *ChatSession) append(sender, text string) ChatMessage {
	cs.nextID++
	msg := ChatMessage{
		ID:        cs.nextID,
		Text:      text,
		Sender:    sender,
		Timestamp: time.Now(),
	}
	cs.messages = append(cs.messages, msg)
	return msg
}

// SendResult reports one completed exchange.
type SendResult struct {
	UserMessage ChatMessage `json:"user_message"`
	Reply       ChatMessage `json:"reply"`
	Status      string      `json:"status"` // answered | failed
}

// ChatService manages per-user chat sessions and the assistant round trips.
type ChatService struct {
	DB        *gorm.DB
	Assistant *AssistantClient

	mu       sync.Mutex
	sessions map[string]*ChatSession
}

func NewChatService(db *gorm.DB, assistant *AssistantClient) *ChatService {
	return &ChatService{
		DB:        db,
		Assistant: assistant,
		sessions:  make(map[string]*ChatSession),
	}
}

func (s *ChatService) session(userID string) *ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &ChatSession{userID: userID, status: ChatStatusComposing}
		sess.append(SenderAssistant, chatGreeting)
		s.sessions[userID] = sess
	}
	return sess
}

// Send validates the text, appends the user message optimistically, performs
// exactly one assistant round trip and appends the reply — or the fixed
// fallback on failure, in which case ErrAssistantUnavailable is returned so
// the handler can attach a transient notice. The user's message stays in the
// log either way.
func (s *ChatService) Send(ctx context.Context, userID, text string) (*SendResult, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	sess := s.session(userID)
	// Holding the session lock across the round trip serializes exchanges:
	// at most one is in flight per session.
	sess.mu.Lock()
	defer sess.mu.Unlock()

	userMsg := sess.append(SenderUser, text)
	sess.status = ChatStatusSent

	reply, err := s.Assistant.Ask(ctx, text, assistantContextHint)
	if err != nil {
		fallback := sess.append(SenderAssistant, chatFallback)
		sess.status = ChatStatusFailed
		return &SendResult{UserMessage: userMsg, Reply: fallback, Status: ChatStatusFailed}, err
	}

	replyMsg := sess.append(SenderAssistant, reply)
	sess.status = ChatStatusAnswered

	// Best-effort conversation log — never rolled back, never surfaced.
	s.persistExchange(userID, text, reply)

	return &SendResult{UserMessage: userMsg, Reply: replyMsg, Status: ChatStatusAnswered}, nil
}

func (s *ChatService) persistExchange(userID, message, response string) {
	exchange := models.ChatExchange{
		ID:             uuid.NewString(),
		ExternalUserID: userID,
		Message:        message,
		Response:       response,
	}
	if err := s.DB.Create(&exchange).Error; err != nil {
		log.Printf("⚠️ [CHAT] Failed to persist exchange for user %s: %v", userID, err)
	}
}

// History returns a snapshot copy of the session log.
func (s *ChatService) History(userID string) ([]ChatMessage, string) {
	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]ChatMessage, len(sess.messages))
	copy(out, sess.messages)
	return out, sess.status
}

// Reset drops the in-memory session; the next message starts a fresh log.
// Persisted exchange rows are kept.
func (s *ChatService) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
