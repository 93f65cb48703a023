package actors

import (
	stdctx "context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"swampbook/internal/database"
	"swampbook/internal/models"
	"swampbook/internal/utils"
)

// How long a typing signal stays visible without being refreshed.
const typingTTL = 5 * time.Second

// Message types for ChatActor
type (
	CreateConversationMsg struct {
		UserID        uuid.UUID `json:"userId"`
		ParticipantID uuid.UUID `json:"participantId"`
	}

	ListConversationsMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	GetConversationMsg struct {
		UserID         uuid.UUID `json:"userId"`
		ConversationID uuid.UUID `json:"conversationId"`
	}

	ListMessagesMsg struct {
		UserID         uuid.UUID `json:"userId"`
		ConversationID uuid.UUID `json:"conversationId"`
	}

	SendMessageMsg struct {
		SenderID       uuid.UUID `json:"senderId"`
		ConversationID uuid.UUID `json:"conversationId"`
		Content        string    `json:"content"`
	}

	MarkConversationReadMsg struct {
		UserID         uuid.UUID `json:"userId"`
		ConversationID uuid.UUID `json:"conversationId"`
	}

	SetTypingMsg struct {
		UserID         uuid.UUID `json:"userId"`
		ConversationID uuid.UUID `json:"conversationId"`
		IsTyping       bool      `json:"isTyping"`
	}

	DeleteConversationMsg struct {
		UserID         uuid.UUID `json:"userId"`
		ConversationID uuid.UUID `json:"conversationId"`
	}

	DeleteMessageMsg struct {
		UserID    uuid.UUID `json:"userId"`
		MessageID uuid.UUID `json:"messageId"`
	}

	GetUnreadMessageCountMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	SearchMessagesMsg struct {
		UserID uuid.UUID `json:"userId"`
		Query  string    `json:"query"`
	}
)

// ConversationView is a conversation as one participant sees it: the other
// side resolved to summaries, plus the live typing flag.
type ConversationView struct {
	ID           uuid.UUID            `json:"id"`
	Participants []models.UserSummary `json:"participants"`
	LastMessage  *models.LastMessage  `json:"lastMessage,omitempty"`
	IsTyping     bool                 `json:"isTyping"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// ConversationDetail is a view plus the full ordered message history.
type ConversationDetail struct {
	ConversationView
	Messages []*models.Message `json:"messages"`
}

// ReadReceipt reports how many messages a read call actually flipped.
type ReadReceipt struct {
	MarkedRead int64 `json:"markedRead"`
}

// TypingAck confirms a typing signal was accepted.
type TypingAck struct {
	Success bool `json:"success"`
}

// MessageSearchResult is a matched message with its conversation's other
// participants attached for display.
type MessageSearchResult struct {
	*models.Message
	Participants []models.UserSummary `json:"participants"`
}

// typingEvent is the websocket payload for typing state changes.
type typingEvent struct {
	ConversationID uuid.UUID `json:"conversationId"`
	UserID         uuid.UUID `json:"userId"`
	IsTyping       bool      `json:"isTyping"`
}

// ChatActor owns conversations and messages. Every mutation flows through
// its mailbox, so the check-then-insert in conversation creation can never
// interleave and produce a duplicate pair; the unique pairKey index is only
// a backstop.
type ChatActor struct {
	store           database.Store
	notificationPID *actor.PID
	pusher          Pusher
	metrics         *utils.MetricsCollector

	// typing[conversationID][userID] holds the expiry of that user's typing
	// signal. Entries are pruned lazily on read.
	typing map[uuid.UUID]map[uuid.UUID]time.Time
}

func NewChatActor(store database.Store, notificationPID *actor.PID, pusher Pusher, metrics *utils.MetricsCollector) *ChatActor {
	return &ChatActor{
		store:           store,
		notificationPID: notificationPID,
		pusher:          pusher,
		metrics:         metrics,
		typing:          make(map[uuid.UUID]map[uuid.UUID]time.Time),
	}
}

func (a *ChatActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *CreateConversationMsg:
		a.handleCreateConversation(context, msg)
	case *ListConversationsMsg:
		a.handleListConversations(context, msg)
	case *GetConversationMsg:
		a.handleGetConversation(context, msg)
	case *ListMessagesMsg:
		a.handleListMessages(context, msg)
	case *SendMessageMsg:
		a.handleSendMessage(context, msg)
	case *MarkConversationReadMsg:
		a.handleMarkRead(context, msg)
	case *SetTypingMsg:
		a.handleSetTyping(context, msg)
	case *DeleteConversationMsg:
		a.handleDeleteConversation(context, msg)
	case *DeleteMessageMsg:
		a.handleDeleteMessage(context, msg)
	case *GetUnreadMessageCountMsg:
		a.handleUnreadCount(context, msg)
	case *SearchMessagesMsg:
		a.handleSearch(context, msg)
	}
}

func (a *ChatActor) respondError(context actor.Context, err error, fallback string) {
	if appErr, ok := err.(*utils.AppError); ok {
		context.Respond(appErr)
		return
	}
	context.Respond(utils.NewAppError(utils.ErrDatabase, fallback, err))
}

// getParticipantConversation loads a conversation and enforces membership.
func (a *ChatActor) getParticipantConversation(ctx stdctx.Context, conversationID, userID uuid.UUID) (*models.Conversation, *utils.AppError) {
	conv, err := a.store.GetConversation(ctx, conversationID)
	if err != nil {
		if appErr, ok := err.(*utils.AppError); ok {
			return nil, appErr
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to get conversation", err)
	}
	if !conv.HasParticipant(userID) {
		return nil, utils.NewAppError(utils.ErrNotParticipant, "Not a participant of this conversation", nil)
	}
	return conv, nil
}

// otherIsTyping reports whether anyone besides viewer holds an unexpired
// typing signal in the conversation, pruning what has lapsed.
func (a *ChatActor) otherIsTyping(conversationID, viewerID uuid.UUID) bool {
	signals, ok := a.typing[conversationID]
	if !ok {
		return false
	}
	now := time.Now()
	typing := false
	for userID, expiry := range signals {
		if now.After(expiry) {
			delete(signals, userID)
			continue
		}
		if userID != viewerID {
			typing = true
		}
	}
	if len(signals) == 0 {
		delete(a.typing, conversationID)
	}
	return typing
}

// buildView renders a conversation for one viewer using a prefetched
// summary map.
func (a *ChatActor) buildView(conv *models.Conversation, viewerID uuid.UUID, summaryByID map[uuid.UUID]models.UserSummary) *ConversationView {
	others := conv.OtherParticipants(viewerID)
	participants := make([]models.UserSummary, 0, len(others))
	for _, id := range others {
		if s, ok := summaryByID[id]; ok {
			participants = append(participants, s)
		}
	}
	return &ConversationView{
		ID:           conv.ID,
		Participants: participants,
		LastMessage:  conv.LastMessage,
		IsTyping:     a.otherIsTyping(conv.ID, viewerID),
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
}

// viewFor resolves the other participants and renders a single conversation.
func (a *ChatActor) viewFor(ctx stdctx.Context, conv *models.Conversation, viewerID uuid.UUID) (*ConversationView, error) {
	others := conv.OtherParticipants(viewerID)
	summaryByID := make(map[uuid.UUID]models.UserSummary)
	if len(others) > 0 {
		summaries, err := a.store.GetUserSummaries(ctx, others)
		if err != nil {
			return nil, err
		}
		for _, s := range summaries {
			summaryByID[s.ID] = s
		}
	}
	return a.buildView(conv, viewerID, summaryByID), nil
}

func (a *ChatActor) handleCreateConversation(context actor.Context, msg *CreateConversationMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	if msg.UserID == msg.ParticipantID {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Cannot start a conversation with yourself", nil))
		return
	}
	if _, err := a.store.GetUser(ctx, msg.ParticipantID); err != nil {
		a.respondError(context, err, "Failed to get participant")
		return
	}

	pairKey := models.PairKey(msg.UserID, msg.ParticipantID)
	existing, err := a.store.FindConversationByPairKey(ctx, pairKey)
	if err != nil {
		a.respondError(context, err, "Failed to look up conversation")
		return
	}
	if existing != nil {
		view, err := a.viewFor(ctx, existing, msg.UserID)
		if err != nil {
			a.respondError(context, err, "Failed to render conversation")
			return
		}
		context.Respond(view)
		return
	}

	now := time.Now()
	conv := &models.Conversation{
		ID:           uuid.New(),
		Participants: []uuid.UUID{msg.UserID, msg.ParticipantID},
		PairKey:      pairKey,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveConversation(ctx, conv); err != nil {
		// The unique index caught an insert from a previous process life.
		if utils.IsErrorCode(err, utils.ErrDuplicate) {
			if conv, err = a.store.FindConversationByPairKey(ctx, pairKey); err != nil || conv == nil {
				a.respondError(context, err, "Failed to look up conversation")
				return
			}
		} else {
			a.respondError(context, err, "Failed to create conversation")
			return
		}
	}

	view, err := a.viewFor(ctx, conv, msg.UserID)
	if err != nil {
		a.respondError(context, err, "Failed to render conversation")
		return
	}
	a.metrics.AddOperationLatency("create_conversation", time.Since(start))
	context.Respond(view)
}

func (a *ChatActor) handleListConversations(context actor.Context, msg *ListConversationsMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	conversations, err := a.store.ListUserConversations(ctx, msg.UserID)
	if err != nil {
		a.respondError(context, err, "Failed to get conversations")
		return
	}

	// Resolve every other participant across all conversations in one query.
	otherIDs := make([]uuid.UUID, 0, len(conversations))
	seen := make(map[uuid.UUID]bool)
	for _, conv := range conversations {
		for _, id := range conv.OtherParticipants(msg.UserID) {
			if !seen[id] {
				seen[id] = true
				otherIDs = append(otherIDs, id)
			}
		}
	}
	summaryByID := make(map[uuid.UUID]models.UserSummary)
	if len(otherIDs) > 0 {
		summaries, err := a.store.GetUserSummaries(ctx, otherIDs)
		if err != nil {
			a.respondError(context, err, "Failed to resolve participants")
			return
		}
		for _, s := range summaries {
			summaryByID[s.ID] = s
		}
	}

	views := make([]*ConversationView, 0, len(conversations))
	for _, conv := range conversations {
		views = append(views, a.buildView(conv, msg.UserID, summaryByID))
	}

	// Newest activity first. A conversation with no messages sorts as epoch
	// zero and lands at the end.
	sort.Slice(views, func(i, j int) bool {
		var ti, tj time.Time
		if views[i].LastMessage != nil {
			ti = views[i].LastMessage.Timestamp
		}
		if views[j].LastMessage != nil {
			tj = views[j].LastMessage.Timestamp
		}
		return ti.After(tj)
	})

	a.metrics.AddOperationLatency("list_conversations", time.Since(start))
	context.Respond(views)
}

func (a *ChatActor) handleGetConversation(context actor.Context, msg *GetConversationMsg) {
	ctx := stdctx.Background()

	conv, appErr := a.getParticipantConversation(ctx, msg.ConversationID, msg.UserID)
	if appErr != nil {
		context.Respond(appErr)
		return
	}

	view, err := a.viewFor(ctx, conv, msg.UserID)
	if err != nil {
		a.respondError(context, err, "Failed to render conversation")
		return
	}
	messages, err := a.store.ListConversationMessages(ctx, conv.ID)
	if err != nil {
		a.respondError(context, err, "Failed to get messages")
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}

	context.Respond(&ConversationDetail{
		ConversationView: *view,
		Messages:         messages,
	})
}

func (a *ChatActor) handleListMessages(context actor.Context, msg *ListMessagesMsg) {
	ctx := stdctx.Background()

	if _, appErr := a.getParticipantConversation(ctx, msg.ConversationID, msg.UserID); appErr != nil {
		context.Respond(appErr)
		return
	}

	messages, err := a.store.ListConversationMessages(ctx, msg.ConversationID)
	if err != nil {
		a.respondError(context, err, "Failed to get messages")
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}
	context.Respond(messages)
}

func (a *ChatActor) handleSendMessage(context actor.Context, msg *SendMessageMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		context.Respond(utils.NewValidationError("content"))
		return
	}

	conv, appErr := a.getParticipantConversation(ctx, msg.ConversationID, msg.SenderID)
	if appErr != nil {
		context.Respond(appErr)
		return
	}

	message := &models.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       msg.SenderID,
		Content:        content,
		CreatedAt:      time.Now(),
		IsRead:         false,
	}
	if err := a.store.SaveMessage(ctx, message); err != nil {
		a.respondError(context, err, "Failed to save message")
		return
	}

	snapshot := &models.LastMessage{
		Content:   message.Content,
		SenderID:  message.SenderID,
		Timestamp: message.CreatedAt,
	}
	if err := a.store.SetLastMessage(ctx, conv.ID, snapshot); err != nil {
		a.respondError(context, err, "Failed to update conversation")
		return
	}

	// Sending supersedes any typing signal from the sender.
	if signals, ok := a.typing[conv.ID]; ok {
		delete(signals, msg.SenderID)
	}

	sender, senderErr := a.store.GetUser(ctx, msg.SenderID)
	for _, otherID := range conv.OtherParticipants(msg.SenderID) {
		if senderErr == nil {
			context.Send(a.notificationPID, &AddNotificationMsg{
				UserID:       otherID,
				Type:         models.NotificationMessage,
				ReferenceID:  conv.ID,
				SourceUserID: msg.SenderID,
				Content:      fmt.Sprintf("New message from %s", sender.Username),
			})
		}
		a.pusher.PushToUser(otherID, "message", message)
	}
	if senderErr != nil {
		log.Printf("Failed to load sender %s for message notification: %v", msg.SenderID, senderErr)
	}

	a.metrics.AddOperationLatency("send_message", time.Since(start))
	context.Respond(message)
}

func (a *ChatActor) handleMarkRead(context actor.Context, msg *MarkConversationReadMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	if _, appErr := a.getParticipantConversation(ctx, msg.ConversationID, msg.UserID); appErr != nil {
		context.Respond(appErr)
		return
	}

	modified, err := a.store.MarkConversationMessagesRead(ctx, msg.ConversationID, msg.UserID)
	if err != nil {
		a.respondError(context, err, "Failed to mark messages as read")
		return
	}
	if err := a.store.MarkMessageNotificationsRead(ctx, msg.UserID, msg.ConversationID); err != nil {
		log.Printf("Failed to mark message notifications read for user %s: %v", msg.UserID, err)
	}

	a.metrics.AddOperationLatency("mark_conversation_read", time.Since(start))
	context.Respond(&ReadReceipt{MarkedRead: modified})
}

func (a *ChatActor) handleSetTyping(context actor.Context, msg *SetTypingMsg) {
	ctx := stdctx.Background()

	// Typing is fire-and-forget: a broken signal must never surface to the
	// sender, so membership problems only skip the push.
	conv, appErr := a.getParticipantConversation(ctx, msg.ConversationID, msg.UserID)
	if appErr != nil {
		context.Respond(&TypingAck{Success: true})
		return
	}

	if msg.IsTyping {
		if a.typing[conv.ID] == nil {
			a.typing[conv.ID] = make(map[uuid.UUID]time.Time)
		}
		a.typing[conv.ID][msg.UserID] = time.Now().Add(typingTTL)
	} else if signals, ok := a.typing[conv.ID]; ok {
		delete(signals, msg.UserID)
	}

	event := &typingEvent{
		ConversationID: conv.ID,
		UserID:         msg.UserID,
		IsTyping:       msg.IsTyping,
	}
	for _, otherID := range conv.OtherParticipants(msg.UserID) {
		a.pusher.PushToUser(otherID, "typing", event)
	}

	context.Respond(&TypingAck{Success: true})
}

func (a *ChatActor) handleDeleteConversation(context actor.Context, msg *DeleteConversationMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	conv, appErr := a.getParticipantConversation(ctx, msg.ConversationID, msg.UserID)
	if appErr != nil {
		context.Respond(appErr)
		return
	}

	if err := a.store.DeleteConversationMessages(ctx, conv.ID); err != nil {
		a.respondError(context, err, "Failed to delete messages")
		return
	}
	if err := a.store.DeleteConversationNotifications(ctx, conv.ID); err != nil {
		log.Printf("Failed to purge notifications for conversation %s: %v", conv.ID, err)
	}
	if err := a.store.DeleteConversation(ctx, conv.ID); err != nil {
		a.respondError(context, err, "Failed to delete conversation")
		return
	}
	delete(a.typing, conv.ID)

	a.metrics.AddOperationLatency("delete_conversation", time.Since(start))
	context.Respond(&struct {
		Success bool `json:"success"`
	}{Success: true})
}

func (a *ChatActor) handleDeleteMessage(context actor.Context, msg *DeleteMessageMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	message, err := a.store.GetMessage(ctx, msg.MessageID)
	if err != nil {
		a.respondError(context, err, "Failed to get message")
		return
	}
	if message.SenderID != msg.UserID {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "Only the sender can delete a message", nil))
		return
	}

	if err := a.store.DeleteMessage(ctx, message.ID); err != nil {
		a.respondError(context, err, "Failed to delete message")
		return
	}

	// The snapshot must keep mirroring the newest surviving message.
	latest, err := a.store.LatestConversationMessage(ctx, message.ConversationID)
	if err != nil {
		a.respondError(context, err, "Failed to refresh conversation")
		return
	}
	if latest == nil {
		if err := a.store.ClearLastMessage(ctx, message.ConversationID); err != nil {
			a.respondError(context, err, "Failed to refresh conversation")
			return
		}
	} else {
		snapshot := &models.LastMessage{
			Content:   latest.Content,
			SenderID:  latest.SenderID,
			Timestamp: latest.CreatedAt,
		}
		if err := a.store.SetLastMessage(ctx, message.ConversationID, snapshot); err != nil {
			a.respondError(context, err, "Failed to refresh conversation")
			return
		}
	}

	a.metrics.AddOperationLatency("delete_message", time.Since(start))
	context.Respond(&struct {
		Success bool `json:"success"`
	}{Success: true})
}

func (a *ChatActor) handleUnreadCount(context actor.Context, msg *GetUnreadMessageCountMsg) {
	ctx := stdctx.Background()

	conversations, err := a.store.ListUserConversations(ctx, msg.UserID)
	if err != nil {
		a.respondError(context, err, "Failed to get conversations")
		return
	}
	convIDs := make([]uuid.UUID, 0, len(conversations))
	for _, conv := range conversations {
		convIDs = append(convIDs, conv.ID)
	}

	count, err := a.store.CountUnreadMessages(ctx, msg.UserID, convIDs)
	if err != nil {
		a.respondError(context, err, "Failed to count unread messages")
		return
	}
	context.Respond(&UnreadCountResult{Count: count})
}

func (a *ChatActor) handleSearch(context actor.Context, msg *SearchMessagesMsg) {
	ctx := stdctx.Background()

	query := strings.TrimSpace(msg.Query)
	if query == "" {
		context.Respond(utils.NewValidationError("query"))
		return
	}

	conversations, err := a.store.ListUserConversations(ctx, msg.UserID)
	if err != nil {
		a.respondError(context, err, "Failed to get conversations")
		return
	}
	convByID := make(map[uuid.UUID]*models.Conversation, len(conversations))
	convIDs := make([]uuid.UUID, 0, len(conversations))
	otherIDs := make([]uuid.UUID, 0, len(conversations))
	seen := make(map[uuid.UUID]bool)
	for _, conv := range conversations {
		convByID[conv.ID] = conv
		convIDs = append(convIDs, conv.ID)
		for _, id := range conv.OtherParticipants(msg.UserID) {
			if !seen[id] {
				seen[id] = true
				otherIDs = append(otherIDs, id)
			}
		}
	}

	matches, err := a.store.SearchMessages(ctx, convIDs, query)
	if err != nil {
		a.respondError(context, err, "Failed to search messages")
		return
	}

	summaryByID := make(map[uuid.UUID]models.UserSummary)
	if len(otherIDs) > 0 {
		summaries, err := a.store.GetUserSummaries(ctx, otherIDs)
		if err != nil {
			a.respondError(context, err, "Failed to resolve participants")
			return
		}
		for _, s := range summaries {
			summaryByID[s.ID] = s
		}
	}

	results := make([]*MessageSearchResult, 0, len(matches))
	for _, m := range matches {
		conv := convByID[m.ConversationID]
		participants := []models.UserSummary{}
		if conv != nil {
			for _, id := range conv.OtherParticipants(msg.UserID) {
				if s, ok := summaryByID[id]; ok {
					participants = append(participants, s)
				}
			}
		}
		results = append(results, &MessageSearchResult{
			Message:      m,
			Participants: participants,
		})
	}
	context.Respond(results)
}
