// internal/database/conversation_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"swampbook/internal/models"
	"swampbook/internal/utils"
)

// ConversationDocument represents the MongoDB schema for a conversation
type ConversationDocument struct {
	ID           string               `bson:"_id"`
	Participants []string             `bson:"participants"`
	PairKey      string               `bson:"pairKey"`
	LastMessage  *LastMessageDocument `bson:"lastMessage,omitempty"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

type LastMessageDocument struct {
	Content   string    `bson:"content"`
	SenderID  string    `bson:"senderId"`
	Timestamp time.Time `bson:"timestamp"`
}

func documentToConversation(doc *ConversationDocument) (*models.Conversation, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid conversation ID in database: %v", err)
	}

	participants := make([]uuid.UUID, len(doc.Participants))
	for i, idStr := range doc.Participants {
		participantID, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid participant ID in database: %v", err)
		}
		participants[i] = participantID
	}

	conv := &models.Conversation{
		ID:           id,
		Participants: participants,
		PairKey:      doc.PairKey,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}

	if doc.LastMessage != nil {
		senderID, err := uuid.Parse(doc.LastMessage.SenderID)
		if err != nil {
			return nil, fmt.Errorf("invalid sender ID in database: %v", err)
		}
		conv.LastMessage = &models.LastMessage{
			Content:   doc.LastMessage.Content,
			SenderID:  senderID,
			Timestamp: doc.LastMessage.Timestamp,
		}
	}

	return conv, nil
}

// SaveConversation inserts a new conversation
func (m *MongoDB) SaveConversation(ctx context.Context, conv *models.Conversation) error {
	doc := ConversationDocument{
		ID:           conv.ID.String(),
		Participants: make([]string, len(conv.Participants)),
		PairKey:      conv.PairKey,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
	for i, p := range conv.Participants {
		doc.Participants[i] = p.String()
	}

	_, err := m.Conversations.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return utils.NewAppError(utils.ErrDuplicate, "Conversation already exists", err)
	}
	if err != nil {
		return fmt.Errorf("failed to save conversation: %v", err)
	}
	return nil
}

// GetConversation retrieves a conversation by ID
func (m *MongoDB) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var doc ConversationDocument

	err := m.Conversations.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewConversationNotFoundError(id.String())
	}
	if err != nil {
		return nil, err
	}

	return documentToConversation(&doc)
}

// FindConversationByPairKey looks up the conversation for an unordered
// participant pair; returns nil, nil when none exists
func (m *MongoDB) FindConversationByPairKey(ctx context.Context, pairKey string) (*models.Conversation, error) {
	var doc ConversationDocument

	err := m.Conversations.FindOne(ctx, bson.M{"pairKey": pairKey}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return documentToConversation(&doc)
}

// ListUserConversations returns every conversation the user participates in
func (m *MongoDB) ListUserConversations(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	cursor, err := m.Conversations.Find(ctx, bson.M{"participants": userID.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %v", err)
	}
	defer cursor.Close(ctx)

	var conversations []*models.Conversation
	for cursor.Next(ctx) {
		var doc ConversationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode conversation: %v", err)
		}
		conv, err := documentToConversation(&doc)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}

	return conversations, nil
}

// SetLastMessage updates the denormalized snapshot and bumps updatedAt
func (m *MongoDB) SetLastMessage(ctx context.Context, conversationID uuid.UUID, snapshot *models.LastMessage) error {
	update := bson.M{"$set": bson.M{
		"lastMessage": LastMessageDocument{
			Content:   snapshot.Content,
			SenderID:  snapshot.SenderID.String(),
			Timestamp: snapshot.Timestamp,
		},
		"updatedAt": time.Now(),
	}}

	result, err := m.Conversations.UpdateOne(ctx, bson.M{"_id": conversationID.String()}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewConversationNotFoundError(conversationID.String())
	}
	return nil
}

// ClearLastMessage removes the snapshot entirely
func (m *MongoDB) ClearLastMessage(ctx context.Context, conversationID uuid.UUID) error {
	update := bson.M{
		"$unset": bson.M{"lastMessage": ""},
		"$set":   bson.M{"updatedAt": time.Now()},
	}

	result, err := m.Conversations.UpdateOne(ctx, bson.M{"_id": conversationID.String()}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewConversationNotFoundError(conversationID.String())
	}
	return nil
}

// DeleteConversation removes the conversation document
func (m *MongoDB) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	result, err := m.Conversations.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return utils.NewConversationNotFoundError(id.String())
	}
	return nil
}
