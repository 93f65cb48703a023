// internal/database/message_repository.go
package database

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"swampbook/internal/models"
	"swampbook/internal/utils"
)

// MessageDocument represents the MongoDB schema for a message. The wire and
// storage schema is canonical: senderId and createdAt, nothing else.
type MessageDocument struct {
	ID             string    `bson:"_id"`
	ConversationID string    `bson:"conversationId"`
	SenderID       string    `bson:"senderId"`
	Content        string    `bson:"content"`
	CreatedAt      time.Time `bson:"createdAt"`
	IsRead         bool      `bson:"isRead"`
}

func documentToMessage(doc *MessageDocument) (*models.Message, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid message ID in database: %v", err)
	}
	conversationID, err := uuid.Parse(doc.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("invalid conversation ID in database: %v", err)
	}
	senderID, err := uuid.Parse(doc.SenderID)
	if err != nil {
		return nil, fmt.Errorf("invalid sender ID in database: %v", err)
	}

	return &models.Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        doc.Content,
		CreatedAt:      doc.CreatedAt,
		IsRead:         doc.IsRead,
	}, nil
}

func decodeMessages(ctx context.Context, cursor *mongo.Cursor) ([]*models.Message, error) {
	defer cursor.Close(ctx)

	var messages []*models.Message
	for cursor.Next(ctx) {
		var doc MessageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode message: %v", err)
		}
		msg, err := documentToMessage(&doc)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// SaveMessage inserts a new message
func (m *MongoDB) SaveMessage(ctx context.Context, msg *models.Message) error {
	doc := MessageDocument{
		ID:             msg.ID.String(),
		ConversationID: msg.ConversationID.String(),
		SenderID:       msg.SenderID.String(),
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
		IsRead:         msg.IsRead,
	}

	_, err := m.Messages.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save message: %v", err)
	}
	return nil
}

// GetMessage retrieves a message by ID
func (m *MongoDB) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var doc MessageDocument

	err := m.Messages.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrMessageNotFound, "Message not found", err)
	}
	if err != nil {
		return nil, err
	}

	return documentToMessage(&doc)
}

// ListConversationMessages returns the conversation's messages oldest first,
// the canonical chat order
func (m *MongoDB) ListConversationMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.Message, error) {
	cursor, err := m.Messages.Find(ctx,
		bson.M{"conversationId": conversationID.String()},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %v", err)
	}

	return decodeMessages(ctx, cursor)
}

// LatestConversationMessage returns the newest remaining message, or nil
// when the conversation is empty
func (m *MongoDB) LatestConversationMessage(ctx context.Context, conversationID uuid.UUID) (*models.Message, error) {
	var doc MessageDocument

	err := m.Messages.FindOne(ctx,
		bson.M{"conversationId": conversationID.String()},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return documentToMessage(&doc)
}

// MarkConversationMessagesRead bulk-marks messages not sent by the reader.
// Returns the number of messages actually modified, so repeated calls report
// zero
func (m *MongoDB) MarkConversationMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	filter := bson.M{
		"conversationId": conversationID.String(),
		"senderId":       bson.M{"$ne": readerID.String()},
		"isRead":         false,
	}
	update := bson.M{"$set": bson.M{"isRead": true}}

	result, err := m.Messages.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages as read: %v", err)
	}
	return result.ModifiedCount, nil
}

// DeleteMessage removes a single message
func (m *MongoDB) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	result, err := m.Messages.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrMessageNotFound, "Message not found", nil)
	}
	return nil
}

// DeleteConversationMessages removes every message in a conversation
func (m *MongoDB) DeleteConversationMessages(ctx context.Context, conversationID uuid.UUID) error {
	_, err := m.Messages.DeleteMany(ctx, bson.M{"conversationId": conversationID.String()})
	return err
}

// CountUnreadMessages counts unread messages addressed to the user across
// their conversations
func (m *MongoDB) CountUnreadMessages(ctx context.Context, userID uuid.UUID, conversationIDs []uuid.UUID) (int64, error) {
	if len(conversationIDs) == 0 {
		return 0, nil
	}

	idStrs := make([]string, len(conversationIDs))
	for i, id := range conversationIDs {
		idStrs[i] = id.String()
	}

	return m.Messages.CountDocuments(ctx, bson.M{
		"conversationId": bson.M{"$in": idStrs},
		"senderId":       bson.M{"$ne": userID.String()},
		"isRead":         false,
	})
}

// SearchMessages matches message content case-insensitively across the given
// conversations, newest first
func (m *MongoDB) SearchMessages(ctx context.Context, conversationIDs []uuid.UUID, query string) ([]*models.Message, error) {
	if len(conversationIDs) == 0 {
		return []*models.Message{}, nil
	}

	idStrs := make([]string, len(conversationIDs))
	for i, id := range conversationIDs {
		idStrs[i] = id.String()
	}

	cursor, err := m.Messages.Find(ctx,
		bson.M{
			"conversationId": bson.M{"$in": idStrs},
			"content":        bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"},
		},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %v", err)
	}

	return decodeMessages(ctx, cursor)
}
