// internal/database/notification_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"swampbook/internal/models"
	"swampbook/internal/utils"
)

// NotificationDocument represents the MongoDB schema for a notification
type NotificationDocument struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"userId"`
	Type         string    `bson:"type"`
	ReferenceID  string    `bson:"referenceId,omitempty"`
	SourceUserID string    `bson:"sourceUserId,omitempty"`
	Content      string    `bson:"content"`
	IsRead       bool      `bson:"isRead"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func documentToNotification(doc *NotificationDocument) (*models.Notification, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid notification ID in database: %v", err)
	}
	userID, err := uuid.Parse(doc.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid notification user ID in database: %v", err)
	}

	n := &models.Notification{
		ID:        id,
		UserID:    userID,
		Type:      doc.Type,
		Content:   doc.Content,
		IsRead:    doc.IsRead,
		CreatedAt: doc.CreatedAt,
	}
	if doc.ReferenceID != "" {
		refID, err := uuid.Parse(doc.ReferenceID)
		if err != nil {
			return nil, fmt.Errorf("invalid notification reference ID in database: %v", err)
		}
		n.ReferenceID = refID
	}
	if doc.SourceUserID != "" {
		sourceID, err := uuid.Parse(doc.SourceUserID)
		if err != nil {
			return nil, fmt.Errorf("invalid notification source user ID in database: %v", err)
		}
		n.SourceUserID = sourceID
	}
	return n, nil
}

// SaveNotification inserts a new notification
func (m *MongoDB) SaveNotification(ctx context.Context, n *models.Notification) error {
	doc := NotificationDocument{
		ID:        n.ID.String(),
		UserID:    n.UserID.String(),
		Type:      n.Type,
		Content:   n.Content,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
	if n.ReferenceID != uuid.Nil {
		doc.ReferenceID = n.ReferenceID.String()
	}
	if n.SourceUserID != uuid.Nil {
		doc.SourceUserID = n.SourceUserID.String()
	}

	_, err := m.Notifications.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save notification: %v", err)
	}
	return nil
}

// GetNotification retrieves a notification by ID
func (m *MongoDB) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var doc NotificationDocument

	err := m.Notifications.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Notification not found", err)
	}
	if err != nil {
		return nil, err
	}

	return documentToNotification(&doc)
}

// ListUserNotifications returns a user's notifications, newest first
func (m *MongoDB) ListUserNotifications(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	cursor, err := m.Notifications.Find(ctx,
		bson.M{"userId": userID.String()},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %v", err)
	}
	defer cursor.Close(ctx)

	var notifications []*models.Notification
	for cursor.Next(ctx) {
		var doc NotificationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %v", err)
		}
		n, err := documentToNotification(&doc)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// MarkNotificationRead marks a single notification as read
func (m *MongoDB) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	result, err := m.Notifications.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %v", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Notification not found", nil)
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification for a user,
// returning how many were modified
func (m *MongoDB) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := m.Notifications.UpdateMany(ctx,
		bson.M{"userId": userID.String(), "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %v", err)
	}
	return result.ModifiedCount, nil
}

// MarkMessageNotificationsRead marks the user's message notifications for a
// conversation as read, triggered when the conversation itself is read
func (m *MongoDB) MarkMessageNotificationsRead(ctx context.Context, userID, conversationID uuid.UUID) error {
	_, err := m.Notifications.UpdateMany(ctx,
		bson.M{
			"userId":      userID.String(),
			"type":        models.NotificationMessage,
			"referenceId": conversationID.String(),
			"isRead":      false,
		},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark message notifications as read: %v", err)
	}
	return nil
}

// DeleteNotification removes a notification
func (m *MongoDB) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	result, err := m.Notifications.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Notification not found", nil)
	}
	return nil
}

// DeleteConversationNotifications purges message notifications referencing a
// deleted conversation
func (m *MongoDB) DeleteConversationNotifications(ctx context.Context, conversationID uuid.UUID) error {
	_, err := m.Notifications.DeleteMany(ctx, bson.M{
		"type":        models.NotificationMessage,
		"referenceId": conversationID.String(),
	})
	return err
}

// CountUnreadNotifications counts a user's unread notifications
func (m *MongoDB) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.Notifications.CountDocuments(ctx, bson.M{
		"userId": userID.String(),
		"isRead": false,
	})
}
