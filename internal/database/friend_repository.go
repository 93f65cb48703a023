// internal/database/friend_repository.go
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

// FriendRequestDocument represents the MongoDB schema for a friend request
type FriendRequestDocument struct {
	ID        string    `bson:"_id"`
	Sender    string    `bson:"sender"`
	Recipient string    `bson:"recipient"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"createdAt"`
}

func documentToFriendRequest(doc *FriendRequestDocument) (*models.FriendRequest, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid friend request ID in database: %v", err)
	}
	sender, err := uuid.Parse(doc.Sender)
	if err != nil {
		return nil, fmt.Errorf("invalid sender ID in database: %v", err)
	}
	recipient, err := uuid.Parse(doc.Recipient)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient ID in database: %v", err)
	}

	return &models.FriendRequest{
		ID:        id,
		Sender:    sender,
		Recipient: recipient,
		Status:    doc.Status,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// SaveFriendRequest inserts a new friend request
func (m *MongoDB) SaveFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	doc := FriendRequestDocument{
		ID:        req.ID.String(),
		Sender:    req.Sender.String(),
		Recipient: req.Recipient.String(),
		Status:    req.Status,
		CreatedAt: req.CreatedAt,
	}

	_, err := m.FriendRequests.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save friend request: %v", err)
	}
	return nil
}

// GetPendingRequest finds the pending request from sender to recipient
func (m *MongoDB) GetPendingRequest(ctx context.Context, sender, recipient uuid.UUID) (*models.FriendRequest, error) {
	var doc FriendRequestDocument

	err := m.FriendRequests.FindOne(ctx, bson.M{
		"sender":    sender.String(),
		"recipient": recipient.String(),
		"status":    models.FriendRequestPending,
	}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return documentToFriendRequest(&doc)
}

// GetPendingRequestBetween finds a pending request in either direction
func (m *MongoDB) GetPendingRequestBetween(ctx context.Context, a, b uuid.UUID) (*models.FriendRequest, error) {
	var doc FriendRequestDocument

	err := m.FriendRequests.FindOne(ctx, bson.M{
		"status": models.FriendRequestPending,
		"$or": []bson.M{
			{"sender": a.String(), "recipient": b.String()},
			{"sender": b.String(), "recipient": a.String()},
		},
	}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return documentToFriendRequest(&doc)
}

// SetFriendRequestStatus updates the status of a request
func (m *MongoDB) SetFriendRequestStatus(ctx context.Context, id uuid.UUID, status string) error {
	result, err := m.FriendRequests.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return fmt.Errorf("failed to update friend request: %v", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrFriendRequestMissing, "Friend request not found", nil)
	}
	return nil
}

// DeleteFriendRequest removes a request. Rejecting deletes the row so the
// sender may ask again later
func (m *MongoDB) DeleteFriendRequest(ctx context.Context, id uuid.UUID) error {
	result, err := m.FriendRequests.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrFriendRequestMissing, "Friend request not found", nil)
	}
	return nil
}

// DeleteRequestsBetween purges every request between two users, used when a
// friendship is removed
func (m *MongoDB) DeleteRequestsBetween(ctx context.Context, a, b uuid.UUID) error {
	_, err := m.FriendRequests.DeleteMany(ctx, bson.M{
		"$or": []bson.M{
			{"sender": a.String(), "recipient": b.String()},
			{"sender": b.String(), "recipient": a.String()},
		},
	})
	return err
}

// ListPendingRequests returns requests awaiting the recipient, newest first
func (m *MongoDB) ListPendingRequests(ctx context.Context, recipient uuid.UUID) ([]*models.FriendRequest, error) {
	cursor, err := m.FriendRequests.Find(ctx,
		bson.M{
			"recipient": recipient.String(),
			"status":    models.FriendRequestPending,
		},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get friend requests: %v", err)
	}
	defer cursor.Close(ctx)

	var requests []*models.FriendRequest
	for cursor.Next(ctx) {
		var doc FriendRequestDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode friend request: %v", err)
		}
		req, err := documentToFriendRequest(&doc)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}
