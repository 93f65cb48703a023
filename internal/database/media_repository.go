// internal/database/media_repository.go
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

// MediaDocument represents the MongoDB schema for an upload record
type MediaDocument struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"userId"`
	Type         string    `bson:"type"`
	URL          string    `bson:"url"`
	ThumbnailURL string    `bson:"thumbnailUrl,omitempty"`
	Filename     string    `bson:"filename"`
	Size         int64     `bson:"size"`
	Description  string    `bson:"description,omitempty"`
	Tags         []string  `bson:"tags,omitempty"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func documentToMedia(doc *MediaDocument) (*models.Media, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid media ID in database: %v", err)
	}
	ownerID, err := uuid.Parse(doc.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid media user ID in database: %v", err)
	}

	return &models.Media{
		ID:           id,
		UserID:       ownerID,
		Type:         doc.Type,
		URL:          doc.URL,
		ThumbnailURL: doc.ThumbnailURL,
		Filename:     doc.Filename,
		Size:         doc.Size,
		Description:  doc.Description,
		Tags:         doc.Tags,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

// SaveMedia records an upload
func (m *MongoDB) SaveMedia(ctx context.Context, media *models.Media) error {
	doc := MediaDocument{
		ID:           media.ID.String(),
		UserID:       media.UserID.String(),
		Type:         media.Type,
		URL:          media.URL,
		ThumbnailURL: media.ThumbnailURL,
		Filename:     media.Filename,
		Size:         media.Size,
		Description:  media.Description,
		Tags:         media.Tags,
		CreatedAt:    media.CreatedAt,
	}

	_, err := m.Media.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save media record: %v", err)
	}
	return nil
}

// GetMedia returns one upload record by ID
func (m *MongoDB) GetMedia(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	var doc MediaDocument
	err := m.Media.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Media not found", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media record: %v", err)
	}
	return documentToMedia(&doc)
}

// ListUserMedia returns a user's uploads, newest first
func (m *MongoDB) ListUserMedia(ctx context.Context, userID uuid.UUID) ([]*models.Media, error) {
	cursor, err := m.Media.Find(ctx,
		bson.M{"userId": userID.String()},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get media: %v", err)
	}
	return decodeMediaRecords(ctx, cursor)
}

func decodeMediaRecords(ctx context.Context, cursor *mongo.Cursor) ([]*models.Media, error) {
	defer cursor.Close(ctx)

	var items []*models.Media
	for cursor.Next(ctx) {
		var doc MediaDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode media record: %v", err)
		}
		media, err := documentToMedia(&doc)
		if err != nil {
			return nil, err
		}
		items = append(items, media)
	}
	return items, nil
}

// UpdateMedia edits a record's description and tags
func (m *MongoDB) UpdateMedia(ctx context.Context, id uuid.UUID, update *models.MediaUpdate) error {
	set := bson.M{}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Tags != nil {
		set["tags"] = update.Tags
	}
	if len(set) == 0 {
		return nil
	}

	result, err := m.Media.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update media record: %v", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Media not found", nil)
	}
	return nil
}

// DeleteMedia removes an upload record
func (m *MongoDB) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	result, err := m.Media.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete media record: %v", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Media not found", nil)
	}
	return nil
}

// SearchMediaByTags returns records carrying any of the given tags,
// newest first
func (m *MongoDB) SearchMediaByTags(ctx context.Context, tags []string) ([]*models.Media, error) {
	cursor, err := m.Media.Find(ctx,
		bson.M{"tags": bson.M{"$in": tags}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search media: %v", err)
	}
	return decodeMediaRecords(ctx, cursor)
}
