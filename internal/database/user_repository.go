// internal/database/user_repository.go
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

// UserDocument represents the MongoDB schema for a user
type UserDocument struct {
	ID                 string    `bson:"_id"`
	Username           string    `bson:"username"`
	Email              string    `bson:"email"`
	HashedPassword     string    `bson:"hashedPassword"`
	FullName           string    `bson:"fullName"`
	Role               string    `bson:"role"`
	Bio                string    `bson:"bio,omitempty"`
	Workplace          string    `bson:"workplace,omitempty"`
	Education          string    `bson:"education,omitempty"`
	Location           string    `bson:"location,omitempty"`
	RelationshipStatus string    `bson:"relationshipStatus,omitempty"`
	Birthday           string    `bson:"birthday,omitempty"`
	Phone              string    `bson:"phone,omitempty"`
	Website            string    `bson:"website,omitempty"`
	ProfilePicture     string    `bson:"profilePicture,omitempty"`
	CoverPhoto         string    `bson:"coverPhoto,omitempty"`
	Friends            []string  `bson:"friends"`
	CreatedAt          time.Time `bson:"createdAt"`
	LastActive         time.Time `bson:"lastActive"`
	IsOnline           bool      `bson:"isOnline"`
}

func userToDocument(user *models.User) UserDocument {
	doc := UserDocument{
		ID:                 user.ID.String(),
		Username:           user.Username,
		Email:              user.Email,
		HashedPassword:     user.HashedPassword,
		FullName:           user.FullName,
		Role:               user.Role,
		Bio:                user.Bio,
		Workplace:          user.Workplace,
		Education:          user.Education,
		Location:           user.Location,
		RelationshipStatus: user.RelationshipStatus,
		Birthday:           user.Birthday,
		Phone:              user.Phone,
		Website:            user.Website,
		ProfilePicture:     user.ProfilePicture,
		CoverPhoto:         user.CoverPhoto,
		Friends:            make([]string, len(user.Friends)),
		CreatedAt:          user.CreatedAt,
		LastActive:         user.LastActive,
		IsOnline:           user.IsOnline,
	}
	for i, friendID := range user.Friends {
		doc.Friends[i] = friendID.String()
	}
	return doc
}

func documentToUser(doc *UserDocument) (*models.User, error) {
	userID, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in database: %v", err)
	}

	friends := make([]uuid.UUID, len(doc.Friends))
	for i, idStr := range doc.Friends {
		friendID, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid friend ID in database: %v", err)
		}
		friends[i] = friendID
	}

	return &models.User{
		ID:                 userID,
		Username:           doc.Username,
		Email:              doc.Email,
		HashedPassword:     doc.HashedPassword,
		FullName:           doc.FullName,
		Role:               doc.Role,
		Bio:                doc.Bio,
		Workplace:          doc.Workplace,
		Education:          doc.Education,
		Location:           doc.Location,
		RelationshipStatus: doc.RelationshipStatus,
		Birthday:           doc.Birthday,
		Phone:              doc.Phone,
		Website:            doc.Website,
		ProfilePicture:     doc.ProfilePicture,
		CoverPhoto:         doc.CoverPhoto,
		Friends:            friends,
		CreatedAt:          doc.CreatedAt,
		LastActive:         doc.LastActive,
		IsOnline:           doc.IsOnline,
	}, nil
}

// SaveUser creates or updates a user in MongoDB
func (m *MongoDB) SaveUser(ctx context.Context, user *models.User) error {
	doc := userToDocument(user)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": user.ID.String()}
	update := bson.M{"$set": doc}

	_, err := m.Users.UpdateOne(ctx, filter, update, opts)
	return err
}

// GetUser retrieves a user from MongoDB by their ID
func (m *MongoDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var doc UserDocument

	err := m.Users.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", err)
	}
	if err != nil {
		return nil, err
	}

	return documentToUser(&doc)
}

// GetUserByEmail retrieves a user from MongoDB by their email address
func (m *MongoDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc UserDocument

	err := m.Users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", err)
	}
	if err != nil {
		return nil, err
	}

	return documentToUser(&doc)
}

// GetUserByUsername retrieves a user from MongoDB by their username
func (m *MongoDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var doc UserDocument

	err := m.Users.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", err)
	}
	if err != nil {
		return nil, err
	}

	return documentToUser(&doc)
}

// UpdateUserProfile applies the non-nil fields of the update to the user
func (m *MongoDB) UpdateUserProfile(ctx context.Context, id uuid.UUID, update *models.ProfileUpdate) error {
	set := bson.M{}
	if update.FullName != nil {
		set["fullName"] = *update.FullName
	}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.Workplace != nil {
		set["workplace"] = *update.Workplace
	}
	if update.Education != nil {
		set["education"] = *update.Education
	}
	if update.Location != nil {
		set["location"] = *update.Location
	}
	if update.RelationshipStatus != nil {
		set["relationshipStatus"] = *update.RelationshipStatus
	}
	if update.Birthday != nil {
		set["birthday"] = *update.Birthday
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.Website != nil {
		set["website"] = *update.Website
	}

	if len(set) == 0 {
		return nil
	}

	result, err := m.Users.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	return nil
}

// SetUserPicture updates the profilePicture or coverPhoto field
func (m *MongoDB) SetUserPicture(ctx context.Context, id uuid.UUID, field string, url string) error {
	result, err := m.Users.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{field: url}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	return nil
}

// UpdateUserActivity updates a user's last active time and online status
func (m *MongoDB) UpdateUserActivity(ctx context.Context, id uuid.UUID, isOnline bool) error {
	filter := bson.M{"_id": id.String()}
	update := bson.M{"$set": bson.M{
		"lastActive": time.Now(),
		"isOnline":   isOnline,
	}}

	result, err := m.Users.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	return nil
}

// GetUserSummaries fetches the public projection for a set of user ids
func (m *MongoDB) GetUserSummaries(ctx context.Context, ids []uuid.UUID) ([]models.UserSummary, error) {
	if len(ids) == 0 {
		return []models.UserSummary{}, nil
	}

	idStrs := make([]string, len(ids))
	for i, id := range ids {
		idStrs[i] = id.String()
	}

	cursor, err := m.Users.Find(ctx,
		bson.M{"_id": bson.M{"$in": idStrs}},
		options.Find().SetProjection(bson.M{"_id": 1, "username": 1, "fullName": 1, "profilePicture": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var summaries []models.UserSummary
	for cursor.Next(ctx) {
		var doc struct {
			ID             string `bson:"_id"`
			Username       string `bson:"username"`
			FullName       string `bson:"fullName"`
			ProfilePicture string `bson:"profilePicture"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode user summary: %v", err)
		}

		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID in database: %v", err)
		}

		summaries = append(summaries, models.UserSummary{
			ID:             id,
			Username:       doc.Username,
			FullName:       doc.FullName,
			ProfilePicture: doc.ProfilePicture,
		})
	}

	return summaries, nil
}

// SearchUsers matches username, fullName or email case-insensitively,
// excluding the searching user
func (m *MongoDB) SearchUsers(ctx context.Context, query string, exclude uuid.UUID) ([]*models.User, error) {
	// Escape so "j.doe(1)" matches literally instead of breaking the regex.
	pattern := regexp.QuoteMeta(query)
	filter := bson.M{
		"$and": []bson.M{
			{"_id": bson.M{"$ne": exclude.String()}},
			{"$or": []bson.M{
				{"username": bson.M{"$regex": pattern, "$options": "i"}},
				{"fullName": bson.M{"$regex": pattern, "$options": "i"}},
				{"email": bson.M{"$regex": pattern, "$options": "i"}},
			}},
		},
	}

	cursor, err := m.Users.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %v", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	for cursor.Next(ctx) {
		var doc UserDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode user: %v", err)
		}
		user, err := documentToUser(&doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, nil
}

// AddFriend adds friendID to the user's friends set
func (m *MongoDB) AddFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	result, err := m.Users.UpdateOne(ctx,
		bson.M{"_id": userID.String()},
		bson.M{"$addToSet": bson.M{"friends": friendID.String()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	return nil
}

// RemoveFriend pulls friendID from the user's friends set
func (m *MongoDB) RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	result, err := m.Users.UpdateOne(ctx,
		bson.M{"_id": userID.String()},
		bson.M{"$pull": bson.M{"friends": friendID.String()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	return nil
}
