// internal/database/post_repository.go
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

// PostDocument represents the MongoDB schema for a post. Likes and comments
// are embedded, matching the read pattern: a post is always rendered whole.
type PostDocument struct {
	ID        string            `bson:"_id"`
	UserID    string            `bson:"userId"`
	Content   string            `bson:"content"`
	ImageURL  string            `bson:"imageUrl,omitempty"`
	Likes     []string          `bson:"likes"`
	Comments  []CommentDocument `bson:"comments"`
	CreatedAt time.Time         `bson:"createdAt"`
}

// CommentDocument is the embedded comment schema
type CommentDocument struct {
	ID              string     `bson:"_id"`
	UserID          string     `bson:"userId"`
	Content         string     `bson:"content"`
	ParentCommentID *string    `bson:"parentCommentId,omitempty"`
	Likes           []string   `bson:"likes"`
	CreatedAt       time.Time  `bson:"createdAt"`
	UpdatedAt       *time.Time `bson:"updatedAt,omitempty"`
}

func commentToDocument(c *models.Comment) CommentDocument {
	doc := CommentDocument{
		ID:        c.ID.String(),
		UserID:    c.UserID.String(),
		Content:   c.Content,
		Likes:     make([]string, 0, len(c.Likes)),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, id := range c.Likes {
		doc.Likes = append(doc.Likes, id.String())
	}
	if c.ParentCommentID != nil {
		parent := c.ParentCommentID.String()
		doc.ParentCommentID = &parent
	}
	return doc
}

func documentToComment(doc *CommentDocument) (models.Comment, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return models.Comment{}, fmt.Errorf("invalid comment ID in database: %v", err)
	}
	userID, err := uuid.Parse(doc.UserID)
	if err != nil {
		return models.Comment{}, fmt.Errorf("invalid comment user ID in database: %v", err)
	}

	comment := models.Comment{
		ID:        id,
		UserID:    userID,
		Content:   doc.Content,
		Likes:     make([]uuid.UUID, 0, len(doc.Likes)),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	for _, likeStr := range doc.Likes {
		likeID, err := uuid.Parse(likeStr)
		if err != nil {
			return models.Comment{}, fmt.Errorf("invalid comment like ID in database: %v", err)
		}
		comment.Likes = append(comment.Likes, likeID)
	}
	if doc.ParentCommentID != nil {
		parent, err := uuid.Parse(*doc.ParentCommentID)
		if err != nil {
			return models.Comment{}, fmt.Errorf("invalid parent comment ID in database: %v", err)
		}
		comment.ParentCommentID = &parent
	}
	return comment, nil
}

func documentToPost(doc *PostDocument) (*models.Post, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID in database: %v", err)
	}
	userID, err := uuid.Parse(doc.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid post user ID in database: %v", err)
	}

	likes := make([]uuid.UUID, 0, len(doc.Likes))
	for _, likeStr := range doc.Likes {
		likeID, err := uuid.Parse(likeStr)
		if err != nil {
			return nil, fmt.Errorf("invalid like user ID in database: %v", err)
		}
		likes = append(likes, likeID)
	}

	comments := make([]models.Comment, 0, len(doc.Comments))
	for i := range doc.Comments {
		comment, err := documentToComment(&doc.Comments[i])
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	return &models.Post{
		ID:        id,
		UserID:    userID,
		Content:   doc.Content,
		ImageURL:  doc.ImageURL,
		Likes:     likes,
		Comments:  comments,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func decodePosts(ctx context.Context, cursor *mongo.Cursor) ([]*models.Post, error) {
	defer cursor.Close(ctx)

	var posts []*models.Post
	for cursor.Next(ctx) {
		var doc PostDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode post: %v", err)
		}
		post, err := documentToPost(&doc)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// SavePost inserts a new post
func (m *MongoDB) SavePost(ctx context.Context, post *models.Post) error {
	likes := make([]string, 0, len(post.Likes))
	for _, likeID := range post.Likes {
		likes = append(likes, likeID.String())
	}
	comments := make([]CommentDocument, 0, len(post.Comments))
	for i := range post.Comments {
		comments = append(comments, commentToDocument(&post.Comments[i]))
	}

	doc := PostDocument{
		ID:        post.ID.String(),
		UserID:    post.UserID.String(),
		Content:   post.Content,
		ImageURL:  post.ImageURL,
		Likes:     likes,
		Comments:  comments,
		CreatedAt: post.CreatedAt,
	}

	_, err := m.Posts.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save post: %v", err)
	}
	return nil
}

// GetPost retrieves a post by ID
func (m *MongoDB) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var doc PostDocument

	err := m.Posts.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotFound, "Post not found", err)
	}
	if err != nil {
		return nil, err
	}

	return documentToPost(&doc)
}

// ListFeedPosts returns posts by any of the given authors, newest first
func (m *MongoDB) ListFeedPosts(ctx context.Context, authorIDs []uuid.UUID, limit int64) ([]*models.Post, error) {
	if len(authorIDs) == 0 {
		return []*models.Post{}, nil
	}

	idStrs := make([]string, len(authorIDs))
	for i, id := range authorIDs {
		idStrs[i] = id.String()
	}

	cursor, err := m.Posts.Find(ctx,
		bson.M{"userId": bson.M{"$in": idStrs}},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get feed posts: %v", err)
	}

	return decodePosts(ctx, cursor)
}

// ListUserPosts returns all of a user's posts, newest first
func (m *MongoDB) ListUserPosts(ctx context.Context, userID uuid.UUID) ([]*models.Post, error) {
	cursor, err := m.Posts.Find(ctx,
		bson.M{"userId": userID.String()},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user posts: %v", err)
	}

	return decodePosts(ctx, cursor)
}

// DeletePost removes a post
func (m *MongoDB) DeletePost(ctx context.Context, id uuid.UUID) error {
	result, err := m.Posts.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}

// AddPostLike records a like. $addToSet keeps the operation idempotent
func (m *MongoDB) AddPostLike(ctx context.Context, postID, userID uuid.UUID) error {
	result, err := m.Posts.UpdateOne(ctx,
		bson.M{"_id": postID.String()},
		bson.M{"$addToSet": bson.M{"likes": userID.String()}},
	)
	if err != nil {
		return fmt.Errorf("failed to like post: %v", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}

// RemovePostLike removes a like
func (m *MongoDB) RemovePostLike(ctx context.Context, postID, userID uuid.UUID) error {
	result, err := m.Posts.UpdateOne(ctx,
		bson.M{"_id": postID.String()},
		bson.M{"$pull": bson.M{"likes": userID.String()}},
	)
	if err != nil {
		return fmt.Errorf("failed to unlike post: %v", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}

// AddPostComment appends a comment to the post's embedded array
func (m *MongoDB) AddPostComment(ctx context.Context, postID uuid.UUID, comment *models.Comment) error {
	doc := commentToDocument(comment)

	result, err := m.Posts.UpdateOne(ctx,
		bson.M{"_id": postID.String()},
		bson.M{"$push": bson.M{"comments": doc}},
	)
	if err != nil {
		return fmt.Errorf("failed to add comment: %v", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}

// UpdatePostComment edits a comment's content in place
func (m *MongoDB) UpdatePostComment(ctx context.Context, postID, commentID uuid.UUID, content string) error {
	now := time.Now()
	result, err := m.Posts.UpdateOne(ctx,
		bson.M{"_id": postID.String(), "comments._id": commentID.String()},
		bson.M{"$set": bson.M{
			"comments.$.content":   content,
			"comments.$.updatedAt": now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update comment: %v", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	return nil
}

// AddCommentLike records a like on an embedded comment
func (m *MongoDB) AddCommentLike(ctx context.Context, postID, commentID, userID uuid.UUID) error {
	result, err := m.Posts.UpdateOne(ctx,
		bson.M{"_id": postID.String(), "comments._id": commentID.String()},
		bson.M{"$addToSet": bson.M{"comments.$.likes": userID.String()}},
	)
	if err != nil {
		return fmt.Errorf("failed to like comment: %v", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	return nil
}

// RemoveCommentLike removes a like from an embedded comment
func (m *MongoDB) RemoveCommentLike(ctx context.Context, postID, commentID, userID uuid.UUID) error {
	result, err := m.Posts.UpdateOne(ctx,
		bson.M{"_id": postID.String(), "comments._id": commentID.String()},
		bson.M{"$pull": bson.M{"comments.$.likes": userID.String()}},
	)
	if err != nil {
		return fmt.Errorf("failed to unlike comment: %v", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
	}
	return nil
}

// DeletePostComment pulls a comment out of the post's embedded array
func (m *MongoDB) DeletePostComment(ctx context.Context, postID, commentID uuid.UUID) error {
	result, err := m.Posts.UpdateOne(ctx,
		bson.M{"_id": postID.String()},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID.String()}}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %v", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return nil
}
