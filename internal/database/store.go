package database

import (
	"context"

	"github.com/google/uuid"

	"swampbook/internal/models"
)

// The per-domain store interfaces below are what the actors depend on.
// *MongoDB implements all of them; tests substitute an in-memory fake.

type UserStore interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id uuid.UUID, update *models.ProfileUpdate) error
	SetUserPicture(ctx context.Context, id uuid.UUID, field string, url string) error
	UpdateUserActivity(ctx context.Context, id uuid.UUID, isOnline bool) error
	GetUserSummaries(ctx context.Context, ids []uuid.UUID) ([]models.UserSummary, error)
	SearchUsers(ctx context.Context, query string, exclude uuid.UUID) ([]*models.User, error)
	AddFriend(ctx context.Context, userID, friendID uuid.UUID) error
	RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error
}

type FriendStore interface {
	SaveFriendRequest(ctx context.Context, req *models.FriendRequest) error
	GetPendingRequest(ctx context.Context, sender, recipient uuid.UUID) (*models.FriendRequest, error)
	GetPendingRequestBetween(ctx context.Context, a, b uuid.UUID) (*models.FriendRequest, error)
	SetFriendRequestStatus(ctx context.Context, id uuid.UUID, status string) error
	DeleteFriendRequest(ctx context.Context, id uuid.UUID) error
	DeleteRequestsBetween(ctx context.Context, a, b uuid.UUID) error
	ListPendingRequests(ctx context.Context, recipient uuid.UUID) ([]*models.FriendRequest, error)
}

type ChatStore interface {
	SaveConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	FindConversationByPairKey(ctx context.Context, pairKey string) (*models.Conversation, error)
	ListUserConversations(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error)
	SetLastMessage(ctx context.Context, conversationID uuid.UUID, snapshot *models.LastMessage) error
	ClearLastMessage(ctx context.Context, conversationID uuid.UUID) error
	DeleteConversation(ctx context.Context, id uuid.UUID) error

	SaveMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListConversationMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.Message, error)
	LatestConversationMessage(ctx context.Context, conversationID uuid.UUID) (*models.Message, error)
	MarkConversationMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error
	DeleteConversationMessages(ctx context.Context, conversationID uuid.UUID) error
	CountUnreadMessages(ctx context.Context, userID uuid.UUID, conversationIDs []uuid.UUID) (int64, error)
	SearchMessages(ctx context.Context, conversationIDs []uuid.UUID, query string) ([]*models.Message, error)
}

type PostStore interface {
	SavePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListFeedPosts(ctx context.Context, authorIDs []uuid.UUID, limit int64) ([]*models.Post, error)
	ListUserPosts(ctx context.Context, userID uuid.UUID) ([]*models.Post, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
	AddPostLike(ctx context.Context, postID, userID uuid.UUID) error
	RemovePostLike(ctx context.Context, postID, userID uuid.UUID) error
	AddPostComment(ctx context.Context, postID uuid.UUID, comment *models.Comment) error
	UpdatePostComment(ctx context.Context, postID, commentID uuid.UUID, content string) error
	DeletePostComment(ctx context.Context, postID, commentID uuid.UUID) error
	AddCommentLike(ctx context.Context, postID, commentID, userID uuid.UUID) error
	RemoveCommentLike(ctx context.Context, postID, commentID, userID uuid.UUID) error
}

type NotificationStore interface {
	SaveNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	ListUserNotifications(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkMessageNotificationsRead(ctx context.Context, userID, conversationID uuid.UUID) error
	DeleteNotification(ctx context.Context, id uuid.UUID) error
	DeleteConversationNotifications(ctx context.Context, conversationID uuid.UUID) error
	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error)
}

type MediaStore interface {
	SaveMedia(ctx context.Context, media *models.Media) error
	GetMedia(ctx context.Context, id uuid.UUID) (*models.Media, error)
	ListUserMedia(ctx context.Context, userID uuid.UUID) ([]*models.Media, error)
	UpdateMedia(ctx context.Context, id uuid.UUID, update *models.MediaUpdate) error
	DeleteMedia(ctx context.Context, id uuid.UUID) error
	SearchMediaByTags(ctx context.Context, tags []string) ([]*models.Media, error)
}

// Store is everything the engine needs from the persistence layer.
type Store interface {
	UserStore
	FriendStore
	ChatStore
	PostStore
	NotificationStore
	MediaStore
	Ping(ctx context.Context) error
}

var _ Store = (*MongoDB)(nil)
