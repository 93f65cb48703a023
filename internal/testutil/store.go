// Package testutil provides an in-memory Store so actor and handler tests
// can run without a MongoDB instance.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"swampbook/internal/database"
	"swampbook/internal/models"
	"swampbook/internal/utils"
)

// MemoryStore implements database.Store with maps. Error codes mirror what
// the MongoDB repositories return so actors behave identically under test.
type MemoryStore struct {
	mu sync.Mutex

	users          map[uuid.UUID]*models.User
	friendRequests map[uuid.UUID]*models.FriendRequest
	conversations  map[uuid.UUID]*models.Conversation
	messages       map[uuid.UUID]*models.Message
	posts          map[uuid.UUID]*models.Post
	notifications  map[uuid.UUID]*models.Notification
	media          map[uuid.UUID]*models.Media

	// insertion order, used as the tie breaker when timestamps collide
	messageSeq map[uuid.UUID]int
	nextSeq    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:          make(map[uuid.UUID]*models.User),
		friendRequests: make(map[uuid.UUID]*models.FriendRequest),
		conversations:  make(map[uuid.UUID]*models.Conversation),
		messages:       make(map[uuid.UUID]*models.Message),
		posts:          make(map[uuid.UUID]*models.Post),
		notifications:  make(map[uuid.UUID]*models.Notification),
		media:          make(map[uuid.UUID]*models.Media),
		messageSeq:     make(map[uuid.UUID]int),
	}
}

var _ database.Store = (*MemoryStore)(nil)

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func copyUser(u *models.User) *models.User {
	clone := *u
	clone.Friends = append([]uuid.UUID{}, u.Friends...)
	return &clone
}

func copyPost(p *models.Post) *models.Post {
	clone := *p
	clone.Likes = append([]uuid.UUID{}, p.Likes...)
	clone.Comments = make([]models.Comment, len(p.Comments))
	for i, comment := range p.Comments {
		comment.Likes = append([]uuid.UUID{}, comment.Likes...)
		clone.Comments[i] = comment
	}
	return &clone
}

// UserStore

func (s *MemoryStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	return copyUser(user), nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return copyUser(user), nil
		}
	}
	return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
}

func (s *MemoryStore) UpdateUserProfile(ctx context.Context, id uuid.UUID, update *models.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&user.FullName, update.FullName)
	apply(&user.Bio, update.Bio)
	apply(&user.Workplace, update.Workplace)
	apply(&user.Education, update.Education)
	apply(&user.Location, update.Location)
	apply(&user.RelationshipStatus, update.RelationshipStatus)
	apply(&user.Birthday, update.Birthday)
	apply(&user.Phone, update.Phone)
	apply(&user.Website, update.Website)
	return nil
}

func (s *MemoryStore) SetUserPicture(ctx context.Context, id uuid.UUID, field string, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	if field == "coverPhoto" {
		user.CoverPhoto = url
	} else {
		user.ProfilePicture = url
	}
	return nil
}

func (s *MemoryStore) UpdateUserActivity(ctx context.Context, id uuid.UUID, isOnline bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	user.IsOnline = isOnline
	user.LastActive = time.Now()
	return nil
}

func (s *MemoryStore) GetUserSummaries(ctx context.Context, ids []uuid.UUID) ([]models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summaries := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			summaries = append(summaries, user.Summary())
		}
	}
	return summaries, nil
}

func (s *MemoryStore) SearchUsers(ctx context.Context, query string, exclude uuid.UUID) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lowered := strings.ToLower(query)
	matches := make([]*models.User, 0)
	for _, user := range s.users {
		if user.ID == exclude {
			continue
		}
		if strings.Contains(strings.ToLower(user.Username), lowered) ||
			strings.Contains(strings.ToLower(user.FullName), lowered) {
			matches = append(matches, copyUser(user))
		}
	}
	return matches, nil
}

func (s *MemoryStore) AddFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	for _, existing := range user.Friends {
		if existing == friendID {
			return nil
		}
	}
	user.Friends = append(user.Friends, friendID)
	return nil
}

func (s *MemoryStore) RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "User not found", nil)
	}
	friends := user.Friends[:0]
	for _, existing := range user.Friends {
		if existing != friendID {
			friends = append(friends, existing)
		}
	}
	user.Friends = friends
	return nil
}

// FriendStore

func (s *MemoryStore) SaveFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *req
	s.friendRequests[req.ID] = &clone
	return nil
}

func (s *MemoryStore) GetPendingRequest(ctx context.Context, sender, recipient uuid.UUID) (*models.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.friendRequests {
		if req.Sender == sender && req.Recipient == recipient && req.Status == models.FriendRequestPending {
			clone := *req
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetPendingRequestBetween(ctx context.Context, a, b uuid.UUID) (*models.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.friendRequests {
		if req.Status != models.FriendRequestPending {
			continue
		}
		if (req.Sender == a && req.Recipient == b) || (req.Sender == b && req.Recipient == a) {
			clone := *req
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) SetFriendRequestStatus(ctx context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.friendRequests[id]
	if !ok {
		return utils.NewAppError(utils.ErrFriendRequestMissing, "Friend request not found", nil)
	}
	req.Status = status
	return nil
}

func (s *MemoryStore) DeleteFriendRequest(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.friendRequests[id]; !ok {
		return utils.NewAppError(utils.ErrFriendRequestMissing, "Friend request not found", nil)
	}
	delete(s.friendRequests, id)
	return nil
}

func (s *MemoryStore) DeleteRequestsBetween(ctx context.Context, a, b uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, req := range s.friendRequests {
		if (req.Sender == a && req.Recipient == b) || (req.Sender == b && req.Recipient == a) {
			delete(s.friendRequests, id)
		}
	}
	return nil
}

func (s *MemoryStore) ListPendingRequests(ctx context.Context, recipient uuid.UUID) ([]*models.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	requests := make([]*models.FriendRequest, 0)
	for _, req := range s.friendRequests {
		if req.Recipient == recipient && req.Status == models.FriendRequestPending {
			clone := *req
			requests = append(requests, &clone)
		}
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	return requests, nil
}

// ChatStore

func (s *MemoryStore) SaveConversation(ctx context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.conversations {
		if existing.PairKey == conv.PairKey && existing.ID != conv.ID {
			return utils.NewAppError(utils.ErrDuplicate, "Conversation already exists", nil)
		}
	}
	clone := *conv
	clone.Participants = append([]uuid.UUID{}, conv.Participants...)
	s.conversations[conv.ID] = &clone
	return nil
}

func (s *MemoryStore) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, utils.NewConversationNotFoundError(id.String())
	}
	clone := *conv
	clone.Participants = append([]uuid.UUID{}, conv.Participants...)
	return &clone, nil
}

func (s *MemoryStore) FindConversationByPairKey(ctx context.Context, pairKey string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conv := range s.conversations {
		if conv.PairKey == pairKey {
			clone := *conv
			clone.Participants = append([]uuid.UUID{}, conv.Participants...)
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ListUserConversations(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conversations := make([]*models.Conversation, 0)
	for _, conv := range s.conversations {
		if conv.HasParticipant(userID) {
			clone := *conv
			clone.Participants = append([]uuid.UUID{}, conv.Participants...)
			conversations = append(conversations, &clone)
		}
	}
	return conversations, nil
}

func (s *MemoryStore) SetLastMessage(ctx context.Context, conversationID uuid.UUID, snapshot *models.LastMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return utils.NewConversationNotFoundError(conversationID.String())
	}
	clone := *snapshot
	conv.LastMessage = &clone
	conv.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ClearLastMessage(ctx context.Context, conversationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return utils.NewConversationNotFoundError(conversationID.String())
	}
	conv.LastMessage = nil
	conv.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; !ok {
		return utils.NewConversationNotFoundError(id.String())
	}
	delete(s.conversations, id)
	return nil
}

func (s *MemoryStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *msg
	s.messages[msg.ID] = &clone
	s.nextSeq++
	s.messageSeq[msg.ID] = s.nextSeq
	return nil
}

func (s *MemoryStore) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrMessageNotFound, "Message not found", nil)
	}
	clone := *msg
	return &clone, nil
}

func (s *MemoryStore) conversationMessagesLocked(conversationID uuid.UUID) []*models.Message {
	messages := make([]*models.Message, 0)
	for _, msg := range s.messages {
		if msg.ConversationID == conversationID {
			messages = append(messages, msg)
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return s.messageSeq[messages[i].ID] < s.messageSeq[messages[j].ID]
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages
}

func (s *MemoryStore) ListConversationMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := s.conversationMessagesLocked(conversationID)
	clones := make([]*models.Message, 0, len(messages))
	for _, msg := range messages {
		clone := *msg
		clones = append(clones, &clone)
	}
	return clones, nil
}

func (s *MemoryStore) LatestConversationMessage(ctx context.Context, conversationID uuid.UUID) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := s.conversationMessagesLocked(conversationID)
	if len(messages) == 0 {
		return nil, nil
	}
	clone := *messages[len(messages)-1]
	return &clone, nil
}

func (s *MemoryStore) MarkConversationMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var modified int64
	for _, msg := range s.messages {
		if msg.ConversationID == conversationID && msg.SenderID != readerID && !msg.IsRead {
			msg.IsRead = true
			modified++
		}
	}
	return modified, nil
}

func (s *MemoryStore) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		return utils.NewAppError(utils.ErrMessageNotFound, "Message not found", nil)
	}
	delete(s.messages, id)
	delete(s.messageSeq, id)
	return nil
}

func (s *MemoryStore) DeleteConversationMessages(ctx context.Context, conversationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, msg := range s.messages {
		if msg.ConversationID == conversationID {
			delete(s.messages, id)
			delete(s.messageSeq, id)
		}
	}
	return nil
}

func (s *MemoryStore) CountUnreadMessages(ctx context.Context, userID uuid.UUID, conversationIDs []uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inScope := make(map[uuid.UUID]bool, len(conversationIDs))
	for _, id := range conversationIDs {
		inScope[id] = true
	}
	var count int64
	for _, msg := range s.messages {
		if inScope[msg.ConversationID] && msg.SenderID != userID && !msg.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) SearchMessages(ctx context.Context, conversationIDs []uuid.UUID, query string) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inScope := make(map[uuid.UUID]bool, len(conversationIDs))
	for _, id := range conversationIDs {
		inScope[id] = true
	}
	lowered := strings.ToLower(query)
	matches := make([]*models.Message, 0)
	for _, msg := range s.messages {
		if inScope[msg.ConversationID] && strings.Contains(strings.ToLower(msg.Content), lowered) {
			clone := *msg
			matches = append(matches, &clone)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

// PostStore

func (s *MemoryStore) SavePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[post.ID] = copyPost(post)
	return nil
}

func (s *MemoryStore) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	return copyPost(post), nil
}

func (s *MemoryStore) ListFeedPosts(ctx context.Context, authorIDs []uuid.UUID, limit int64) ([]*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	authors := make(map[uuid.UUID]bool, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = true
	}
	posts := make([]*models.Post, 0)
	for _, post := range s.posts {
		if authors[post.UserID] {
			posts = append(posts, copyPost(post))
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if int64(len(posts)) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (s *MemoryStore) ListUserPosts(ctx context.Context, userID uuid.UUID) ([]*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts := make([]*models.Post, 0)
	for _, post := range s.posts {
		if post.UserID == userID {
			posts = append(posts, copyPost(post))
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (s *MemoryStore) DeletePost(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	delete(s.posts, id)
	return nil
}

func (s *MemoryStore) AddPostLike(ctx context.Context, postID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	for _, existing := range post.Likes {
		if existing == userID {
			return nil
		}
	}
	post.Likes = append(post.Likes, userID)
	return nil
}

func (s *MemoryStore) RemovePostLike(ctx context.Context, postID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	likes := post.Likes[:0]
	for _, existing := range post.Likes {
		if existing != userID {
			likes = append(likes, existing)
		}
	}
	post.Likes = likes
	return nil
}

func (s *MemoryStore) AddPostComment(ctx context.Context, postID uuid.UUID, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	post.Comments = append(post.Comments, *comment)
	return nil
}

func (s *MemoryStore) UpdatePostComment(ctx context.Context, postID, commentID uuid.UUID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	for i := range post.Comments {
		if post.Comments[i].ID == commentID {
			now := time.Now()
			post.Comments[i].Content = content
			post.Comments[i].UpdatedAt = &now
			return nil
		}
	}
	return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
}

func (s *MemoryStore) DeletePostComment(ctx context.Context, postID, commentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	comments := post.Comments[:0]
	for _, comment := range post.Comments {
		if comment.ID != commentID {
			comments = append(comments, comment)
		}
	}
	post.Comments = comments
	return nil
}

func (s *MemoryStore) AddCommentLike(ctx context.Context, postID, commentID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	for i := range post.Comments {
		if post.Comments[i].ID == commentID {
			if !post.Comments[i].LikedBy(userID) {
				post.Comments[i].Likes = append(post.Comments[i].Likes, userID)
			}
			return nil
		}
	}
	return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
}

func (s *MemoryStore) RemoveCommentLike(ctx context.Context, postID, commentID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Post not found", nil)
	}
	for i := range post.Comments {
		if post.Comments[i].ID == commentID {
			likes := post.Comments[i].Likes[:0]
			for _, id := range post.Comments[i].Likes {
				if id != userID {
					likes = append(likes, id)
				}
			}
			post.Comments[i].Likes = likes
			return nil
		}
	}
	return utils.NewAppError(utils.ErrNotFound, "Comment not found", nil)
}

// NotificationStore

func (s *MemoryStore) SaveNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *n
	s.notifications[n.ID] = &clone
	return nil
}

func (s *MemoryStore) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Notification not found", nil)
	}
	clone := *n
	return &clone, nil
}

func (s *MemoryStore) ListUserNotifications(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	notifications := make([]*models.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID == userID {
			clone := *n
			notifications = append(notifications, &clone)
		}
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}

func (s *MemoryStore) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Notification not found", nil)
	}
	n.IsRead = true
	return nil
}

func (s *MemoryStore) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var modified int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			modified++
		}
	}
	return modified, nil
}

func (s *MemoryStore) MarkMessageNotificationsRead(ctx context.Context, userID, conversationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.UserID == userID && n.Type == models.NotificationMessage && n.ReferenceID == conversationID {
			n.IsRead = true
		}
	}
	return nil
}

func (s *MemoryStore) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[id]; !ok {
		return utils.NewAppError(utils.ErrNotFound, "Notification not found", nil)
	}
	delete(s.notifications, id)
	return nil
}

func (s *MemoryStore) DeleteConversationNotifications(ctx context.Context, conversationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, n := range s.notifications {
		if n.Type == models.NotificationMessage && n.ReferenceID == conversationID {
			delete(s.notifications, id)
		}
	}
	return nil
}

func (s *MemoryStore) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// MediaStore

func (s *MemoryStore) SaveMedia(ctx context.Context, media *models.Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *media
	s.media[media.ID] = &clone
	return nil
}

func (s *MemoryStore) ListUserMedia(ctx context.Context, userID uuid.UUID) ([]*models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]*models.Media, 0)
	for _, m := range s.media {
		if m.UserID == userID {
			clone := *m
			items = append(items, &clone)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *MemoryStore) GetMedia(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "Media not found", nil)
	}
	clone := *m
	return &clone, nil
}

func (s *MemoryStore) UpdateMedia(ctx context.Context, id uuid.UUID, update *models.MediaUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[id]
	if !ok {
		return utils.NewAppError(utils.ErrNotFound, "Media not found", nil)
	}
	if update.Description != nil {
		m.Description = *update.Description
	}
	if update.Tags != nil {
		m.Tags = append([]string{}, update.Tags...)
	}
	return nil
}

func (s *MemoryStore) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.media[id]; !ok {
		return utils.NewAppError(utils.ErrNotFound, "Media not found", nil)
	}
	delete(s.media, id)
	return nil
}

func (s *MemoryStore) SearchMediaByTags(ctx context.Context, tags []string) ([]*models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[string]bool, len(tags))
	for _, tag := range tags {
		wanted[tag] = true
	}
	items := make([]*models.Media, 0)
	for _, m := range s.media {
		for _, tag := range m.Tags {
			if wanted[tag] {
				clone := *m
				items = append(items, &clone)
				break
			}
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}
