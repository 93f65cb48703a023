package actors

import (
	stdctx "context"
	"fmt"
	"strings"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"swampbook/internal/database"
	"swampbook/internal/models"
	"swampbook/internal/utils"
)

const feedLimit = 20

// Message types for PostActor
type (
	CreatePostMsg struct {
		UserID   uuid.UUID `json:"userId"`
		Content  string    `json:"content"`
		ImageURL string    `json:"imageUrl"`
	}

	GetFeedMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	GetUserPostsMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	GetPostMsg struct {
		PostID uuid.UUID `json:"postId"`
	}

	DeletePostMsg struct {
		UserID uuid.UUID `json:"userId"`
		PostID uuid.UUID `json:"postId"`
	}

	ToggleLikeMsg struct {
		UserID uuid.UUID `json:"userId"`
		PostID uuid.UUID `json:"postId"`
	}

	AddCommentMsg struct {
		UserID          uuid.UUID  `json:"userId"`
		PostID          uuid.UUID  `json:"postId"`
		Content         string     `json:"content"`
		ParentCommentID *uuid.UUID `json:"parentCommentId,omitempty"`
	}

	GetCommentsMsg struct {
		PostID uuid.UUID `json:"postId"`
	}

	UpdateCommentMsg struct {
		UserID    uuid.UUID `json:"userId"`
		PostID    uuid.UUID `json:"postId"`
		CommentID uuid.UUID `json:"commentId"`
		Content   string    `json:"content"`
	}

	DeleteCommentMsg struct {
		UserID    uuid.UUID `json:"userId"`
		PostID    uuid.UUID `json:"postId"`
		CommentID uuid.UUID `json:"commentId"`
	}

	LikeCommentMsg struct {
		UserID    uuid.UUID `json:"userId"`
		PostID    uuid.UUID `json:"postId"`
		CommentID uuid.UUID `json:"commentId"`
	}

	UnlikeCommentMsg struct {
		UserID    uuid.UUID `json:"userId"`
		PostID    uuid.UUID `json:"postId"`
		CommentID uuid.UUID `json:"commentId"`
	}

	GetCommentRepliesMsg struct {
		PostID    uuid.UUID `json:"postId"`
		CommentID uuid.UUID `json:"commentId"`
	}
)

// CommentView is an embedded comment with its author resolved.
type CommentView struct {
	models.Comment
	Author *models.UserSummary `json:"author,omitempty"`
}

// PostView is a post with its author and comment authors resolved.
type PostView struct {
	ID        uuid.UUID           `json:"id"`
	Author    *models.UserSummary `json:"author,omitempty"`
	Content   string              `json:"content"`
	ImageURL  string              `json:"imageUrl,omitempty"`
	Likes     []uuid.UUID         `json:"likes"`
	Comments  []CommentView       `json:"comments"`
	CreatedAt time.Time           `json:"createdAt"`
}

// LikeResult reports the state of the likes set after a toggle.
type LikeResult struct {
	Liked bool        `json:"liked"`
	Likes []uuid.UUID `json:"likes"`
}

// DeletedPost lets the handler clean up the post's image file after the
// document is gone.
type DeletedPost struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"-"`
}

// PostActor owns the posts collection, including the embedded likes and
// comments.
type PostActor struct {
	store           database.Store
	notificationPID *actor.PID
	metrics         *utils.MetricsCollector
}

func NewPostActor(store database.Store, notificationPID *actor.PID, metrics *utils.MetricsCollector) *PostActor {
	return &PostActor{
		store:           store,
		notificationPID: notificationPID,
		metrics:         metrics,
	}
}

func (a *PostActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *CreatePostMsg:
		a.handleCreate(context, msg)
	case *GetFeedMsg:
		a.handleFeed(context, msg)
	case *GetUserPostsMsg:
		a.handleUserPosts(context, msg)
	case *GetPostMsg:
		a.handleGet(context, msg)
	case *DeletePostMsg:
		a.handleDelete(context, msg)
	case *ToggleLikeMsg:
		a.handleToggleLike(context, msg)
	case *AddCommentMsg:
		a.handleAddComment(context, msg)
	case *GetCommentsMsg:
		a.handleGetComments(context, msg)
	case *UpdateCommentMsg:
		a.handleUpdateComment(context, msg)
	case *DeleteCommentMsg:
		a.handleDeleteComment(context, msg)
	case *LikeCommentMsg:
		a.handleLikeComment(context, msg)
	case *UnlikeCommentMsg:
		a.handleUnlikeComment(context, msg)
	case *GetCommentRepliesMsg:
		a.handleCommentReplies(context, msg)
	}
}

func (a *PostActor) respondError(context actor.Context, err error, fallback string) {
	if appErr, ok := err.(*utils.AppError); ok {
		context.Respond(appErr)
		return
	}
	context.Respond(utils.NewAppError(utils.ErrDatabase, fallback, err))
}

// buildViews resolves authors for a batch of posts in one summary query.
func (a *PostActor) buildViews(ctx stdctx.Context, posts []*models.Post) ([]*PostView, error) {
	authorIDs := make([]uuid.UUID, 0, len(posts))
	seen := make(map[uuid.UUID]bool)
	add := func(id uuid.UUID) {
		if !seen[id] {
			seen[id] = true
			authorIDs = append(authorIDs, id)
		}
	}
	for _, post := range posts {
		add(post.UserID)
		for _, comment := range post.Comments {
			add(comment.UserID)
		}
	}

	summaryByID := make(map[uuid.UUID]models.UserSummary)
	if len(authorIDs) > 0 {
		summaries, err := a.store.GetUserSummaries(ctx, authorIDs)
		if err != nil {
			return nil, err
		}
		for _, s := range summaries {
			summaryByID[s.ID] = s
		}
	}

	views := make([]*PostView, 0, len(posts))
	for _, post := range posts {
		view := &PostView{
			ID:        post.ID,
			Content:   post.Content,
			ImageURL:  post.ImageURL,
			Likes:     post.Likes,
			Comments:  make([]CommentView, 0, len(post.Comments)),
			CreatedAt: post.CreatedAt,
		}
		if s, ok := summaryByID[post.UserID]; ok {
			view.Author = &s
		}
		for _, comment := range post.Comments {
			cv := CommentView{Comment: comment}
			if s, ok := summaryByID[comment.UserID]; ok {
				cv.Author = &s
			}
			view.Comments = append(view.Comments, cv)
		}
		views = append(views, view)
	}
	return views, nil
}

func (a *PostActor) buildView(ctx stdctx.Context, post *models.Post) (*PostView, error) {
	views, err := a.buildViews(ctx, []*models.Post{post})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (a *PostActor) handleCreate(context actor.Context, msg *CreatePostMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	content := strings.TrimSpace(msg.Content)
	if content == "" && msg.ImageURL == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "A post needs content or an image", nil))
		return
	}

	post := &models.Post{
		ID:        uuid.New(),
		UserID:    msg.UserID,
		Content:   content,
		ImageURL:  msg.ImageURL,
		Likes:     []uuid.UUID{},
		Comments:  []models.Comment{},
		CreatedAt: time.Now(),
	}
	if err := a.store.SavePost(ctx, post); err != nil {
		a.respondError(context, err, "Failed to save post")
		return
	}

	view, err := a.buildView(ctx, post)
	if err != nil {
		a.respondError(context, err, "Failed to render post")
		return
	}
	a.metrics.AddOperationLatency("create_post", time.Since(start))
	context.Respond(view)
}

func (a *PostActor) handleFeed(context actor.Context, msg *GetFeedMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	user, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		a.respondError(context, err, "Failed to get user")
		return
	}

	authorIDs := append([]uuid.UUID{user.ID}, user.Friends...)
	posts, err := a.store.ListFeedPosts(ctx, authorIDs, feedLimit)
	if err != nil {
		a.respondError(context, err, "Failed to get feed")
		return
	}

	views, err := a.buildViews(ctx, posts)
	if err != nil {
		a.respondError(context, err, "Failed to render feed")
		return
	}
	a.metrics.AddOperationLatency("get_feed", time.Since(start))
	context.Respond(views)
}

func (a *PostActor) handleUserPosts(context actor.Context, msg *GetUserPostsMsg) {
	ctx := stdctx.Background()

	if _, err := a.store.GetUser(ctx, msg.UserID); err != nil {
		a.respondError(context, err, "Failed to get user")
		return
	}
	posts, err := a.store.ListUserPosts(ctx, msg.UserID)
	if err != nil {
		a.respondError(context, err, "Failed to get posts")
		return
	}
	views, err := a.buildViews(ctx, posts)
	if err != nil {
		a.respondError(context, err, "Failed to render posts")
		return
	}
	context.Respond(views)
}

func (a *PostActor) handleGet(context actor.Context, msg *GetPostMsg) {
	ctx := stdctx.Background()

	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		a.respondError(context, err, "Failed to get post")
		return
	}
	view, err := a.buildView(ctx, post)
	if err != nil {
		a.respondError(context, err, "Failed to render post")
		return
	}
	context.Respond(view)
}

func (a *PostActor) handleDelete(context actor.Context, msg *DeletePostMsg) {
	ctx := stdctx.Background()

	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		a.respondError(context, err, "Failed to get post")
		return
	}
	if post.UserID != msg.UserID {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "Only the author can delete a post", nil))
		return
	}

	if err := a.store.DeletePost(ctx, post.ID); err != nil {
		a.respondError(context, err, "Failed to delete post")
		return
	}
	context.Respond(&DeletedPost{Success: true, ImageURL: post.ImageURL})
}

func (a *PostActor) handleToggleLike(context actor.Context, msg *ToggleLikeMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		a.respondError(context, err, "Failed to get post")
		return
	}

	liked := !post.LikedBy(msg.UserID)
	if liked {
		err = a.store.AddPostLike(ctx, post.ID, msg.UserID)
	} else {
		err = a.store.RemovePostLike(ctx, post.ID, msg.UserID)
	}
	if err != nil {
		a.respondError(context, err, "Failed to update likes")
		return
	}

	if liked && post.UserID != msg.UserID {
		if liker, lookupErr := a.store.GetUser(ctx, msg.UserID); lookupErr == nil {
			context.Send(a.notificationPID, &AddNotificationMsg{
				UserID:       post.UserID,
				Type:         models.NotificationLike,
				ReferenceID:  post.ID,
				SourceUserID: msg.UserID,
				Content:      fmt.Sprintf("%s liked your post", liker.Username),
			})
		}
	}

	updated, err := a.store.GetPost(ctx, post.ID)
	if err != nil {
		a.respondError(context, err, "Failed to reload post")
		return
	}
	a.metrics.AddOperationLatency("toggle_like", time.Since(start))
	context.Respond(&LikeResult{Liked: liked, Likes: updated.Likes})
}

func (a *PostActor) handleAddComment(context actor.Context, msg *AddCommentMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		context.Respond(utils.NewValidationError("content"))
		return
	}

	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		a.respondError(context, err, "Failed to get post")
		return
	}

	comment := &models.Comment{
		ID:              uuid.New(),
		UserID:          msg.UserID,
		Content:         content,
		ParentCommentID: msg.ParentCommentID,
		Likes:           []uuid.UUID{},
		CreatedAt:       time.Now(),
	}
	if err := a.store.AddPostComment(ctx, post.ID, comment); err != nil {
		a.respondError(context, err, "Failed to add comment")
		return
	}

	if post.UserID != msg.UserID {
		if commenter, lookupErr := a.store.GetUser(ctx, msg.UserID); lookupErr == nil {
			context.Send(a.notificationPID, &AddNotificationMsg{
				UserID:       post.UserID,
				Type:         models.NotificationComment,
				ReferenceID:  post.ID,
				SourceUserID: msg.UserID,
				Content:      fmt.Sprintf("%s commented on your post", commenter.Username),
			})
		}
	}

	view := &CommentView{Comment: *comment}
	if summaries, lookupErr := a.store.GetUserSummaries(ctx, []uuid.UUID{msg.UserID}); lookupErr == nil && len(summaries) > 0 {
		view.Author = &summaries[0]
	}
	a.metrics.AddOperationLatency("add_comment", time.Since(start))
	context.Respond(view)
}

func (a *PostActor) handleGetComments(context actor.Context, msg *GetCommentsMsg) {
	ctx := stdctx.Background()

	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		a.respondError(context, err, "Failed to get post")
		return
	}
	view, err := a.buildView(ctx, post)
	if err != nil {
		a.respondError(context, err, "Failed to render comments")
		return
	}
	context.Respond(view.Comments)
}

// findComment returns the embedded comment, or nil when absent.
func findComment(post *models.Post, commentID uuid.UUID) *models.Comment {
	for i := range post.Comments {
		if post.Comments[i].ID == commentID {
			return &post.Comments[i]
		}
	}
	return nil
}

func (a *PostActor) handleUpdateComment(context actor.Context, msg *UpdateCommentMsg) {
	ctx := stdctx.Background()

	content := strings.TrimSpace(msg.Content)
	if content == "" {
		context.Respond(utils.NewValidationError("content"))
		return
	}

	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		a.respondError(context, err, "Failed to get post")
		return
	}
	comment := findComment(post, msg.CommentID)
	if comment == nil {
		context.Respond(utils.NewAppError(utils.ErrNotFound, "Comment not found", nil))
		return
	}
	if comment.UserID != msg.UserID {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "Only the author can edit a comment", nil))
		return
	}

	if err := a.store.UpdatePostComment(ctx, post.ID, comment.ID, content); err != nil {
		a.respondError(context, err, "Failed to update comment")
		return
	}
	now := time.Now()
	comment.Content = content
	comment.UpdatedAt = &now
	context.Respond(&CommentView{Comment: *comment})
}

func (a *PostActor) handleDeleteComment(context actor.Context, msg *DeleteCommentMsg) {
	ctx := stdctx.Background()

	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		a.respondError(context, err, "Failed to get post")
		return
	}
	comment := findComment(post, msg.CommentID)
	if comment == nil {
		context.Respond(utils.NewAppError(utils.ErrNotFound, "Comment not found", nil))
		return
	}
	if comment.UserID != msg.UserID {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "Only the author can delete a comment", nil))
		return
	}

	if err := a.store.DeletePostComment(ctx, post.ID, comment.ID); err != nil {
		a.respondError(context, err, "Failed to delete comment")
		return
	}
	context.Respond(&struct {
		Success bool `json:"success"`
	}{Success: true})
}

func (a *PostActor) handleLikeComment(context actor.Context, msg *LikeCommentMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		a.respondError(context, err, "Failed to get post")
		return
	}
	comment := findComment(post, msg.CommentID)
	if comment == nil {
		context.Respond(utils.NewAppError(utils.ErrNotFound, "Comment not found", nil))
		return
	}
	if comment.LikedBy(msg.UserID) {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "You already liked this comment", nil))
		return
	}

	if err := a.store.AddCommentLike(ctx, post.ID, comment.ID, msg.UserID); err != nil {
		a.respondError(context, err, "Failed to like comment")
		return
	}

	if comment.UserID != msg.UserID {
		if liker, lookupErr := a.store.GetUser(ctx, msg.UserID); lookupErr == nil {
			context.Send(a.notificationPID, &AddNotificationMsg{
				UserID:       comment.UserID,
				Type:         models.NotificationLike,
				ReferenceID:  comment.ID,
				SourceUserID: msg.UserID,
				Content:      fmt.Sprintf("%s liked your comment", liker.Username),
			})
		}
	}

	a.metrics.AddOperationLatency("like_comment", time.Since(start))
	context.Respond(&LikeResult{Liked: true, Likes: append(comment.Likes, msg.UserID)})
}

func (a *PostActor) handleUnlikeComment(context actor.Context, msg *UnlikeCommentMsg) {
	ctx := stdctx.Background()

	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		a.respondError(context, err, "Failed to get post")
		return
	}
	comment := findComment(post, msg.CommentID)
	if comment == nil {
		context.Respond(utils.NewAppError(utils.ErrNotFound, "Comment not found", nil))
		return
	}
	if !comment.LikedBy(msg.UserID) {
		context.Respond(utils.NewAppError(utils.ErrNotFound, "Like not found", nil))
		return
	}

	if err := a.store.RemoveCommentLike(ctx, post.ID, comment.ID, msg.UserID); err != nil {
		a.respondError(context, err, "Failed to unlike comment")
		return
	}

	likes := make([]uuid.UUID, 0, len(comment.Likes))
	for _, id := range comment.Likes {
		if id != msg.UserID {
			likes = append(likes, id)
		}
	}
	context.Respond(&LikeResult{Liked: false, Likes: likes})
}

func (a *PostActor) handleCommentReplies(context actor.Context, msg *GetCommentRepliesMsg) {
	ctx := stdctx.Background()

	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		a.respondError(context, err, "Failed to get post")
		return
	}
	if findComment(post, msg.CommentID) == nil {
		context.Respond(utils.NewAppError(utils.ErrNotFound, "Comment not found", nil))
		return
	}

	view, err := a.buildView(ctx, post)
	if err != nil {
		a.respondError(context, err, "Failed to render replies")
		return
	}
	replies := make([]CommentView, 0)
	for _, cv := range view.Comments {
		if cv.ParentCommentID != nil && *cv.ParentCommentID == msg.CommentID {
			replies = append(replies, cv)
		}
	}
	context.Respond(replies)
}
