package actors

import (
	stdctx "context"
	"log"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"swampbook/internal/database"
	"swampbook/internal/models"
	"swampbook/internal/utils"
)

// Message types for NotificationActor
type (
	// AddNotificationMsg is fire-and-forget: producers context.Send it and
	// never wait for the write.
	AddNotificationMsg struct {
		UserID       uuid.UUID `json:"userId"`
		Type         string    `json:"type"`
		ReferenceID  uuid.UUID `json:"referenceId"`
		SourceUserID uuid.UUID `json:"sourceUserId"`
		Content      string    `json:"content"`
	}

	ListNotificationsMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	MarkNotificationReadMsg struct {
		UserID         uuid.UUID `json:"userId"`
		NotificationID uuid.UUID `json:"notificationId"`
	}

	MarkAllNotificationsReadMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	DeleteNotificationMsg struct {
		UserID         uuid.UUID `json:"userId"`
		NotificationID uuid.UUID `json:"notificationId"`
	}

	UnreadNotificationCountMsg struct {
		UserID uuid.UUID `json:"userId"`
	}
)

// NotificationView is a notification with its source user resolved for
// display.
type NotificationView struct {
	models.Notification
	SourceUser *models.UserSummary `json:"sourceUser,omitempty"`
}

// MarkAllReadResult reports how many notifications a mark-all call touched
type MarkAllReadResult struct {
	MarkedRead int64 `json:"markedRead"`
}

// UnreadCountResult carries an unread counter
type UnreadCountResult struct {
	Count int64 `json:"count"`
}

// NotificationActor owns the notifications collection. Writes arrive as
// fire-and-forget sends from the other actors; reads come from the handlers.
type NotificationActor struct {
	store   database.Store
	pusher  Pusher
	metrics *utils.MetricsCollector
}

func NewNotificationActor(store database.Store, pusher Pusher, metrics *utils.MetricsCollector) *NotificationActor {
	return &NotificationActor{
		store:   store,
		pusher:  pusher,
		metrics: metrics,
	}
}

func (a *NotificationActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *AddNotificationMsg:
		a.handleAdd(msg)
	case *ListNotificationsMsg:
		a.handleList(context, msg)
	case *MarkNotificationReadMsg:
		a.handleMarkRead(context, msg)
	case *MarkAllNotificationsReadMsg:
		a.handleMarkAllRead(context, msg)
	case *DeleteNotificationMsg:
		a.handleDelete(context, msg)
	case *UnreadNotificationCountMsg:
		a.handleUnreadCount(context, msg)
	}
}

func (a *NotificationActor) handleAdd(msg *AddNotificationMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	n := &models.Notification{
		ID:           uuid.New(),
		UserID:       msg.UserID,
		Type:         msg.Type,
		ReferenceID:  msg.ReferenceID,
		SourceUserID: msg.SourceUserID,
		Content:      msg.Content,
		IsRead:       false,
		CreatedAt:    time.Now(),
	}

	if err := a.store.SaveNotification(ctx, n); err != nil {
		log.Printf("Failed to save %s notification for user %s: %v", msg.Type, msg.UserID, err)
		return
	}

	view := &NotificationView{Notification: *n}
	if msg.SourceUserID != uuid.Nil {
		if summaries, err := a.store.GetUserSummaries(ctx, []uuid.UUID{msg.SourceUserID}); err == nil && len(summaries) > 0 {
			view.SourceUser = &summaries[0]
		}
	}
	a.pusher.PushToUser(msg.UserID, "notification", view)

	a.metrics.AddOperationLatency("add_notification", time.Since(start))
}

func (a *NotificationActor) handleList(context actor.Context, msg *ListNotificationsMsg) {
	ctx := stdctx.Background()

	notifications, err := a.store.ListUserNotifications(ctx, msg.UserID)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to get notifications", err))
		return
	}

	// Resolve every distinct source user in one query.
	sourceIDs := make([]uuid.UUID, 0, len(notifications))
	seen := make(map[uuid.UUID]bool)
	for _, n := range notifications {
		if n.SourceUserID != uuid.Nil && !seen[n.SourceUserID] {
			seen[n.SourceUserID] = true
			sourceIDs = append(sourceIDs, n.SourceUserID)
		}
	}
	summaryByID := make(map[uuid.UUID]models.UserSummary)
	if len(sourceIDs) > 0 {
		summaries, err := a.store.GetUserSummaries(ctx, sourceIDs)
		if err != nil {
			context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to resolve notification sources", err))
			return
		}
		for _, s := range summaries {
			summaryByID[s.ID] = s
		}
	}

	views := make([]*NotificationView, 0, len(notifications))
	for _, n := range notifications {
		view := &NotificationView{Notification: *n}
		if s, ok := summaryByID[n.SourceUserID]; ok {
			view.SourceUser = &s
		}
		views = append(views, view)
	}
	context.Respond(views)
}

// getOwnedNotification loads a notification and enforces that the caller
// owns it.
func (a *NotificationActor) getOwnedNotification(ctx stdctx.Context, userID, notificationID uuid.UUID) (*models.Notification, *utils.AppError) {
	n, err := a.store.GetNotification(ctx, notificationID)
	if err != nil {
		if appErr, ok := err.(*utils.AppError); ok {
			return nil, appErr
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "Failed to get notification", err)
	}
	if n.UserID != userID {
		return nil, utils.NewAppError(utils.ErrForbidden, "Notification belongs to another user", nil)
	}
	return n, nil
}

func (a *NotificationActor) handleMarkRead(context actor.Context, msg *MarkNotificationReadMsg) {
	ctx := stdctx.Background()

	n, appErr := a.getOwnedNotification(ctx, msg.UserID, msg.NotificationID)
	if appErr != nil {
		context.Respond(appErr)
		return
	}

	if err := a.store.MarkNotificationRead(ctx, n.ID); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to mark notification as read", err))
		return
	}
	n.IsRead = true
	context.Respond(n)
}

func (a *NotificationActor) handleMarkAllRead(context actor.Context, msg *MarkAllNotificationsReadMsg) {
	modified, err := a.store.MarkAllNotificationsRead(stdctx.Background(), msg.UserID)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to mark notifications as read", err))
		return
	}
	context.Respond(&MarkAllReadResult{MarkedRead: modified})
}

func (a *NotificationActor) handleDelete(context actor.Context, msg *DeleteNotificationMsg) {
	ctx := stdctx.Background()

	n, appErr := a.getOwnedNotification(ctx, msg.UserID, msg.NotificationID)
	if appErr != nil {
		context.Respond(appErr)
		return
	}

	if err := a.store.DeleteNotification(ctx, n.ID); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to delete notification", err))
		return
	}
	context.Respond(&struct {
		Success bool `json:"success"`
	}{Success: true})
}

func (a *NotificationActor) handleUnreadCount(context actor.Context, msg *UnreadNotificationCountMsg) {
	count, err := a.store.CountUnreadNotifications(stdctx.Background(), msg.UserID)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to count notifications", err))
		return
	}
	context.Respond(&UnreadCountResult{Count: count})
}
