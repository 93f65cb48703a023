package actors

import (
	stdctx "context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"swampbook/internal/database"
	"swampbook/internal/models"
	"swampbook/internal/utils"
)

// Message types for FriendActor
type (
	SendFriendRequestMsg struct {
		SenderID    uuid.UUID `json:"senderId"`
		RecipientID uuid.UUID `json:"recipientId"`
	}

	// AcceptFriendRequestMsg: RecipientID is the caller accepting a pending
	// request that SenderID previously sent.
	AcceptFriendRequestMsg struct {
		RecipientID uuid.UUID `json:"recipientId"`
		SenderID    uuid.UUID `json:"senderId"`
	}

	RejectFriendRequestMsg struct {
		RecipientID uuid.UUID `json:"recipientId"`
		SenderID    uuid.UUID `json:"senderId"`
	}

	RemoveFriendMsg struct {
		UserID   uuid.UUID `json:"userId"`
		FriendID uuid.UUID `json:"friendId"`
	}

	ListFriendsMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	ListFriendRequestsMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	CheckFriendshipMsg struct {
		UserID  uuid.UUID `json:"userId"`
		OtherID uuid.UUID `json:"otherId"`
	}

	SearchPeopleMsg struct {
		UserID uuid.UUID `json:"userId"`
		Query  string    `json:"query"`
	}
)

// FriendRequestView is a pending request with its sender resolved.
type FriendRequestView struct {
	ID        uuid.UUID          `json:"id"`
	Sender    models.UserSummary `json:"sender"`
	CreatedAt time.Time          `json:"createdAt"`
}

// FriendshipStatus answers "where do these two users stand".
type FriendshipStatus struct {
	IsFriend  bool `json:"isFriend"`
	IsPending bool `json:"isPending"`
}

// FriendActor serializes every friend-graph mutation through its mailbox so
// both sides of a friendship always change together.
type FriendActor struct {
	store           database.Store
	notificationPID *actor.PID
	metrics         *utils.MetricsCollector
}

func NewFriendActor(store database.Store, notificationPID *actor.PID, metrics *utils.MetricsCollector) *FriendActor {
	return &FriendActor{
		store:           store,
		notificationPID: notificationPID,
		metrics:         metrics,
	}
}

func (a *FriendActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *SendFriendRequestMsg:
		a.handleSendRequest(context, msg)
	case *AcceptFriendRequestMsg:
		a.handleAcceptRequest(context, msg)
	case *RejectFriendRequestMsg:
		a.handleRejectRequest(context, msg)
	case *RemoveFriendMsg:
		a.handleRemoveFriend(context, msg)
	case *ListFriendsMsg:
		a.handleListFriends(context, msg)
	case *ListFriendRequestsMsg:
		a.handleListRequests(context, msg)
	case *CheckFriendshipMsg:
		a.handleCheck(context, msg)
	case *SearchPeopleMsg:
		a.handleSearch(context, msg)
	}
}

func (a *FriendActor) respondError(context actor.Context, err error, fallback string) {
	if appErr, ok := err.(*utils.AppError); ok {
		context.Respond(appErr)
		return
	}
	context.Respond(utils.NewAppError(utils.ErrDatabase, fallback, err))
}

func (a *FriendActor) handleSendRequest(context actor.Context, msg *SendFriendRequestMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	if msg.SenderID == msg.RecipientID {
		context.Respond(utils.NewAppError(utils.ErrSelfFriendRequest, "Cannot send a friend request to yourself", nil))
		return
	}

	sender, err := a.store.GetUser(ctx, msg.SenderID)
	if err != nil {
		a.respondError(context, err, "Failed to get sender")
		return
	}
	if _, err := a.store.GetUser(ctx, msg.RecipientID); err != nil {
		a.respondError(context, err, "Failed to get recipient")
		return
	}

	for _, friendID := range sender.Friends {
		if friendID == msg.RecipientID {
			context.Respond(utils.NewAppError(utils.ErrAlreadyFriends, "Already friends with this user", nil))
			return
		}
	}

	pending, err := a.store.GetPendingRequestBetween(ctx, msg.SenderID, msg.RecipientID)
	if err != nil {
		a.respondError(context, err, "Failed to check pending requests")
		return
	}
	if pending != nil {
		context.Respond(utils.NewAppError(utils.ErrFriendRequestExists, "A friend request is already pending", nil))
		return
	}

	request := &models.FriendRequest{
		ID:        uuid.New(),
		Sender:    msg.SenderID,
		Recipient: msg.RecipientID,
		Status:    models.FriendRequestPending,
		CreatedAt: time.Now(),
	}
	if err := a.store.SaveFriendRequest(ctx, request); err != nil {
		a.respondError(context, err, "Failed to save friend request")
		return
	}

	context.Send(a.notificationPID, &AddNotificationMsg{
		UserID:       msg.RecipientID,
		Type:         models.NotificationFriendRequest,
		ReferenceID:  request.ID,
		SourceUserID: msg.SenderID,
		Content:      fmt.Sprintf("%s sent you a friend request", sender.Username),
	})

	a.metrics.AddOperationLatency("send_friend_request", time.Since(start))
	context.Respond(request)
}

func (a *FriendActor) handleAcceptRequest(context actor.Context, msg *AcceptFriendRequestMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	request, err := a.store.GetPendingRequest(ctx, msg.SenderID, msg.RecipientID)
	if err != nil {
		a.respondError(context, err, "Failed to get friend request")
		return
	}
	if request == nil {
		context.Respond(utils.NewAppError(utils.ErrFriendRequestMissing, "No pending friend request from this user", nil))
		return
	}

	if err := a.store.SetFriendRequestStatus(ctx, request.ID, models.FriendRequestAccepted); err != nil {
		a.respondError(context, err, "Failed to accept friend request")
		return
	}

	// Both sides change inside one mailbox slot, so the friendship is
	// symmetric once either update is visible.
	if err := a.store.AddFriend(ctx, msg.RecipientID, msg.SenderID); err != nil {
		a.respondError(context, err, "Failed to add friend")
		return
	}
	if err := a.store.AddFriend(ctx, msg.SenderID, msg.RecipientID); err != nil {
		a.respondError(context, err, "Failed to add friend")
		return
	}

	recipient, err := a.store.GetUser(ctx, msg.RecipientID)
	if err == nil {
		context.Send(a.notificationPID, &AddNotificationMsg{
			UserID:       msg.SenderID,
			Type:         models.NotificationFriendRequestAccepted,
			ReferenceID:  request.ID,
			SourceUserID: msg.RecipientID,
			Content:      fmt.Sprintf("%s accepted your friend request", recipient.Username),
		})
	} else {
		log.Printf("Failed to load recipient %s for accept notification: %v", msg.RecipientID, err)
	}

	request.Status = models.FriendRequestAccepted
	a.metrics.AddOperationLatency("accept_friend_request", time.Since(start))
	context.Respond(request)
}

func (a *FriendActor) handleRejectRequest(context actor.Context, msg *RejectFriendRequestMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	request, err := a.store.GetPendingRequest(ctx, msg.SenderID, msg.RecipientID)
	if err != nil {
		a.respondError(context, err, "Failed to get friend request")
		return
	}
	if request == nil {
		context.Respond(utils.NewAppError(utils.ErrFriendRequestMissing, "No pending friend request from this user", nil))
		return
	}

	// The row is deleted rather than flagged, so the sender may try again
	// later.
	if err := a.store.DeleteFriendRequest(ctx, request.ID); err != nil {
		a.respondError(context, err, "Failed to reject friend request")
		return
	}

	recipient, err := a.store.GetUser(ctx, msg.RecipientID)
	if err == nil {
		context.Send(a.notificationPID, &AddNotificationMsg{
			UserID:       msg.SenderID,
			Type:         models.NotificationFriendRequestRejected,
			ReferenceID:  request.ID,
			SourceUserID: msg.RecipientID,
			Content:      fmt.Sprintf("%s declined your friend request", recipient.Username),
		})
	}

	a.metrics.AddOperationLatency("reject_friend_request", time.Since(start))
	context.Respond(&struct {
		Success bool `json:"success"`
	}{Success: true})
}

func (a *FriendActor) handleRemoveFriend(context actor.Context, msg *RemoveFriendMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	if err := a.store.RemoveFriend(ctx, msg.UserID, msg.FriendID); err != nil {
		a.respondError(context, err, "Failed to remove friend")
		return
	}
	if err := a.store.RemoveFriend(ctx, msg.FriendID, msg.UserID); err != nil {
		a.respondError(context, err, "Failed to remove friend")
		return
	}
	// Stale request rows between the pair would block a future re-request.
	if err := a.store.DeleteRequestsBetween(ctx, msg.UserID, msg.FriendID); err != nil {
		log.Printf("Failed to purge request rows between %s and %s: %v", msg.UserID, msg.FriendID, err)
	}

	a.metrics.AddOperationLatency("remove_friend", time.Since(start))
	context.Respond(&struct {
		Success bool `json:"success"`
	}{Success: true})
}

func (a *FriendActor) handleListFriends(context actor.Context, msg *ListFriendsMsg) {
	ctx := stdctx.Background()

	user, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		a.respondError(context, err, "Failed to get user")
		return
	}
	if len(user.Friends) == 0 {
		context.Respond([]models.UserSummary{})
		return
	}

	summaries, err := a.store.GetUserSummaries(ctx, user.Friends)
	if err != nil {
		a.respondError(context, err, "Failed to get friends")
		return
	}
	context.Respond(summaries)
}

func (a *FriendActor) handleListRequests(context actor.Context, msg *ListFriendRequestsMsg) {
	ctx := stdctx.Background()

	requests, err := a.store.ListPendingRequests(ctx, msg.UserID)
	if err != nil {
		a.respondError(context, err, "Failed to get friend requests")
		return
	}

	senderIDs := make([]uuid.UUID, 0, len(requests))
	for _, r := range requests {
		senderIDs = append(senderIDs, r.Sender)
	}
	summaryByID := make(map[uuid.UUID]models.UserSummary)
	if len(senderIDs) > 0 {
		summaries, err := a.store.GetUserSummaries(ctx, senderIDs)
		if err != nil {
			a.respondError(context, err, "Failed to resolve request senders")
			return
		}
		for _, s := range summaries {
			summaryByID[s.ID] = s
		}
	}

	views := make([]*FriendRequestView, 0, len(requests))
	for _, r := range requests {
		views = append(views, &FriendRequestView{
			ID:        r.ID,
			Sender:    summaryByID[r.Sender],
			CreatedAt: r.CreatedAt,
		})
	}
	context.Respond(views)
}

func (a *FriendActor) handleCheck(context actor.Context, msg *CheckFriendshipMsg) {
	ctx := stdctx.Background()

	user, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		a.respondError(context, err, "Failed to get user")
		return
	}

	status := &FriendshipStatus{}
	for _, friendID := range user.Friends {
		if friendID == msg.OtherID {
			status.IsFriend = true
			break
		}
	}
	if !status.IsFriend {
		pending, err := a.store.GetPendingRequestBetween(ctx, msg.UserID, msg.OtherID)
		if err != nil {
			a.respondError(context, err, "Failed to check pending requests")
			return
		}
		status.IsPending = pending != nil
	}
	context.Respond(status)
}

func (a *FriendActor) handleSearch(context actor.Context, msg *SearchPeopleMsg) {
	ctx := stdctx.Background()

	query := strings.TrimSpace(msg.Query)
	if query == "" {
		context.Respond([]models.UserSummary{})
		return
	}

	user, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		a.respondError(context, err, "Failed to get user")
		return
	}
	friends := make(map[uuid.UUID]bool, len(user.Friends))
	for _, friendID := range user.Friends {
		friends[friendID] = true
	}

	matches, err := a.store.SearchUsers(ctx, query, msg.UserID)
	if err != nil {
		a.respondError(context, err, "Failed to search users")
		return
	}

	results := make([]models.UserSummary, 0, len(matches))
	for _, match := range matches {
		if friends[match.ID] {
			continue
		}
		results = append(results, match.Summary())
	}
	context.Respond(results)
}
