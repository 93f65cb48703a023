package engine

import (
	"github.com/asynkron/protoactor-go/actor"

	"swampbook/internal/database"
	"swampbook/internal/engine/actors"
	"swampbook/internal/utils"
)

// Engine owns the domain actors. One actor per domain; every mutation of a
// conversation or a friendship is serialized through the owning actor's
// mailbox.
type Engine struct {
	userActor         *actor.PID
	chatActor         *actor.PID
	friendActor       *actor.PID
	postActor         *actor.PID
	notificationActor *actor.PID
}

// NewEngine spawns the domain actors. The notification actor goes first so
// its PID can be handed to the actors that fan out notifications.
func NewEngine(system *actor.ActorSystem, store database.Store, pusher actors.Pusher, metrics *utils.MetricsCollector) *Engine {
	context := system.Root

	notificationProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewNotificationActor(store, pusher, metrics)
	})
	notificationPID := context.Spawn(notificationProps)

	userProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewUserActor(store, metrics)
	})
	userPID := context.Spawn(userProps)

	chatProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewChatActor(store, notificationPID, pusher, metrics)
	})
	chatPID := context.Spawn(chatProps)

	friendProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewFriendActor(store, notificationPID, metrics)
	})
	friendPID := context.Spawn(friendProps)

	postProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewPostActor(store, notificationPID, metrics)
	})
	postPID := context.Spawn(postProps)

	return &Engine{
		userActor:         userPID,
		chatActor:         chatPID,
		friendActor:       friendPID,
		postActor:         postPID,
		notificationActor: notificationPID,
	}
}

// GetUserActor returns the PID of the user actor
func (e *Engine) GetUserActor() *actor.PID {
	return e.userActor
}

// GetChatActor returns the PID of the chat actor
func (e *Engine) GetChatActor() *actor.PID {
	return e.chatActor
}

// GetFriendActor returns the PID of the friend actor
func (e *Engine) GetFriendActor() *actor.PID {
	return e.friendActor
}

// GetPostActor returns the PID of the post actor
func (e *Engine) GetPostActor() *actor.PID {
	return e.postActor
}

// GetNotificationActor returns the PID of the notification actor
func (e *Engine) GetNotificationActor() *actor.PID {
	return e.notificationActor
}
