package actors

import (
	stdctx "context"
	"log"
	"strings"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"swampbook/internal/database"
	"swampbook/internal/models"
	"swampbook/internal/utils"
)

// Message types for UserActor
type (
	RegisterUserMsg struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
	}

	LoginMsg struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	GetUserProfileMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	UpdateProfileMsg struct {
		UserID uuid.UUID             `json:"userId"`
		Update *models.ProfileUpdate `json:"update"`
	}

	// UpdateActivityMsg is fire-and-forget, sent when a websocket connection
	// opens or closes.
	UpdateActivityMsg struct {
		UserID   uuid.UUID `json:"userId"`
		IsOnline bool      `json:"isOnline"`
	}
)

// UserActor owns account registration, login and profile state.
type UserActor struct {
	store   database.Store
	metrics *utils.MetricsCollector
}

func NewUserActor(store database.Store, metrics *utils.MetricsCollector) *UserActor {
	return &UserActor{
		store:   store,
		metrics: metrics,
	}
}

func (a *UserActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *RegisterUserMsg:
		a.handleRegister(context, msg)
	case *LoginMsg:
		a.handleLogin(context, msg)
	case *GetUserProfileMsg:
		a.handleGetProfile(context, msg)
	case *UpdateProfileMsg:
		a.handleUpdateProfile(context, msg)
	case *UpdateActivityMsg:
		a.handleUpdateActivity(msg)
	}
}

func (a *UserActor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	username := strings.TrimSpace(msg.Username)
	email := strings.ToLower(strings.TrimSpace(msg.Email))
	if username == "" || email == "" || msg.Password == "" || strings.TrimSpace(msg.FullName) == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "username, email, password and fullName are required", nil))
		return
	}
	if len(msg.Password) < 6 {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "password must be at least 6 characters", nil))
		return
	}

	if existing, _ := a.store.GetUserByEmail(ctx, email); existing != nil {
		context.Respond(utils.NewAppError(utils.ErrUserAlreadyExists, "Email already registered", nil))
		return
	}
	if existing, _ := a.store.GetUserByUsername(ctx, username); existing != nil {
		context.Respond(utils.NewAppError(utils.ErrUserAlreadyExists, "Username already taken", nil))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(msg.Password), bcrypt.DefaultCost)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to hash password", err))
		return
	}

	now := time.Now()
	user := &models.User{
		ID:             uuid.New(),
		Username:       username,
		Email:          email,
		HashedPassword: string(hashed),
		FullName:       strings.TrimSpace(msg.FullName),
		Role:           "user",
		Friends:        []uuid.UUID{},
		CreatedAt:      now,
		LastActive:     now,
	}

	if err := a.store.SaveUser(ctx, user); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to save user", err))
		return
	}

	log.Printf("Registered user %s (%s)", user.Username, user.ID)
	a.metrics.AddOperationLatency("register_user", time.Since(start))
	context.Respond(user)
}

func (a *UserActor) handleLogin(context actor.Context, msg *LoginMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	email := strings.ToLower(strings.TrimSpace(msg.Email))
	user, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		// Wrong email and wrong password look the same to the caller.
		context.Respond(utils.NewAppError(utils.ErrInvalidCredentials, "Invalid email or password", nil))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)); err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidCredentials, "Invalid email or password", nil))
		return
	}

	if err := a.store.UpdateUserActivity(ctx, user.ID, true); err != nil {
		log.Printf("Failed to update activity for user %s: %v", user.ID, err)
	}

	a.metrics.AddOperationLatency("login_user", time.Since(start))
	context.Respond(user)
}

func (a *UserActor) handleGetProfile(context actor.Context, msg *GetUserProfileMsg) {
	user, err := a.store.GetUser(stdctx.Background(), msg.UserID)
	if err != nil {
		if appErr, ok := err.(*utils.AppError); ok {
			context.Respond(appErr)
			return
		}
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to get user", err))
		return
	}
	context.Respond(user)
}

func (a *UserActor) handleUpdateProfile(context actor.Context, msg *UpdateProfileMsg) {
	start := time.Now()
	ctx := stdctx.Background()

	if err := a.store.UpdateUserProfile(ctx, msg.UserID, msg.Update); err != nil {
		if appErr, ok := err.(*utils.AppError); ok {
			context.Respond(appErr)
			return
		}
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to update profile", err))
		return
	}

	user, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "Failed to reload profile", err))
		return
	}

	a.metrics.AddOperationLatency("update_profile", time.Since(start))
	context.Respond(user)
}

func (a *UserActor) handleUpdateActivity(msg *UpdateActivityMsg) {
	if err := a.store.UpdateUserActivity(stdctx.Background(), msg.UserID, msg.IsOnline); err != nil {
		log.Printf("Failed to update activity for user %s: %v", msg.UserID, err)
	}
}
