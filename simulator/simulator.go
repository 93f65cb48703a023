package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SimConfig controls the shape of a simulation run.
type SimConfig struct {
	NumUsers         int
	FriendsPerUser   int
	SimulationTime   time.Duration
	MessageFrequency float64 // messages per user per minute
	TypingChance     float64 // probability a message is preceded by a typing signal
	PostFrequency    float64 // posts per user per minute
	LikeChance       float64 // probability a user likes a seen feed post
	ServerURL        string
}

// SimulationStats accumulates request-level results.
type SimulationStats struct {
	mu               sync.RWMutex
	StartTime        time.Time
	TotalRequests    int64
	SuccessRequests  int64
	FailedRequests   int64
	AverageLatency   time.Duration
	TotalMessages    int
	TotalPosts       int
	TotalLikes       int
	RequestLatencies []time.Duration
}

// SimulatedUser is one synthetic account and its session state.
type SimulatedUser struct {
	ID            uuid.UUID
	Username      string
	Email         string
	Token         string
	Friends       []uuid.UUID
	Conversations []uuid.UUID
}

// Simulator drives the HTTP API with synthetic social traffic.
type Simulator struct {
	config SimConfig
	stats  *SimulationStats
	users  []*SimulatedUser
	client *http.Client
	mu     sync.RWMutex
}

func NewSimulator(config SimConfig) *Simulator {
	return &Simulator{
		config: config,
		stats: &SimulationStats{
			StartTime:        time.Now(),
			RequestLatencies: make([]time.Duration, 0),
		},
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *Simulator) Run(ctx context.Context) error {
	log.Printf("Starting simulation...")

	if err := s.initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %v", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.SimulateActivities(ctx); err != nil {
			log.Printf("Activities simulation error: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.collectMetrics(ctx)
	}()

	wg.Wait()
	return nil
}

func (s *Simulator) initialize(ctx context.Context) error {
	log.Printf("Phase 1: Creating %d users...", s.config.NumUsers)
	if err := s.createInitialUsers(ctx); err != nil {
		return fmt.Errorf("failed to create users: %v", err)
	}

	log.Printf("Phase 2: Building friendships (%d per user)...", s.config.FriendsPerUser)
	if err := s.buildFriendships(ctx); err != nil {
		return fmt.Errorf("failed to build friendships: %v", err)
	}

	log.Printf("Phase 3: Opening conversations between friends...")
	if err := s.openConversations(ctx); err != nil {
		return fmt.Errorf("failed to open conversations: %v", err)
	}

	log.Printf("Initialization completed successfully")
	return nil
}

func (s *Simulator) createInitialUsers(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make([]*SimulatedUser, 0, s.config.NumUsers)

	rateLimiter := time.NewTicker(100 * time.Millisecond)
	defer rateLimiter.Stop()

	runID := time.Now().Unix()
	for i := 0; i < s.config.NumUsers; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rateLimiter.C:
		}

		user := &SimulatedUser{
			Username: fmt.Sprintf("sim_user_%d_%d", runID, i),
			Email:    fmt.Sprintf("sim_user_%d_%d@test.com", runID, i),
		}
		if err := s.registerUser(user); err != nil {
			log.Printf("Failed to register user %s: %v", user.Username, err)
			continue
		}
		s.users = append(s.users, user)
	}

	log.Printf("Successfully created %d users", len(s.users))
	if len(s.users) < 2 {
		return fmt.Errorf("need at least 2 users, got %d", len(s.users))
	}
	return nil
}

func (s *Simulator) registerUser(user *SimulatedUser) error {
	data := map[string]interface{}{
		"username": user.Username,
		"email":    user.Email,
		"password": "testpass123",
		"fullName": "Simulated " + user.Username,
	}

	resp, err := s.makeRequest("", "POST", "/users/register", data)
	if err != nil {
		return fmt.Errorf("failed to register user: %v", err)
	}

	var result struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to parse registration response: %v", err)
	}
	userID, err := uuid.Parse(result.User.ID)
	if err != nil {
		return fmt.Errorf("invalid user ID returned: %v", err)
	}

	user.ID = userID
	user.Token = result.Token
	return nil
}

// buildFriendships wires each user to its next few neighbors: a request from
// one side, an accept from the other.
func (s *Simulator) buildFriendships(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, user := range s.users {
		for j := 1; j <= s.config.FriendsPerUser && j < len(s.users); j++ {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			other := s.users[(i+j)%len(s.users)]
			if user.hasFriend(other.ID) {
				continue
			}

			_, err := s.makeRequest(user.Token, "POST", "/friends/request",
				map[string]interface{}{"userId": other.ID.String()})
			if err != nil {
				log.Printf("Friend request %s -> %s failed: %v", user.Username, other.Username, err)
				continue
			}
			_, err = s.makeRequest(other.Token, "POST", "/friends/accept",
				map[string]interface{}{"userId": user.ID.String()})
			if err != nil {
				log.Printf("Friend accept %s -> %s failed: %v", other.Username, user.Username, err)
				continue
			}

			user.Friends = append(user.Friends, other.ID)
			other.Friends = append(other.Friends, user.ID)
		}
	}
	return nil
}

func (u *SimulatedUser) hasFriend(id uuid.UUID) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// openConversations starts a conversation between every friend pair.
func (s *Simulator) openConversations(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		for _, friendID := range user.Friends {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			resp, err := s.makeRequest(user.Token, "POST", "/messages/conversations",
				map[string]interface{}{"participantId": friendID.String()})
			if err != nil {
				log.Printf("Failed to open conversation for %s: %v", user.Username, err)
				continue
			}

			var conv struct {
				ID string `json:"id"`
			}
			if json.Unmarshal(resp, &conv) != nil {
				continue
			}
			convID, err := uuid.Parse(conv.ID)
			if err != nil {
				continue
			}
			if !containsUUID(user.Conversations, convID) {
				user.Conversations = append(user.Conversations, convID)
			}
		}
	}
	return nil
}

func containsUUID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func (s *Simulator) recordRequestMetrics(start time.Time, err error) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	latency := time.Since(start)
	s.stats.TotalRequests++
	s.stats.RequestLatencies = append(s.stats.RequestLatencies, latency)

	if err != nil {
		s.stats.FailedRequests++
	} else {
		s.stats.SuccessRequests++
	}

	totalLatency := s.stats.AverageLatency * time.Duration(s.stats.TotalRequests-1)
	s.stats.AverageLatency = (totalLatency + latency) / time.Duration(s.stats.TotalRequests)
}

func (s *Simulator) makeRequest(token, method, endpoint string, data interface{}) ([]byte, error) {
	var body []byte
	var err error

	if data != nil {
		body, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(method, s.config.ServerURL+endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	s.recordRequestMetrics(start, err)

	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request failed with status: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (s *Simulator) randomUser() *SimulatedUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.users) == 0 {
		return nil
	}
	return s.users[rand.Intn(len(s.users))]
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.stats.mu.RLock()
			elapsed := time.Since(s.stats.StartTime)
			requestRate := float64(s.stats.TotalRequests) / elapsed.Seconds()
			successRate := 0.0
			if s.stats.TotalRequests > 0 {
				successRate = float64(s.stats.SuccessRequests) / float64(s.stats.TotalRequests) * 100
			}

			log.Printf("\nSimulation Metrics (%.1f seconds elapsed):", elapsed.Seconds())
			log.Printf("- Request Rate: %.2f req/sec", requestRate)
			log.Printf("- Success Rate: %.1f%%", successRate)
			log.Printf("- Average Latency: %v", s.stats.AverageLatency)
			log.Printf("- Total Messages: %d", s.stats.TotalMessages)
			log.Printf("- Total Posts: %d", s.stats.TotalPosts)
			log.Printf("- Total Likes: %d", s.stats.TotalLikes)
			log.Printf("- Failed Requests: %d", s.stats.FailedRequests)
			s.stats.mu.RUnlock()
		}
	}
}

// SimulationMetrics holds the final numbers of a run.
type SimulationMetrics struct {
	TotalUsers        int
	TotalMessages     int
	TotalPosts        int
	TotalLikes        int
	AverageLatency    time.Duration
	ErrorCount        int
	RequestsPerSecond float64
}

// GetMetrics returns the current simulation metrics
func (s *Simulator) GetMetrics() SimulationMetrics {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	elapsed := time.Since(s.stats.StartTime)
	requestRate := float64(s.stats.TotalRequests) / elapsed.Seconds()

	return SimulationMetrics{
		TotalUsers:        len(s.users),
		TotalMessages:     s.stats.TotalMessages,
		TotalPosts:        s.stats.TotalPosts,
		TotalLikes:        s.stats.TotalLikes,
		AverageLatency:    s.stats.AverageLatency,
		ErrorCount:        int(s.stats.FailedRequests),
		RequestsPerSecond: requestRate,
	}
}
