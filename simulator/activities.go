package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

var messageTemplates = []string{
	"Hey, how's it going?",
	"Did you see the game last night?",
	"Lunch later?",
	"Just got back from the gym",
	"That meme you sent was hilarious",
	"Running a bit late, sorry",
	"Call me when you're free",
	"Happy Friday!",
}

var postTemplates = []string{
	"Beautiful morning at the lake today",
	"Finally finished that book everyone keeps recommending",
	"New personal record at the gym!",
	"Anyone have restaurant recommendations for this weekend?",
	"Throwback to last summer's road trip",
	"Can't believe it's already September",
}

func (s *Simulator) SimulateActivities(ctx context.Context) error {
	log.Printf("Starting activities simulation...")

	// Likes and comments wait until there is something in the feed
	postsAvailable := make(chan struct{})

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateMessaging(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulatePosts(ctx)
	}()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.stats.mu.RLock()
				if s.stats.TotalPosts >= 5 {
					s.stats.mu.RUnlock()
					close(postsAvailable)
					return
				}
				s.stats.mu.RUnlock()
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-postsAvailable:
			log.Printf("Starting likes after posts available...")
			s.simulateLikes(ctx)
		}
	}()

	wg.Wait()
	return nil
}

// simulateMessaging drives the conversation flow: an optional typing signal,
// the message itself, then a read mark from a randomly chosen user.
func (s *Simulator) simulateMessaging(ctx context.Context) {
	log.Printf("Starting messaging simulation...")

	interval := time.Duration(float64(time.Minute) / s.config.MessageFrequency)
	ticker := time.NewTicker(interval / time.Duration(maxInt(1, s.config.NumUsers)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			user := s.randomUser()
			if user == nil || len(user.Conversations) == 0 {
				continue
			}
			convID := user.Conversations[rand.Intn(len(user.Conversations))]

			if rand.Float64() < s.config.TypingChance {
				s.setTyping(user, convID, true)
				time.Sleep(time.Duration(200+rand.Intn(800)) * time.Millisecond)
			}

			data := map[string]interface{}{
				"conversationId": convID.String(),
				"content":        messageTemplates[rand.Intn(len(messageTemplates))],
			}
			if _, err := s.makeRequest(user.Token, "POST", "/messages", data); err != nil {
				log.Printf("Failed to send message for %s: %v", user.Username, err)
				continue
			}

			s.stats.mu.Lock()
			s.stats.TotalMessages++
			s.stats.mu.Unlock()

			// Occasionally have another user catch up on their inbox
			if rand.Float64() < 0.3 {
				reader := s.randomUser()
				if reader != nil && len(reader.Conversations) > 0 {
					readConv := reader.Conversations[rand.Intn(len(reader.Conversations))]
					endpoint := fmt.Sprintf("/messages/conversations/%s/read", readConv)
					if _, err := s.makeRequest(reader.Token, "PUT", endpoint, nil); err != nil {
						log.Printf("Failed to mark conversation read: %v", err)
					}
				}
			}
		}
	}
}

func (s *Simulator) setTyping(user *SimulatedUser, convID uuid.UUID, isTyping bool) {
	endpoint := fmt.Sprintf("/messages/conversations/%s/typing", convID)
	data := map[string]interface{}{"isTyping": isTyping}
	if _, err := s.makeRequest(user.Token, "POST", endpoint, data); err != nil {
		log.Printf("Failed to set typing for %s: %v", user.Username, err)
	}
}

func (s *Simulator) simulatePosts(ctx context.Context) {
	log.Printf("Starting post simulation...")

	interval := time.Duration(float64(time.Minute) / s.config.PostFrequency)
	ticker := time.NewTicker(interval / time.Duration(maxInt(1, s.config.NumUsers)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			user := s.randomUser()
			if user == nil {
				continue
			}

			content := postTemplates[rand.Intn(len(postTemplates))]
			if _, err := s.createPost(user, content); err != nil {
				log.Printf("Failed to create post for %s: %v", user.Username, err)
				continue
			}

			s.stats.mu.Lock()
			s.stats.TotalPosts++
			s.stats.mu.Unlock()
		}
	}
}

// createPost submits the multipart form the posts endpoint expects.
func (s *Simulator) createPost(user *SimulatedUser, content string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("content", content); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", s.config.ServerURL+"/posts", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+user.Token)

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

func (s *Simulator) simulateLikes(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			user := s.randomUser()
			if user == nil {
				continue
			}

			postID, err := s.getRandomFeedPost(user)
			if err != nil {
				continue
			}
			if rand.Float64() >= s.config.LikeChance {
				continue
			}

			endpoint := fmt.Sprintf("/posts/%s/like", postID)
			if _, err := s.makeRequest(user.Token, "POST", endpoint, nil); err != nil {
				log.Printf("Failed to like post: %v", err)
				continue
			}

			s.stats.mu.Lock()
			s.stats.TotalLikes++
			s.stats.mu.Unlock()
		}
	}
}

// getRandomFeedPost fetches the user's feed and picks one post from it.
func (s *Simulator) getRandomFeedPost(user *SimulatedUser) (uuid.UUID, error) {
	resp, err := s.makeRequest(user.Token, "GET", "/posts/feed", nil)
	if err != nil {
		return uuid.Nil, err
	}

	var posts []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp, &posts); err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse feed: %v", err)
	}
	if len(posts) == 0 {
		return uuid.Nil, fmt.Errorf("feed is empty")
	}

	picked := posts[rand.Intn(len(posts))]
	return uuid.Parse(picked.ID)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
