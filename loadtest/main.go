package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	BaseURL   = "http://localhost:8080"
	WSURL     = "ws://localhost:8080/ws"
	PairCount = 50 // each pair is two users messaging each other
	MsgCount  = 20 // messages per user
)

type loginResponse struct {
	Token    string `json:"access_token"`
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func main() {
	log.Printf("🔥 STARTING STRESS TEST: %d users, %d messages each...", PairCount*2, MsgCount)
	var wg sync.WaitGroup

	for i := 0; i < PairCount; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runPair(pairID)
		}(i)
	}

	wg.Wait()
	log.Println("✅ LOAD TEST COMPLETE")
}

// runPair registers two users and has them exchange private messages while
// also posting into the shared room.
func runPair(pairID int) {
	userA := fmt.Sprintf("load_%d_a", pairID)
	userB := fmt.Sprintf("load_%d_b", pairID)
	pass := "password123"

	a := authenticate(userA, pass)
	b := authenticate(userB, pass)
	if a == nil || b == nil {
		return
	}

	var wsWg sync.WaitGroup
	wsWg.Add(2)
	go spam(&wsWg, a, b.ID)
	go spam(&wsWg, b, a.ID)
	wsWg.Wait()
}

// authenticate registers (ignoring already-exists failures) and logs in.
func authenticate(nickname, password string) *loginResponse {
	postJSON("/register", map[string]string{
		"nickname": nickname,
		"name":     nickname,
		"email":    nickname + "@loadtest.local",
		"password": password,
	})

	resp, err := postJSON("/login", map[string]string{"nickname": nickname, "password": password})
	if err != nil {
		log.Printf("❌ Login failed [%s]: %v", nickname, err)
		return nil
	}
	defer resp.Body.Close()

	var data loginResponse
	json.NewDecoder(resp.Body).Decode(&data)
	if data.Token == "" {
		log.Printf("❌ Login returned no token [%s]", nickname)
		return nil
	}
	return &data
}

func spam(wg *sync.WaitGroup, self *loginResponse, partnerID string) {
	defer wg.Done()

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s?token=%s", WSURL, self.Token), nil)
	if err != nil {
		log.Printf("❌ WS connect failed [%s]: %v", self.Nickname, err)
		return
	}
	defer conn.Close()

	// Drain inbound frames so the server never sees us as a slow consumer.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for i := 0; i < MsgCount; i++ {
		var msg envelope
		if i%5 == 0 {
			msg = envelope{Event: "chat_message", Data: map[string]string{
				"content": fmt.Sprintf("load test room msg %d from %s", i, self.Nickname),
			}}
		} else {
			msg = envelope{Event: "private_message", Data: map[string]string{
				"recipient_id": partnerID,
				"content":      fmt.Sprintf("load test dm %d from %s", i, self.Nickname),
			}}
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("❌ Send failed [%s]: %v", self.Nickname, err)
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	log.Printf("✅ %s finished sending %d msgs", self.Nickname, MsgCount)
}

func postJSON(endpoint string, data any) (*http.Response, error) {
	jsonData, _ := json.Marshal(data)
	return http.Post(BaseURL+endpoint, "application/json", bytes.NewBuffer(jsonData))
}
