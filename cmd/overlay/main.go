// Package main - overlay
// Terminal overlay: follows the /ws feed and prints what an on-screen
// overlay would show (round, standings, timer, winners).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"quiz-show/internal/api"
	"quiz-show/internal/game"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

const (
	// ReconnectBaseDelay for exponential backoff
	ReconnectBaseDelay = 1 * time.Second
	// ReconnectMaxDelay caps the backoff
	ReconnectMaxDelay = 30 * time.Second
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using flags and environment")
	}

	defaultURL := os.Getenv("OVERLAY_URL")
	if defaultURL == "" {
		defaultURL = "ws://localhost:3000/ws"
	}
	serverURL := flag.String("url", defaultURL, "WebSocket feed URL")
	playerID := flag.String("player", "", "Follow one contestant's view")
	flag.Parse()

	target, err := url.Parse(*serverURL)
	if err != nil {
		log.Fatalf("Invalid URL %q: %v", *serverURL, err)
	}
	if *playerID != "" {
		q := target.Query()
		q.Set("player", *playerID)
		target.RawQuery = q.Encode()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	o := &overlay{}
	delay := ReconnectBaseDelay
	for {
		connected, err := o.follow(ctx, target.String())
		if ctx.Err() != nil {
			log.Println("👋 Overlay stopped")
			return
		}
		if connected {
			delay = ReconnectBaseDelay
		}
		log.Printf("⚠️ Feed lost (%v), reconnecting in %s", err, delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > ReconnectMaxDelay {
			delay = ReconnectMaxDelay
		}
	}
}

// overlay remembers what it last printed so it only prints changes
type overlay struct {
	round   game.Round
	seen    bool
	lastSeq uint64
}

// follow reads the feed until the connection drops. connected reports
// whether the dial succeeded.
func (o *overlay) follow(ctx context.Context, target string) (connected bool, err error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()
	log.Printf("📡 Connected to %s", target)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var msg struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return true, err
		}
		o.handle(msg.Event, msg.Data)
	}
}

func (o *overlay) handle(event string, data json.RawMessage) {
	switch event {
	case api.MessageGameState:
		var snap game.GameSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			log.Printf("⚠️ Bad state: %v", err)
			return
		}
		o.lastSeq = snap.Sequence
		o.printStandings(snap)

	case api.MessagePlayerView:
		var view game.PlayerView
		if err := json.Unmarshal(data, &view); err != nil {
			log.Printf("⚠️ Bad view: %v", err)
			return
		}
		status := "in play"
		switch {
		case view.IsWinner:
			status = "🏆 winner"
		case view.Player.ForcedEliminated, view.Player.IsEliminated:
			status = "out"
		}
		log.Printf("🙋 %s: %s place, %d pts, %d%% hp, %d lives, %s",
			view.Player.Name, humanize.Ordinal(view.Rank), view.Player.Points,
			view.Player.Health, view.Player.Lives, status)

	default:
		var update api.EventUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			log.Printf("⚠️ Bad update %s: %v", event, err)
			return
		}
		// The hello already covered everything up to its sequence
		if update.Event.Sequence <= o.lastSeq {
			return
		}
		o.lastSeq = update.Event.Sequence
		o.printEvent(update)
	}
}

func (o *overlay) printEvent(u api.EventUpdate) {
	snap := u.State
	switch u.Event.Type {
	case game.EventTypeTimerTick:
		// Every 10s, then each of the last 5
		if r := snap.Timer.Remaining; r%10 == 0 || r <= 5 {
			log.Printf("⏱️ %ds", r)
		}
		return
	case game.EventTypeTimerTimeout:
		log.Println("⏰ Time is up!")
		return
	case game.EventTypeGameFinished:
		log.Printf("🏆 Winners: %s", names(snap.Winners, snap.Players))
	}

	if name := playerName(u.Event.PlayerID, snap.Players); name != "" {
		log.Printf("🎬 %s: %s", u.Event.Type, name)
	} else {
		log.Printf("🎬 %s", u.Event.Type)
	}

	if !o.seen || snap.Round != o.round || u.Event.Type == game.EventTypeGameFinished {
		o.printStandings(snap)
	}
}

func (o *overlay) printStandings(snap game.GameSnapshot) {
	o.round = snap.Round
	o.seen = true

	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s, %d players", snap.Round, len(snap.Players))
	for _, s := range snap.Standings {
		mark := ""
		if s.IsEliminated {
			mark = " ✖"
		}
		if s.PlayerID == snap.ActivePlayerID {
			mark += " ◀"
		}
		fmt.Fprintf(&b, "\n   %-4s %-20s %s pts%s", humanize.Ordinal(s.Rank), s.Name, humanize.Comma(int64(s.Points)), mark)
	}
	log.Println(b.String())
}

func playerName(id string, players []game.Player) string {
	for _, p := range players {
		if p.ID == id {
			return p.Name
		}
	}
	return ""
}

func names(ids []string, players []game.Player) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if n := playerName(id, players); n != "" {
			out = append(out, n)
		} else {
			out = append(out, id)
		}
	}
	return strings.Join(out, ", ")
}
