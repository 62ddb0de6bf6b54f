package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"campfire.ai/internal/protocol"
	"campfire.ai/internal/sim/cooking"
	"campfire.ai/internal/sim/inventory"
	"campfire.ai/internal/sim/scene"
	"campfire.ai/internal/sim/view"
)

// bot keeps the camp fire going and cooks whatever raw food it carries.
type bot struct {
	conn   *websocket.Conn
	logger *log.Logger

	fuel string
	food string

	nextID  int
	pending map[string]string // act id -> action
}

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name  = flag.String("name", "bot", "client name")
		where = flag.String("scene", string(scene.Camp), "scene to enter")
		fuel  = flag.String("fuel", "Wood", "item to stoke with")
		food  = flag.String("food", "Raw Cod", "item to cook")
		token = flag.String("resume", "", "resume token from a previous run")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		ResumeToken:     *token,
		Scene:           *where,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_ = conn.Close()
	}()

	b := &bot{conn: conn, logger: logger, fuel: *fuel, food: *food, pending: map[string]string{}}
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s resume=%s resumed=%v tick=%dms", w.SessionID, w.ResumeToken, w.Resumed, w.Params.TickPeriodMs)

		case protocol.TypeState:
			var st protocol.StateMsg
			if err := json.Unmarshal(msg, &st); err != nil {
				continue
			}
			b.handleState(st.Frame)

		case protocol.TypeEvent:
			var ev protocol.EventMsg
			if err := json.Unmarshal(msg, &ev); err != nil {
				continue
			}
			b.handleEvent(ev.Event)

		case protocol.TypeAck:
			var ack protocol.AckMsg
			if err := json.Unmarshal(msg, &ack); err != nil {
				continue
			}
			b.handleAck(ack)
		}
	}
}

func (b *bot) handleState(f view.Frame) {
	if len(b.pending) > 0 || len(f.Sources) == 0 {
		return
	}
	src := f.Sources[0]
	switch {
	case !src.Lit && count(f.Inventory, b.fuel) > 0:
		b.act(protocol.ActMsg{Action: protocol.ActionStoke, Target: src.ID, Item: b.fuel, Quantity: 1})
	case f.Cooking == nil:
	case f.Cooking.Claimable:
		b.act(protocol.ActMsg{Action: protocol.ActionClaim})
	case src.Lit && f.Cooking.State == string(cooking.PhaseIdle) && count(f.Inventory, b.food) > 0:
		b.act(protocol.ActMsg{Action: protocol.ActionCook, Item: b.food})
	}
}

func (b *bot) handleEvent(ev protocol.Event) {
	switch scene.EventKind(ev.Kind) {
	case scene.EventCookCompleted, scene.EventCookCancelled, scene.EventExtinguished, scene.EventClaimed:
		b.logger.Printf("%s %s %s", ev.Kind, ev.Source, ev.Message)
	}
}

func (b *bot) handleAck(ack protocol.AckMsg) {
	action, ok := b.pending[ack.AckFor]
	if !ok {
		return
	}
	delete(b.pending, ack.AckFor)
	if !ack.Accepted {
		b.logger.Printf("%s rejected: %s (%s)", action, ack.Message, ack.Code)
		return
	}
	if ack.Item != nil {
		b.logger.Printf("%s -> %d x %s", action, ack.Item.Quantity, ack.Item.Name)
	}
}

func (b *bot) act(a protocol.ActMsg) {
	b.nextID++
	a.Type = protocol.TypeAct
	a.ProtocolVersion = protocol.Version
	a.ID = fmt.Sprintf("A%d", b.nextID)
	b.pending[a.ID] = a.Action
	if err := b.conn.WriteJSON(a); err != nil {
		b.logger.Printf("send %s: %v", a.Action, err)
	}
}

func count(items []inventory.Item, name string) int {
	for _, it := range items {
		if it.Name == name {
			return it.Quantity
		}
	}
	return 0
}
