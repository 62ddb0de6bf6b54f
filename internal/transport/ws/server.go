package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"campfire.ai/internal/protocol"
	"campfire.ai/internal/sim/scene"
	"campfire.ai/internal/sim/view"
)

type Server struct {
	hub          *Hub
	log          *log.Logger
	validator    *protocol.Validator
	params       protocol.SessionParams
	defaultScene scene.ID

	upgrader websocket.Upgrader
}

func NewServer(hub *Hub, params protocol.SessionParams, logger *log.Logger) (*Server, error) {
	v, err := protocol.NewValidator()
	if err != nil {
		return nil, err
	}
	s := &Server{
		hub:          hub,
		log:          logger,
		validator:    v,
		params:       params,
		defaultScene: scene.Camp,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s, nil
}

// conn is one attached client. Writes go through out; a slow client loses
// messages rather than stalling the session loop.
type conn struct {
	out chan []byte

	mu    sync.Mutex
	scene scene.ID
}

func (c *conn) send(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.out <- b:
	default:
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		ws, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		entry, c, first := s.handshake(ws)
		if entry == nil {
			return
		}
		sess := entry.sess

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		unsubEvents := sess.Subscribe(func(ev scene.Event) {
			if ev.Kind == scene.EventSceneEntered {
				c.mu.Lock()
				c.scene = ev.Scene
				c.mu.Unlock()
			}
			c.send(protocol.EventMsg{Type: protocol.TypeEvent, ProtocolVersion: protocol.Version, Event: wireEvent(ev)})
		})
		unsubFrames := sess.SubscribeFrames(func(step uint64, f view.Frame) {
			c.send(protocol.StateMsg{Type: protocol.TypeState, ProtocolVersion: protocol.Version, Step: step, Frame: f})
		})
		defer func() {
			unsubEvents()
			unsubFrames()
			// Tear the scene down so its fire stops burning while nobody is connected.
			ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel2()
			if resp, err := sess.Submit(ctx2, scene.Request{Kind: scene.ReqLeave}); err == nil && resp.Err != nil && !errors.Is(resp.Err, scene.ErrNoScene) {
				s.log.Printf("session %s: leave on disconnect: %v", sess.ID(), resp.Err)
			}
			c.mu.Lock()
			last := c.scene
			c.mu.Unlock()
			s.hub.Release(entry, last)
		}()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-c.out:
					_ = ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		if first != "" {
			if resp, err := sess.Submit(ctx, scene.Request{Kind: scene.ReqEnter, Scene: first}); err != nil {
				return
			} else if resp.Err != nil {
				s.log.Printf("session %s: enter %s: %v", sess.ID(), first, resp.Err)
			}
		}

		// Reader loop.
		for {
			_ = ws.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := ws.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeAct {
				continue
			}
			act, err := s.validator.Act(msg)
			if err != nil {
				var probe struct {
					ID string `json:"id"`
				}
				_ = json.Unmarshal(msg, &probe)
				c.send(protocol.AckMsg{
					Type:            protocol.TypeAck,
					ProtocolVersion: protocol.Version,
					AckFor:          probe.ID,
					Code:            protocol.ErrProtoBadRequest,
					Message:         err.Error(),
				})
				continue
			}
			if act.ProtocolVersion != protocol.Version {
				c.send(protocol.AckMsg{
					Type:            protocol.TypeAck,
					ProtocolVersion: protocol.Version,
					AckFor:          act.ID,
					Code:            protocol.ErrProtoBadRequest,
					Message:         "bad protocol_version",
				})
				continue
			}
			resp, err := sess.Submit(ctx, requestFor(act))
			if err != nil {
				break
			}
			ack := protocol.AckMsg{
				Type:            protocol.TypeAck,
				ProtocolVersion: protocol.Version,
				AckFor:          act.ID,
				Accepted:        resp.Err == nil,
				Item:            resp.Item,
			}
			if resp.Err != nil {
				ack.Code = scene.CodeFor(resp.Err)
				ack.Message = scene.MessageFor(resp.Err)
			}
			c.send(ack)
		}
	}
}

func (s *Server) handshake(ws *websocket.Conn) (*hubEntry, *conn, scene.ID) {
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := ws.ReadMessage()
	if err != nil {
		return nil, nil, ""
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil, nil, ""
	}
	hello, err := s.validator.Hello(msg)
	if err != nil {
		_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad HELLO"), time.Now().Add(time.Second))
		return nil, nil, ""
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil, nil, ""
	}

	entry, resumed, err := s.hub.Acquire(hello.ResumeToken)
	if err != nil {
		s.log.Printf("acquire session for %s: %v", hello.ClientName, err)
		_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "unavailable"), time.Now().Add(time.Second))
		return nil, nil, ""
	}

	first := scene.ID(hello.Scene)
	if first == "" && resumed {
		first = s.hub.LastScene(entry)
	}
	if first == "" {
		first = s.defaultScene
	}

	scenes := make([]string, 0, 4)
	for _, id := range scene.IDs() {
		scenes = append(scenes, string(id))
	}
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       entry.sess.ID(),
		ResumeToken:     entry.token,
		Resumed:         resumed,
		Scenes:          scenes,
		Params:          s.params,
	}
	if err := writeJSON(ws, welcome); err != nil {
		s.hub.Release(entry, "")
		return nil, nil, ""
	}
	s.log.Printf("client %s attached to session %s (resumed=%v)", hello.ClientName, entry.sess.ID(), resumed)
	return entry, &conn{out: make(chan []byte, 64)}, first
}

func requestFor(act protocol.ActMsg) scene.Request {
	switch act.Action {
	case protocol.ActionStoke:
		return scene.Request{Kind: scene.ReqStoke, Target: act.Target, Item: act.Item, Quantity: act.Quantity}
	case protocol.ActionCook:
		return scene.Request{Kind: scene.ReqCook, Item: act.Item}
	case protocol.ActionClaim:
		return scene.Request{Kind: scene.ReqClaim}
	case protocol.ActionEnter:
		return scene.Request{Kind: scene.ReqEnter, Scene: scene.ID(act.Scene)}
	case protocol.ActionLeave:
		return scene.Request{Kind: scene.ReqLeave}
	default:
		return scene.Request{Kind: scene.ReqView}
	}
}

func wireEvent(ev scene.Event) protocol.Event {
	return protocol.Event{
		Seq:     ev.Seq,
		At:      ev.At,
		Kind:    string(ev.Kind),
		Scene:   string(ev.Scene),
		Source:  ev.Source,
		Item:    ev.Item,
		Code:    ev.Code,
		Message: ev.Message,
	}
}

func writeJSON(ws *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return ws.WriteMessage(websocket.TextMessage, b)
}
