package scene

import (
	"context"
	"fmt"
	"time"

	"campfire.ai/internal/sim/inventory"
	"campfire.ai/internal/sim/view"
)

type RequestKind string

const (
	ReqEnter RequestKind = "ENTER"
	ReqLeave RequestKind = "LEAVE"
	ReqStoke RequestKind = "STOKE"
	ReqCook  RequestKind = "COOK"
	ReqClaim RequestKind = "CLAIM"
	ReqView  RequestKind = "VIEW"
)

// Request is one input event for the session loop.
type Request struct {
	Kind     RequestKind
	Scene    ID
	Target   string
	Item     string
	Quantity int

	Resp chan Response
}

type Response struct {
	Err   error
	Item  *inventory.Item
	Frame view.Frame
}

// Submit hands req to the Run loop and waits for its response.
func (s *Session) Submit(ctx context.Context, req Request) (Response, error) {
	req.Resp = make(chan Response, 1)
	select {
	case s.inbox <- req:
	case <-s.done:
		return Response{}, ErrClosed
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
	select {
	case resp := <-req.Resp:
		return resp, nil
	case <-s.done:
		return Response{}, ErrClosed
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Run is the session loop: requests and scheduler ticks are handled one at a time
// on this goroutine. On return the active scene has been left and saved.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	for {
		var tick <-chan time.Time
		if s.active != nil {
			tick = s.active.sched.C()
		}
		select {
		case <-ctx.Done():
			if s.active != nil {
				// ctx is already cancelled; the final save must still reach the store.
				if err := s.Leave(context.WithoutCancel(ctx)); err != nil {
					s.logger.Printf("session %s: final save: %v", s.cfg.ID, err)
				}
			}
			return ctx.Err()
		case req := <-s.inbox:
			resp := s.handle(ctx, req)
			if req.Resp != nil {
				req.Resp <- resp
			}
			s.publishFrame()
		case <-tick:
			s.Tick(ctx)
			s.publishFrame()
		}
	}
}

func (s *Session) handle(ctx context.Context, req Request) Response {
	var resp Response
	switch req.Kind {
	case ReqEnter:
		resp.Err = s.Enter(ctx, req.Scene)
	case ReqLeave:
		resp.Err = s.Leave(ctx)
	case ReqStoke:
		resp.Err = s.Stoke(ctx, req.Target, req.Item, req.Quantity)
	case ReqCook:
		resp.Err = s.Cook(ctx, req.Item)
	case ReqClaim:
		item, err := s.Claim(ctx)
		if err == nil {
			resp.Item = &item
		}
		resp.Err = err
	case ReqView:
	default:
		resp.Err = fmt.Errorf("unknown request %q", req.Kind)
	}
	resp.Frame = s.View()
	return resp
}
