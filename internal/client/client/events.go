package client

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// OnAuthStateChange registers cb. Local sign-in, sign-out and refresh
// events are delivered synchronously; server events arrive through the
// WatchAuth stream, which runs while at least one subscriber exists.
func (s *GRPCClient) OnAuthStateChange(cb func(models.AuthEvent)) func() {
	s.subsMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = cb
	if s.watchCancel == nil && s.cc != nil {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		s.watchCancel, s.watchDone = cancel, done
		go s.watch(ctx, done)
	}
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		empty := len(s.subs) == 0
		s.subsMu.Unlock()
		if empty {
			s.stopWatch()
		}
	}
}

func (s *GRPCClient) emit(ev models.AuthEvent) {
	s.subsMu.Lock()
	callbacks := make([]func(models.AuthEvent), 0, len(s.subs))
	for _, cb := range s.subs {
		callbacks = append(callbacks, cb)
	}
	s.subsMu.Unlock()

	for _, cb := range callbacks {
		cb(ev)
	}
}

func (s *GRPCClient) stopWatch() {
	s.subsMu.Lock()
	cancel, done := s.watchCancel, s.watchDone
	s.watchCancel, s.watchDone = nil, nil
	s.subsMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *GRPCClient) watch(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		err := s.watchOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		s.logger.Debug(ctx, "auth stream closed, reconnecting", "error", err, "backoff", s.watchBackoff)

		t := time.NewTimer(s.watchBackoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (s *GRPCClient) watchOnce(ctx context.Context) error {
	if access, _ := s.tokens(); access != "" {
		ctx = withAccessToken(ctx, access)
	}

	desc := &grpc.StreamDesc{StreamName: methodWatchAuth, ServerStreams: true}
	stream, err := s.cc.NewStream(ctx, desc, methodPrefix+methodWatchAuth)
	if err != nil {
		return s.mapError(err)
	}

	req, err := encode(empty{})
	if err != nil {
		return err
	}
	if err := stream.SendMsg(req); err != nil {
		return s.mapError(err)
	}
	if err := stream.CloseSend(); err != nil {
		return s.mapError(err)
	}

	for {
		msg := &structpb.Struct{}
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return s.mapError(err)
		}

		var ev models.AuthEvent
		if err := decode(msg, &ev); err != nil {
			s.logger.Warn(ctx, "dropping malformed auth event", "error", err)
			continue
		}
		s.applyRemoteEvent(ctx, ev)
	}
}

func (s *GRPCClient) applyRemoteEvent(ctx context.Context, ev models.AuthEvent) {
	switch {
	case ev.Type == models.AuthEventSignedOut || ev.Session == nil:
		s.dropSession(ctx)
	default:
		s.storeSession(ctx, ev.Session)
	}
	s.emit(ev)
}
