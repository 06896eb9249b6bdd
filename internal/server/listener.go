package server

import (
	"context"
	"errors"
	"net"

	"robots/internal/shared/logger"
)

// Listener accepts player connections and attaches each one to the
// scheduler as a session.
type Listener struct {
	scheduler   *Scheduler
	idGenerator UniqueIdGenerator
}

func NewListener(scheduler *Scheduler, idgen UniqueIdGenerator) *Listener {
	return &Listener{scheduler: scheduler, idGenerator: idgen}
}

// Serve accepts on ln until ctx is cancelled.
func (l *Listener) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	logger.Infof("listening on %s", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go l.Attach(ctx, NewTCPConnection(conn))
	}
}

// Attach runs a session over socket until either side closes it.
func (l *Listener) Attach(ctx context.Context, socket NetworkSession) {
	peer := NewPeer(l.idGenerator.Generate(), socket)
	if err := l.scheduler.Register(ctx, peer); err != nil {
		peer.Close(err.Error())
		return
	}
	logger.Debugf("session %s from %s", peer.ID(), socket.RemoteAddr())
	go peer.WritePump()
	peer.ReadPump(ctx, l.scheduler)
}
