package client

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"robots/internal/protocol"
	"robots/internal/shared/logger"
	"robots/internal/wire"

	"golang.org/x/sync/errgroup"
)

var ErrServerClosed = errors.New("server-closed")

// Relay joins a server TCP stream and a display UDP socket through a Mirror.
type Relay struct {
	server      net.Conn
	display     net.PacketConn
	displayAddr net.Addr

	mu     sync.Mutex
	mirror *Mirror

	writeMu sync.Mutex
}

func NewRelay(name string, server net.Conn, display net.PacketConn, displayAddr net.Addr) *Relay {
	if tcp, ok := server.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
	}
	return &Relay{
		server:      server,
		display:     display,
		displayAddr: displayAddr,
		mirror:      NewMirror(name),
	}
}

// Run blocks until ctx is cancelled or either side fails. Both sockets are
// closed on return.
func (r *Relay) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(ctx, func() {
		r.server.Close()
		r.display.Close()
	})
	defer stop()

	g.Go(func() error { return r.ServerLoop(ctx) })
	g.Go(func() error { return r.DisplayLoop(ctx) })
	err := g.Wait()
	r.server.Close()
	r.display.Close()
	return err
}

// ServerLoop applies every server message to the mirror and publishes the
// result to the display.
func (r *Relay) ServerLoop(ctx context.Context) error {
	reader := wire.NewReader(bufio.NewReader(r.server))
	for {
		msg, err := protocol.ReadServer(reader)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return ErrServerClosed
			}
			return err
		}
		logger.Tracef("server sent %T", msg)

		r.mu.Lock()
		r.mirror.Handle(msg)
		view := r.mirror.View()
		r.mu.Unlock()

		if err := r.publish(view); err != nil {
			return err
		}
	}
}

func (r *Relay) publish(view protocol.DisplayMessage) error {
	data, err := protocol.MarshalDisplay(view)
	if err != nil {
		return err
	}
	if _, err := r.display.WriteTo(data, r.displayAddr); err != nil {
		logger.Warningf("display %s: %v", r.displayAddr, err)
	}
	return nil
}

// DisplayLoop relays valid display inputs to the server.
func (r *Relay) DisplayLoop(ctx context.Context) error {
	buf := make([]byte, 64)
	for {
		n, from, err := r.display.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		in, ok := protocol.ParseInput(buf[:n])
		if !ok {
			logger.Tracef("discarded %d byte datagram from %s", n, from)
			continue
		}

		r.mu.Lock()
		out, ok := r.mirror.Forward(in)
		r.mu.Unlock()
		if !ok {
			logger.Tracef("input %T dropped, join already sent", in)
			continue
		}
		if err := r.send(out); err != nil {
			return err
		}
	}
}

func (r *Relay) send(msg protocol.ClientMessage) error {
	data, err := protocol.MarshalClient(msg)
	if err != nil {
		return err
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	_, err = r.server.Write(data)
	return err
}
