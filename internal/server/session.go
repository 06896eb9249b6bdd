package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"robots/internal/protocol"
	"robots/internal/shared/logger"

	"golang.org/x/time/rate"
)

const (
	outboxSize  = 256
	intentRate  = 20
	intentBurst = 40
)

// NetworkSession is the transport under a session: a TCP stream for players
// or a websocket for spectators.
type NetworkSession interface {
	RemoteAddr() string
	Read() (protocol.ClientMessage, error)
	Write(data []byte) error
	Close(errCode string)
}

// Session is what the Scheduler broadcasts to. Send never blocks.
type Session interface {
	ID() string
	Send(data []byte) error
	Close(errCode string)
}

// IntentSink receives what a session reads. The Scheduler implements it.
type IntentSink interface {
	Submit(ctx context.Context, in Intent)
	Remove(id string)
}

type Peer struct {
	id          string
	address     string
	socket      NetworkSession
	rateLimiter *rate.Limiter
	outbox      chan []byte
	done        chan struct{}
	closeOnce   sync.Once
}

func NewPeer(id string, socket NetworkSession) *Peer {
	return &Peer{
		id:          id,
		address:     socket.RemoteAddr(),
		socket:      socket,
		rateLimiter: rate.NewLimiter(intentRate, intentBurst),
		outbox:      make(chan []byte, outboxSize),
		done:        make(chan struct{}),
	}
}

func (p *Peer) ID() string {
	return p.id
}

func (p *Peer) Send(data []byte) error {
	select {
	case <-p.done:
		return ErrSessionClosed
	default:
	}
	select {
	case p.outbox <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (p *Peer) Close(errCode string) {
	p.closeOnce.Do(func() {
		close(p.done)
		p.socket.Close(errCode)
	})
}

type readResult struct {
	msg protocol.ClientMessage
	err error
}

func (p *Peer) readLoop(reads chan<- readResult) {
	for {
		msg, err := p.socket.Read()
		reads <- readResult{msg, err}
		if err != nil {
			return
		}
	}
}

// ReadPump forwards decoded messages to sink until the socket fails. The
// session is removed from sink on return.
//
// Joins are never limited. Over the intent rate, only the newest intent is
// held back and it is submitted once the limiter allows it.
func (p *Peer) ReadPump(ctx context.Context, sink IntentSink) {
	defer func() {
		sink.Remove(p.id)
		p.Close("read-closed")
	}()

	reads := make(chan readResult)
	go p.readLoop(reads)

	submit := func(msg protocol.ClientMessage) {
		sink.Submit(ctx, Intent{SessionID: p.id, Address: p.address, Message: msg})
	}

	var pending protocol.ClientMessage
	var flush <-chan time.Time
	for {
		select {
		case r := <-reads:
			if r.err != nil {
				switch {
				case errors.Is(r.err, io.EOF), errors.Is(r.err, net.ErrClosed):
					logger.Debugf("session %s (%s) disconnected", p.id, p.address)
				default:
					logger.Warningf("session %s (%s): %v", p.id, p.address, r.err)
				}
				return
			}

			if _, ok := r.msg.(protocol.Join); ok {
				submit(r.msg)
				continue
			}
			if pending == nil && p.rateLimiter.Allow() {
				submit(r.msg)
				continue
			}

			if pending != nil {
				logger.Tracef("session %s over intent rate, %T replaced by %T", p.id, pending, r.msg)
			}
			pending = r.msg
			if flush == nil {
				flush = time.After(p.rateLimiter.Reserve().Delay())
			}

		case <-flush:
			submit(pending)
			pending = nil
			flush = nil
		}
	}
}

func (p *Peer) WritePump() {
	defer p.Close("write-closed")
	for {
		select {
		case data := <-p.outbox:
			if err := p.socket.Write(data); err != nil {
				logger.Warningf("session %s (%s) write: %v", p.id, p.address, err)
				return
			}
		case <-p.done:
			return
		}
	}
}
