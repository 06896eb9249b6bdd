// Package client mirrors the server's game from its message stream and
// relays between the server and a display speaking UDP.
package client

import (
	"fmt"
	"maps"

	"robots/internal/game"
	"robots/internal/protocol"
)

// Mirror is the client copy of the game. It only changes when a server
// message arrives.
type Mirror struct {
	name       string
	hello      protocol.Hello
	running    bool
	joinSent   bool
	state      *game.State
	explosions game.PositionSet
}

func NewMirror(name string) *Mirror {
	return &Mirror{
		name:       name,
		state:      game.NewState(game.Rules{}),
		explosions: game.NewPositionSet(),
	}
}

func (m *Mirror) Running() bool {
	return m.running
}

func (m *Mirror) State() *game.State {
	return m.state
}

func (m *Mirror) Handle(msg protocol.ServerMessage) {
	switch msg := msg.(type) {
	case protocol.Hello:
		m.hello = msg
		m.state = game.NewState(msg.Rules)
		m.running = false
		m.joinSent = false
		m.explosions = game.NewPositionSet()
	case protocol.AcceptedPlayer:
		m.state.AddPlayer(msg.ID, msg.Player)
	case protocol.GameStarted:
		m.state.Reset()
		for id, p := range msg.Players {
			m.state.AddPlayer(id, p)
		}
		m.running = true
	case protocol.Turn:
		ctx := m.state.ApplyTurn(msg.Turn)
		m.explosions = ctx.Cells
	case protocol.GameEnded:
		m.running = false
		m.joinSent = false
		m.state.Reset()
		m.explosions = game.NewPositionSet()
	default:
		panic(fmt.Sprintf("client: unknown server message %T", msg))
	}
}

// View is the datagram the display should show right now.
func (m *Mirror) View() protocol.DisplayMessage {
	if !m.running {
		return protocol.Lobby{
			ServerName:   m.hello.ServerName,
			PlayersCount: m.hello.PlayersCount,
			Rules:        m.hello.Rules,
			Players:      maps.Clone(m.state.Players),
		}
	}
	return protocol.NewGameView(m.hello.ServerName, m.state, m.explosions)
}

// Forward decides what a display input becomes on the server side: the
// first input in the lobby is a Join, inputs during a game pass through.
func (m *Mirror) Forward(in protocol.ClientMessage) (protocol.ClientMessage, bool) {
	if m.running {
		return in, true
	}
	if m.joinSent {
		return nil, false
	}
	m.joinSent = true
	return protocol.Join{Name: m.name}, true
}
