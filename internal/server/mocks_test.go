package server

import (
	"context"
	"time"

	"robots/internal/protocol"

	"github.com/stretchr/testify/mock"
)

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) (<-chan time.Time, func()) {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time), func() { m.MethodCalled("Stop") }
}

// --- UniqueIdGenerator ---

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

// --- Session ---

type MockSession struct {
	mock.Mock
}

func (m *MockSession) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSession) Send(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockSession) Close(errCode string) {
	m.Called(errCode)
}

// --- NetworkSession ---

type MockNetworkSession struct {
	mock.Mock
}

func (m *MockNetworkSession) RemoteAddr() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockNetworkSession) Read() (protocol.ClientMessage, error) {
	args := m.Called()
	msg, _ := args.Get(0).(protocol.ClientMessage)
	return msg, args.Error(1)
}

func (m *MockNetworkSession) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockNetworkSession) Close(errCode string) {
	m.Called(errCode)
}

// --- IntentSink ---

type MockIntentSink struct {
	mock.Mock
}

func (m *MockIntentSink) Submit(ctx context.Context, in Intent) {
	m.Called(ctx, in)
}

func (m *MockIntentSink) Remove(id string) {
	m.Called(id)
}
