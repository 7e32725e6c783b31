package connector

import "github.com/stretchr/testify/mock"

// MockConnector is a testify/mock-based Connector stand-in, mirroring the
// teacher's MockSQSClient (consumer_test.go) pattern of mocking the
// transport boundary rather than faking a real socket.
type MockConnector struct {
	mock.Mock
	receiver Receiver
}

func (m *MockConnector) Send(msgType string, data []byte) (int64, error) {
	args := m.Called(msgType, data)
	return int64(args.Int(0)), args.Error(1)
}

func (m *MockConnector) SendResponse(msgType string, seq int64, data []byte) error {
	args := m.Called(msgType, seq, data)
	return args.Error(0)
}

func (m *MockConnector) SetReceiver(r Receiver) {
	m.receiver = r
	m.Called(r)
}

func (m *MockConnector) Start() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockConnector) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Receiver returns the callback installed via SetReceiver, letting tests
// synthesize inbound envelopes without a real transport.
func (m *MockConnector) Receiver() Receiver {
	return m.receiver
}
