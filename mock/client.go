// Package mock provides an in-memory MQTT client for tests and dry runs.
package mock

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/lone-faerie/smsgateway/log"
)

// Message is a message published with a MockClient.
type Message struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// MockClient implements [mqtt.Client] without a broker. Published messages
// are recorded and, if a writer was given, written to it as a JSON object
// of topic to payload.
type MockClient struct {
	connected bool

	// ConnectErr, if set, is returned by the Connect token.
	ConnectErr error
	// PublishErr, if set, is returned by every Publish token.
	PublishErr error

	onConnect mqtt.OnConnectHandler
	msg       []byte
	opts      *mqtt.ClientOptions
	w         io.Writer
	published []Message
	mu        sync.Mutex
}

// NewMockClient returns a MockClient with options o writing published
// messages to w. Both may be nil.
func NewMockClient(o *mqtt.ClientOptions, w io.Writer) *MockClient {
	if o == nil {
		o = mqtt.NewClientOptions()
	}
	return &MockClient{
		opts:      o,
		w:         w,
		onConnect: o.OnConnect,
	}
}

// SetCallbackMessage sets the payload delivered to subscribers.
func (c *MockClient) SetCallbackMessage(msg []byte) {
	c.msg = msg
}

// Published returns the messages published so far.
func (c *MockClient) Published() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.published...)
}

func (c *MockClient) IsConnected() bool {
	return c.connected
}

func (c *MockClient) IsConnectionOpen() bool {
	return c.connected
}

func (c *MockClient) Connect() mqtt.Token {
	if c.ConnectErr != nil {
		return &token{err: c.ConnectErr}
	}
	c.connected = true
	if c.onConnect != nil {
		c.onConnect(c)
	}
	return &mqtt.DummyToken{}
}

func (c *MockClient) Disconnect(_ uint) {
	c.connected = false
}

func (c *MockClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	var p []byte
	switch v := payload.(type) {
	case []byte:
		p = v
	case string:
		p = []byte(v)
	}
	c.published = append(c.published, Message{Topic: topic, QoS: qos, Retained: retained, Payload: p})

	if c.PublishErr != nil {
		return &token{err: c.PublishErr}
	}
	if c.w == nil {
		return &mqtt.DummyToken{}
	}

	raw := json.RawMessage(p)
	if len(p) == 0 || !json.Valid(p) {
		raw, _ = json.Marshal(string(p))
	}
	e := json.NewEncoder(c.w)
	e.SetIndent("", "  ")
	if err := e.Encode(map[string]json.RawMessage{topic: raw}); err != nil {
		log.Error("Error encoding "+topic, err)
	}
	if s, ok := c.w.(interface{ Sync() error }); ok {
		s.Sync()
	}
	return &mqtt.DummyToken{}
}

func (c *MockClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	callback(c, &message{topic: topic, payload: c.msg})
	return &mqtt.DummyToken{}
}

func (c *MockClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	for topic := range filters {
		callback(c, &message{topic: topic, payload: c.msg})
	}
	return &mqtt.DummyToken{}
}

func (c *MockClient) Unsubscribe(topics ...string) mqtt.Token {
	return &mqtt.DummyToken{}
}

func (c *MockClient) AddRoute(topic string, callback mqtt.MessageHandler) {}

func (c *MockClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.NewOptionsReader(c.opts)
}

var _ mqtt.Client = (*MockClient)(nil)

// token is a completed token carrying an error.
type token struct {
	err error
}

var closed = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func (t *token) Wait() bool                       { return true }
func (t *token) WaitTimeout(_ time.Duration) bool { return true }
func (t *token) Done() <-chan struct{}            { return closed }
func (t *token) Error() error                     { return t.err }

type message struct {
	topic   string
	payload []byte
}

func (m *message) Duplicate() bool   { return false }
func (m *message) Qos() byte         { return 0 }
func (m *message) Retained() bool    { return false }
func (m *message) MessageID() uint16 { return 0 }
func (m *message) Ack()              {}

func (m *message) Topic() string {
	return m.topic
}

func (m *message) Payload() []byte {
	return m.payload
}
