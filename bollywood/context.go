package bollywood

// Context is handed to an actor's Receive method and gives it access to
// the running engine plus the envelope of the message being processed.
type Context interface {
	// Engine returns the Engine managing this actor.
	Engine() *Engine
	// Self returns the PID of the actor processing the message.
	Self() *PID
	// Sender returns the PID of the actor that sent the message, if any.
	Sender() *PID
	// Message returns the message being processed.
	Message() interface{}
	// RequestID is non-empty when the message was delivered via Engine.Ask.
	RequestID() string
	// Reply sends a response back to the Ask caller. A no-op when
	// RequestID is empty, and only the first call for a given request
	// has any effect.
	Reply(response interface{})
}

type context struct {
	engine    *Engine
	self      *PID
	sender    *PID
	message   interface{}
	requestID string
	replyCh   chan interface{}
}

func (c *context) Engine() *Engine        { return c.engine }
func (c *context) Self() *PID             { return c.self }
func (c *context) Sender() *PID           { return c.sender }
func (c *context) Message() interface{}   { return c.message }
func (c *context) RequestID() string      { return c.requestID }

func (c *context) Reply(response interface{}) {
	if c.replyCh == nil {
		return
	}
	select {
	case c.replyCh <- response:
	default:
		// Ask already timed out and stopped listening; drop the reply.
	}
}
