package bollywood

// Producer constructs a new Actor instance. The engine calls it once per Spawn.
type Producer func() Actor

// Props configures how an actor is produced. It is intentionally tiny today;
// mailbox sizing and supervisor strategy hooks can be added here later
// without touching call sites.
type Props struct {
	producer Producer
}

// NewProps wraps a Producer so it can be handed to Engine.Spawn.
func NewProps(producer Producer) *Props {
	if producer == nil {
		panic("bollywood: producer cannot be nil")
	}
	return &Props{producer: producer}
}

// Produce creates a new actor instance.
func (p *Props) Produce() Actor {
	return p.producer()
}
