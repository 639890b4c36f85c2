package bollywood

// Actor processes messages delivered to its mailbox one at a time, in order.
// A Receive call never overlaps with another for the same actor, so
// implementations need no internal locking over their own state.
type Actor interface {
	Receive(ctx Context)
}
