// Package channel provides generic channel interfaces for decoupling the
// sim loop from live consumers of its output.
package channel

// Receiver provides read access to a channel.
type Receiver[T any] interface {
	Receive() <-chan T
	Len() int
}

// Sender provides write access to a channel.
type Sender[T any] interface {
	Send(T)
	// TrySend delivers v only if it does not block, reporting whether
	// the value was accepted. The tick loop uses it for the live frame
	// feed so a slow consumer drops frames instead of stalling the sim.
	TrySend(T) bool
}

// Channel combines read and write access.
type Channel[T any] interface {
	Receiver[T]
	Sender[T]
	Close()
}
