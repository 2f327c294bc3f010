package memcache

import (
	"fmt"
	"log"

	"github.com/sarchlab/soclib/sim"
)

// ProtocolErrorKind classifies the requests that break the protocol.
type ProtocolErrorKind int

// Protocol error kinds.
const (
	ErrBurstCrossesLine ProtocolErrorKind = iota
	ErrMisaligned
	ErrBadLength
	ErrUnknownCommand
	ErrUnexpectedAck
	ErrBadSrcID
)

func (k ProtocolErrorKind) String() string {
	switch k {
	case ErrBurstCrossesLine:
		return "BurstCrossesLine"
	case ErrMisaligned:
		return "Misaligned"
	case ErrBadLength:
		return "BadLength"
	case ErrUnknownCommand:
		return "UnknownCommand"
	case ErrUnexpectedAck:
		return "UnexpectedAck"
	case ErrBadSrcID:
		return "BadSrcID"
	}

	return fmt.Sprintf("ProtocolErrorKind(%d)", int(k))
}

// A ProtocolError is a request or acknowledgement that the memory cache
// cannot serve because it breaks the protocol.
type ProtocolError struct {
	Kind ProtocolErrorKind
	Msg  string
	Src  sim.RemotePort
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error %s from %s: %s", e.Kind, e.Src, e.Msg)
}

// Is matches protocol errors of the same kind.
func (e *ProtocolError) Is(target error) bool {
	t, ok := target.(*ProtocolError)
	return ok && t.Kind == e.Kind
}

// ProtocolErrorPolicy selects what happens on a protocol error.
type ProtocolErrorPolicy int

// Protocol error policies.
const (
	// PanicOnProtocolError stops the simulation.
	PanicOnProtocolError ProtocolErrorPolicy = iota

	// RespondWithError answers the offending request with Error set. Broken
	// acknowledgements and unknown messages are dropped.
	RespondWithError
)

func (c *Comp) protocolError(
	kind ProtocolErrorKind,
	src sim.RemotePort,
	format string,
	args ...interface{},
) *ProtocolError {
	err := &ProtocolError{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
		Src:  src,
	}

	if c.errorPolicy == PanicOnProtocolError {
		log.Panic(err)
	}

	log.Printf("%s: %v", c.Name(), err)
	c.protocolErrors = append(c.protocolErrors, err)

	return err
}

// ProtocolErrors returns the protocol errors reported so far. It is only
// filled under the RespondWithError policy.
func (c *Comp) ProtocolErrors() []*ProtocolError {
	return c.protocolErrors
}
