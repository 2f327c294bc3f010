package sim

import "log"

// DirectConnection connects ports without latency. Messages sent in one cycle
// are delivered at the secondary tick of the same cycle.
type DirectConnection struct {
	*TickingComponent

	nextPortID int
	ports      []Port
	portByName map[RemotePort]Port
}

// NewDirectConnection creates a new DirectConnection object
func NewDirectConnection(
	name string,
	engine Engine,
	freq Freq,
) *DirectConnection {
	c := new(DirectConnection)
	c.TickingComponent = NewSecondaryTickingComponent(name, engine, freq, c)
	c.portByName = make(map[RemotePort]Port)

	return c
}

// PlugIn marks the port connects to this DirectConnection.
func (c *DirectConnection) PlugIn(port Port) {
	c.Lock()
	defer c.Unlock()

	if _, found := c.portByName[port.AsRemote()]; found {
		log.Panicf("port %s already plugged in", port.Name())
	}

	c.ports = append(c.ports, port)
	c.portByName[port.AsRemote()] = port
	port.SetConnection(c)
}

// Unplug marks the port no longer connects to this DirectConnection.
func (c *DirectConnection) Unplug(_ Port) {
	panic("not implemented")
}

// NotifyAvailable is called by a port to notify that the connection can
// deliver to the port again.
func (c *DirectConnection) NotifyAvailable(_ Port) {
	c.TickNow()
}

// NotifySend is called by a port to notify that the connection can start
// to tick now
func (c *DirectConnection) NotifySend() {
	c.TickNow()
}

// Tick updates the states of the connection and delivers messages.
func (c *DirectConnection) Tick() bool {
	madeProgress := false

	for i := 0; i < len(c.ports); i++ {
		portID := (i + c.nextPortID) % len(c.ports)
		port := c.ports[portID]
		madeProgress = c.forwardMany(port) || madeProgress
	}

	if len(c.ports) > 0 {
		c.nextPortID = (c.nextPortID + 1) % len(c.ports)
	}

	return madeProgress
}

func (c *DirectConnection) forwardMany(port Port) bool {
	madeProgress := false

	for {
		head := port.PeekOutgoing()
		if head == nil {
			break
		}

		dst, found := c.portByName[head.Meta().Dst]
		if !found {
			log.Panicf("port %s is not connected to %s",
				head.Meta().Dst, c.Name())
		}

		err := dst.Deliver(head)
		if err != nil {
			break
		}

		c.InvokeHook(HookCtx{
			Domain: c,
			Pos:    HookPosConnDeliver,
			Item:   head,
		})

		madeProgress = true

		port.RetrieveOutgoing()
	}

	return madeProgress
}
