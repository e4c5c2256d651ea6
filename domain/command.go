package domain

// Command is an inbound transport event, tagged with the connection it came from.
type Command interface {
	ConnectionID() ConnectionID
}

// Registration is the synchronous result of registering a participant.
type Registration struct {
	PartnerName string
	Paired      bool
}

type RegisterReply struct {
	Registration Registration
	Err          error
}

type RegisterCommand struct {
	Conn ConnectionID
	Name string
	// Reply receives exactly one value. It must be buffered.
	Reply chan RegisterReply
}

func (c RegisterCommand) ConnectionID() ConnectionID { return c.Conn }

type ChatAddCommand struct {
	Conn    ConnectionID
	Payload string
}

func (c ChatAddCommand) ConnectionID() ConnectionID { return c.Conn }

type ChatDeleteCommand struct {
	Conn  ConnectionID
	Count int
}

func (c ChatDeleteCommand) ConnectionID() ConnectionID { return c.Conn }

type DisconnectCommand struct {
	Conn ConnectionID
}

func (c DisconnectCommand) ConnectionID() ConnectionID { return c.Conn }
