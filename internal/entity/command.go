package entity

// Command is an inbound request from a connection. The set of commands is
// closed: only the types in this file implement it.
type Command interface {
	command()
}

type CreateRoom struct {
	Name string
}

type JoinRoom struct {
	Code string
	Name string
}

// SubmitMove carries only the cell; the mover's symbol comes from the session.
type SubmitMove struct {
	Cell int
}

type RequestRematch struct{}

type ChatMessage struct {
	Text string
}

type LeaveRoom struct{}

// Disconnect is raised by the transport when a connection goes away.
type Disconnect struct{}

func (CreateRoom) command()     {}
func (JoinRoom) command()       {}
func (SubmitMove) command()     {}
func (RequestRematch) command() {}
func (ChatMessage) command()    {}
func (LeaveRoom) command()      {}
func (Disconnect) command()     {}
