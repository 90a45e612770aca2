package service

import "github.com/quocanhngo/sportcast/internal/model"

// Broadcaster fans dashboard events out to connected clients
type Broadcaster interface {
	Broadcast(event *model.WSEvent)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(*model.WSEvent) {}

func orNop(b Broadcaster) Broadcaster {
	if b == nil {
		return nopBroadcaster{}
	}
	return b
}
