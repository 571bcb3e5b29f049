package core

const (
	RendezvousRoomKey   = "room"
	RendezvousSignalKey = "signal"
)

// Rendezvous is the shareable slot both parties look at, e.g. a link query.
type Rendezvous interface {
	Get(key string) string
	Set(key, value string)
	Delete(key string)
	// Reset empties the slot.
	Reset()
	// Link renders the current slot as something a user can hand over.
	Link() string
}
