package domain

// NotificationKind names an outbound event. The string value is the wire name.
type NotificationKind string

const (
	BuddyAssigned NotificationKind = "buddy-assigned"
	BuddyLeft     NotificationKind = "buddy-left"
	ChatAdd       NotificationKind = "chat-add"
	ChatDelete    NotificationKind = "chat-delete"
	// Registered acknowledges an init request to the connection that sent it.
	// Name is empty when no buddy was available yet.
	Registered NotificationKind = "registered"
)

// Notification is an outbound event addressed to a single connection.
// Only the fields relevant to Kind are set.
type Notification struct {
	To      ConnectionID
	Kind    NotificationKind
	Name    string
	Payload string
	Count   int
}

func NewBuddyAssigned(to ConnectionID, name string) Notification {
	return Notification{To: to, Kind: BuddyAssigned, Name: name}
}

func NewBuddyLeft(to ConnectionID) Notification {
	return Notification{To: to, Kind: BuddyLeft}
}

func NewChatAdd(to ConnectionID, payload string) Notification {
	return Notification{To: to, Kind: ChatAdd, Payload: payload}
}

func NewChatDelete(to ConnectionID, count int) Notification {
	return Notification{To: to, Kind: ChatDelete, Count: count}
}

func NewRegistered(to ConnectionID, buddyName string) Notification {
	return Notification{To: to, Kind: Registered, Name: buddyName}
}
