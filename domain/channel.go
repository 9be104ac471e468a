package domain

// ChannelName is one of a fixed, enumerated set of chat channels.
type ChannelName string

const (
	ChannelGeneral ChannelName = "general"
	ChannelTech    ChannelName = "tech"
	ChannelRandom  ChannelName = "random"
)

// ChannelNames returns the enumerated channel set, used both to build the
// registry and to hint clients after an invalid-channel rejection.
func ChannelNames() []ChannelName {
	return []ChannelName{ChannelGeneral, ChannelTech, ChannelRandom}
}

func ValidChannel(name ChannelName) bool {
	switch name {
	case ChannelGeneral, ChannelTech, ChannelRandom:
		return true
	}
	return false
}

// Channel holds the bounded ordered history of one chat channel.
// Insertion order is the display order and is preserved exactly on replay;
// once historyLimit is reached the oldest message is dropped first.
// Membership lives in the registry, not here.
type Channel struct {
	Name         ChannelName
	historyLimit int
	messages     []Message
}

func NewChannel(name ChannelName, historyLimit int) *Channel {
	return &Channel{Name: name, historyLimit: historyLimit}
}

// Append adds a message to the history, trimming FIFO past the limit.
func (c *Channel) Append(message Message) {
	c.messages = append(c.messages, message)
	if c.historyLimit > 0 && len(c.messages) > c.historyLimit {
		c.messages = c.messages[len(c.messages)-c.historyLimit:]
	}
}

// History returns a copy of the buffer, oldest first.
func (c *Channel) History() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Channel) Len() int { return len(c.messages) }
