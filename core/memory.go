package core

// Memory is the append-only ordered message log for a single agent run.
// The full log (optionally truncated to the most recent messages) is sent
// to the reasoning model on every think cycle and is the primary artifact
// for humans debugging a run.
//
// Memory is owned exclusively by the run that created it and is not safe
// for concurrent use; the framework executes a run single-threaded.
type Memory struct {
	messages    []Message
	maxMessages int
}

// NewMemory creates an empty message log. maxMessages bounds the number of
// retained messages; zero or negative means unbounded.
func NewMemory(maxMessages int) *Memory {
	return &Memory{maxMessages: maxMessages}
}

// Add appends a message, evicting the oldest entries when the retention
// bound is exceeded.
func (m *Memory) Add(msg Message) {
	m.messages = append(m.messages, msg)
	if m.maxMessages > 0 && len(m.messages) > m.maxMessages {
		m.messages = m.messages[len(m.messages)-m.maxMessages:]
	}
}

// AddAll appends multiple messages in order.
func (m *Memory) AddAll(msgs ...Message) {
	for _, msg := range msgs {
		m.Add(msg)
	}
}

// Messages returns a copy of the log for safe iteration.
func (m *Memory) Messages() []Message {
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Last returns the most recent message and true, or a zero Message and
// false when the log is empty.
func (m *Memory) Last() (Message, bool) {
	if len(m.messages) == 0 {
		return Message{}, false
	}
	return m.messages[len(m.messages)-1], true
}

// Len returns the number of retained messages.
func (m *Memory) Len() int { return len(m.messages) }

// Clear drops all messages.
func (m *Memory) Clear() { m.messages = nil }
