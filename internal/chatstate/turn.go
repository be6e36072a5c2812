package chatstate

import (
	"errors"
	"strings"
	"sync"
)

var (
	ErrInvalidTransition = errors.New("invalid chat turn transition")
	ErrEmptyMessage      = errors.New("empty chat message")
)

type State int

const (
	Composing State = iota
	Sent
	Confirmed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Composing:
		return "composing"
	case Sent:
		return "sent"
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled_back"
	}
	return "unknown"
}

// Turn tracks one user message from the input box until the server confirms or rejects it.
type Turn struct {
	state State
	input string
	reply string
	err   error
}

func NewTurn() *Turn {
	return &Turn{state: Composing}
}

func (t *Turn) State() State {
	return t.state
}

func (t *Turn) Input() string {
	return t.input
}

func (t *Turn) Reply() string {
	return t.reply
}

func (t *Turn) Err() error {
	return t.err
}

func (t *Turn) SetInput(text string) error {
	if t.state != Composing {
		return ErrInvalidTransition
	}
	t.input = text
	return nil
}

func (t *Turn) Send(text string) error {
	if t.state != Composing {
		return ErrInvalidTransition
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	t.input = text
	t.reply = ""
	t.err = nil
	t.state = Sent
	return nil
}

func (t *Turn) Confirm(reply string) error {
	if t.state != Sent {
		return ErrInvalidTransition
	}
	t.reply = reply
	t.state = Confirmed
	return nil
}

func (t *Turn) Fail(err error) error {
	if t.state != Sent {
		return ErrInvalidTransition
	}
	t.err = err
	t.state = RolledBack
	return nil
}

// Retry returns a rolled back turn to Composing with the failed text restored as input.
func (t *Turn) Retry() error {
	if t.state != RolledBack {
		return ErrInvalidTransition
	}
	t.err = nil
	t.state = Composing
	return nil
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Entry struct {
	Role    Role
	Content string
	Pending bool
}

// Conversation is the visible message list with at most one turn in flight.
type Conversation struct {
	mu      sync.Mutex
	entries []Entry
	turn    *Turn
	input   string
}

func NewConversation(history []Entry) *Conversation {
	entries := make([]Entry, len(history))
	copy(entries, history)
	return &Conversation{entries: entries}
}

// Send appends the message optimistically and clears the input.
func (c *Conversation) Send(text string) (*Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.turn != nil && c.turn.State() == Sent {
		return nil, ErrInvalidTransition
	}
	turn := NewTurn()
	if err := turn.Send(text); err != nil {
		return nil, err
	}
	c.turn = turn
	c.entries = append(c.entries, Entry{Role: RoleUser, Content: text, Pending: true})
	c.input = ""
	return turn, nil
}

func (c *Conversation) Confirm(reply string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.turn == nil {
		return ErrInvalidTransition
	}
	if err := c.turn.Confirm(reply); err != nil {
		return err
	}
	c.entries[len(c.entries)-1].Pending = false
	c.entries = append(c.entries, Entry{Role: RoleAssistant, Content: reply})
	return nil
}

// Fail removes the optimistic message and puts its text back into the input.
func (c *Conversation) Fail(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.turn == nil {
		return ErrInvalidTransition
	}
	if err := c.turn.Fail(err); err != nil {
		return err
	}
	c.entries = c.entries[:len(c.entries)-1]
	c.input = c.turn.Input()
	return nil
}

func (c *Conversation) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Conversation) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turn != nil && c.turn.State() == Sent
}
