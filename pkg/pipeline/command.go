package pipeline

import (
	"fmt"
	"sync"

	"github.com/teslashibe/go-foveate/pkg/quality"
)

// Issuer forwards events to the shading backend. *quality.Session
// satisfies it.
type Issuer interface {
	Issue(ev quality.Event) bool
}

// CommandKind distinguishes recorded commands.
type CommandKind int

const (
	// CommandIssue triggers a backend event.
	CommandIssue CommandKind = iota
	// CommandClear clears a render target.
	CommandClear
)

// Command is one recorded operation.
type Command struct {
	Kind   CommandKind
	Event  quality.Event
	Target string
}

// IssueCommand records a backend event.
func IssueCommand(ev quality.Event) Command {
	return Command{Kind: CommandIssue, Event: ev}
}

// ClearCommand records a render target clear.
func ClearCommand(target string) Command {
	return Command{Kind: CommandClear, Target: target}
}

func (c Command) String() string {
	switch c.Kind {
	case CommandIssue:
		return "issue " + c.Event.String()
	case CommandClear:
		return "clear " + c.Target
	default:
		return fmt.Sprintf("command(%d)", int(c.Kind))
	}
}

// CommandBuffer is a named list of commands attached to a pipeline event.
type CommandBuffer struct {
	Name     string
	Commands []Command
}

// Run executes the buffer's commands.
func (cb *CommandBuffer) Run(pc *PassContext) {
	for _, cmd := range cb.Commands {
		pc.Run(cmd)
	}
}

// Host is a pipeline that runs command buffers at its events.
type Host interface {
	AddCommandBuffer(ev Event, cb *CommandBuffer)
	RemoveCommandBuffer(ev Event, cb *CommandBuffer)
}

type attachment struct {
	event  Event
	buffer *CommandBuffer
}

// BufferSet owns a group of command buffers and attaches or detaches
// them from a host together. It is goroutine-safe.
type BufferSet struct {
	mu          sync.Mutex
	attachments []attachment
	host        Host
}

// NewBufferSet creates an empty set.
func NewBufferSet() *BufferSet {
	return &BufferSet{}
}

// Add registers cb for ev. It is attached on the next Activate.
func (s *BufferSet) Add(ev Event, cb *CommandBuffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments = append(s.attachments, attachment{event: ev, buffer: cb})
}

// Activate attaches every buffer to host. A set already active on host
// is left alone; a set active on another host is moved.
func (s *BufferSet) Activate(host Host) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.host == host {
		return
	}
	s.detach()
	for _, a := range s.attachments {
		host.AddCommandBuffer(a.event, a.buffer)
	}
	s.host = host
}

// Deactivate detaches every buffer from the current host.
func (s *BufferSet) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detach()
}

func (s *BufferSet) detach() {
	if s.host == nil {
		return
	}
	for _, a := range s.attachments {
		s.host.RemoveCommandBuffer(a.event, a.buffer)
	}
	s.host = nil
}

// Active reports whether the set is attached to a host.
func (s *BufferSet) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host != nil
}

// Buffers returns the registered buffer names in order.
func (s *BufferSet) Buffers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.attachments))
	for _, a := range s.attachments {
		names = append(names, a.buffer.Name)
	}
	return names
}
