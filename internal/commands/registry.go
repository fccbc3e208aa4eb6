// Package commands implements the slash commands answered without the model.
package commands

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Result is a command reply. Clear asks the caller to wipe the conversation
// instead of showing Text.
type Result struct {
	Text  string
	Clear bool
}

// Handler runs a command with everything after the keyword.
type Handler func(ctx context.Context, args string) Result

// Command is one slash command.
type Command struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
	Run         Handler
}

// Registry stores commands by name and alias, providing thread-safe access.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	order    []*Command
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register adds cmd under its name and aliases, replacing earlier registrations.
func (r *Registry) Register(cmd *Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.commands[alias] = cmd
	}
	r.order = append(r.order, cmd)
}

// Get returns the command with the given name or alias, or false if not found.
func (r *Registry) Get(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// Parse splits a command line into keyword and arguments. ok is false when
// line is not a command: it must start with "/" directly followed by a keyword.
func Parse(line string) (name, args string, ok bool) {
	line = strings.TrimSpace(line)
	if len(line) < 2 || line[0] != '/' || line[1] == ' ' || line[1] == '/' {
		return "", "", false
	}

	name, args, _ = strings.Cut(line[1:], " ")
	return strings.ToLower(name), strings.TrimSpace(args), true
}

// IsCommand reports whether line is a slash command.
func IsCommand(line string) bool {
	_, _, ok := Parse(line)
	return ok
}

// IsClear reports whether line is the clear-history command.
func (r *Registry) IsClear(line string) bool {
	name, _, ok := Parse(line)
	if !ok {
		return false
	}
	cmd, found := r.Get(name)
	return found && cmd.Name == "clear"
}

// Dispatch runs the command in line. handled is false when line is not a command.
func (r *Registry) Dispatch(ctx context.Context, line string) (result Result, handled bool) {
	name, args, ok := Parse(line)
	if !ok {
		return Result{}, false
	}

	cmd, found := r.Get(name)
	if !found {
		return Result{Text: fmt.Sprintf("Unknown command: /%s\nType /help for available commands.", name)}, true
	}
	return cmd.Run(ctx, args), true
}

// Summaries returns one help line per command, in registration order.
func (r *Registry) Summaries() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	for _, cmd := range r.order {
		fmt.Fprintf(&sb, "- %s - %s\n", cmd.Usage, cmd.Description)
	}
	return sb.String()
}
