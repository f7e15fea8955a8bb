// Package admin - консоль администратора сервера: реестр команд и REPL.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

var ErrUnknownCommand = errors.New("unknown command")

// CommandFunc обрабатывает команду и возвращает текст для оператора.
type CommandFunc func(args []string) (string, error)

// Command - одна зарегистрированная команда консоли.
type Command struct {
	Name        string
	Usage       string
	Description string
	Handler     CommandFunc
}

// Registry хранит команды в порядке регистрации.
type Registry struct {
	mu       sync.RWMutex
	commands []Command
	index    map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register добавляет команду. Повторная регистрация заменяет обработчик.
func (r *Registry) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[cmd.Name]; ok {
		r.commands[i] = cmd
		return
	}
	r.index[cmd.Name] = len(r.commands)
	r.commands = append(r.commands, cmd)
}

func (r *Registry) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Execute разбирает строку и вызывает соответствующую команду.
// Пустая строка ничего не делает.
func (r *Registry) Execute(line string) (string, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", nil
	}
	name := strings.ToLower(parts[0])
	r.mu.RLock()
	i, ok := r.index[name]
	var cmd Command
	if ok {
		cmd = r.commands[i]
	}
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return cmd.Handler(parts[1:])
}

// Help форматирует список команд.
func (r *Registry) Help() string {
	var sb strings.Builder
	for _, c := range r.Commands() {
		usage := c.Name
		if c.Usage != "" {
			usage += " " + c.Usage
		}
		fmt.Fprintf(&sb, "%-28s %s\n", usage, c.Description)
	}
	return sb.String()
}

// Serve читает команды из in построчно и печатает результат в out,
// пока вход не закончится или ctx не будет отменён.
func (r *Registry) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
		close(lines)
	}()

	fmt.Fprint(out, "> ")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			res, err := r.Execute(line)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			} else {
				fmt.Fprint(out, res)
			}
			fmt.Fprint(out, "> ")
		}
	}
}
