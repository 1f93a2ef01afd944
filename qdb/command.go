package qdb

import (
	"fmt"

	"github.com/pg-sharding/shardmapctl/pkg/spqrlog"
)

// Command is a reversible mutation of MemQDB state.
type Command interface {
	Do() error
	Undo() error
}

func NewDeleteCommand[T any](m map[string]T, key string) *DeleteCommand[T] {
	return &DeleteCommand[T]{m: m, key: key}
}

type DeleteCommand[T any] struct {
	m       map[string]T
	key     string
	value   T
	present bool
}

func (c *DeleteCommand[T]) Do() error {
	c.value, c.present = c.m[c.key]
	delete(c.m, c.key)
	return nil
}

func (c *DeleteCommand[T]) Undo() error {
	if c.present {
		c.m[c.key] = c.value
	}
	return nil
}

func NewUpdateCommand[T any](m map[string]T, key string, value T) *UpdateCommand[T] {
	return &UpdateCommand[T]{m: m, key: key, value: value}
}

type UpdateCommand[T any] struct {
	m         map[string]T
	key       string
	value     T
	prevValue T
	present   bool
}

func (c *UpdateCommand[T]) Do() error {
	c.prevValue, c.present = c.m[c.key]
	c.m[c.key] = c.value
	return nil
}

func (c *UpdateCommand[T]) Undo() error {
	if !c.present {
		delete(c.m, c.key)
	} else {
		c.m[c.key] = c.prevValue
	}
	return nil
}

func doCommands(commands ...Command) (int, error) {
	for i, c := range commands {
		if err := c.Do(); err != nil {
			return i, err
		}
	}
	return len(commands), nil
}

// undoCommands reverts commands in reverse order of application.
func undoCommands(commands ...Command) error {
	spqrlog.Zero.Info().Int("count", len(commands)).Msg("memqdb: undo commands")
	for i := len(commands) - 1; i >= 0; i-- {
		if err := commands[i].Undo(); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteCommands applies commands and then calls saver. If any step fails, every
// applied command is undone and the original error is returned.
func ExecuteCommands(saver func() error, commands ...Command) error {
	completed, err := doCommands(commands...)
	if err == nil {
		err = saver()
	}
	if err != nil {
		if undoErr := undoCommands(commands[:completed]...); undoErr != nil {
			return fmt.Errorf("failed to undo command %s while: %s", undoErr.Error(), err.Error())
		}
		return err
	}
	return nil
}
