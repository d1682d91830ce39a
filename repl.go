package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mrdg/polysampler/audio"
	"github.com/mrdg/polysampler/dub"
)

type env struct {
	inst *audio.Instrument
	out  io.Writer
}

func (e *env) eval(input string) (string, error) {
	command, err := dub.Parse(input)
	if err != nil {
		return "", err
	}
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			arity := -cmd.arity
			if len(command.Args) < arity {
				return "", fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v",
					cmd.name, arity, len(command.Args))
			}
		} else if len(command.Args) != cmd.arity {
			return "", fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
				cmd.name, cmd.arity, len(command.Args))
		}
		result, err := cmd.run(e, command.Args)
		if err != nil {
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return "", fmt.Errorf("unknown command: %s", name)
}

func completer(props []string) *readline.PrefixCompleter {
	var propItems []readline.PrefixCompleterInterface
	for _, p := range props {
		propItems = append(propItems, readline.PcItem(p))
	}
	var items []readline.PrefixCompleterInterface
	for _, cmd := range commands {
		switch cmd.name {
		case "set", "get":
			items = append(items, readline.PcItem(cmd.name, propItems...))
		case "preset":
			var names []readline.PrefixCompleterInterface
			for _, p := range audio.Presets() {
				names = append(names, readline.PcItem(p))
			}
			items = append(items, readline.PcItem(cmd.name, names...))
		case "pedal":
			items = append(items, readline.PcItem(cmd.name, readline.PcItem("on"), readline.PcItem("off")))
		default:
			items = append(items, readline.PcItem(cmd.name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

// repl reads commands until EOF or until ctx is done.
func repl(ctx context.Context, env *env) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       "> ",
		AutoComplete: completer(env.inst.Keys()),
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	env.out = rl.Stdout()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err == io.EOF || ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			fmt.Fprintln(env.out, err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		if result, err := env.eval(line); err != nil {
			fmt.Fprintln(env.out, err)
		} else if result != "" {
			fmt.Fprintln(env.out, result)
		}
	}
}
