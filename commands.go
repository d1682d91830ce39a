package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mrdg/polysampler/audio"
	"github.com/mrdg/polysampler/dub"
)

type command struct {
	name  string
	run   func(*env, []dub.Node) (string, error)
	arity int // -n means len(args) must be >= n
	help  string
}

var commands []command

func init() {
	commands = []command{
		{"on", onCommand, -1, "on <notes> [velocity]"},
		{"off", offCommand, 1, "off <notes>"},
		{"pedal", pedalCommand, 1, "pedal on|off"},
		{"panic", panicCommand, 0, "panic"},
		{"set", setCommand, 2, "set <prop> <value>"},
		{"get", getCommand, 1, "get <prop>"},
		{"stats", statsCommand, 0, "stats"},
		{"load", loadCommand, 1, `load "<bank.json>"`},
		{"preset", presetCommand, 1, "preset <name>"},
		{"help", helpCommand, 0, "help"},
	}
}

const defaultVelocity = 100

func onCommand(env *env, args []dub.Node) (string, error) {
	if len(args) > 2 {
		return "", errors.New("too many arguments")
	}
	notes, err := readNotes(args[0])
	if err != nil {
		return "", err
	}
	velocity := defaultVelocity
	if len(args) == 2 {
		if err := readArgs(args[1:], &velocity); err != nil {
			return "", err
		}
	}
	if velocity < 0 || velocity > 127 {
		return "", fmt.Errorf("velocity out of range: %d", velocity)
	}
	for _, n := range notes {
		env.inst.NoteOn(n, velocity)
	}
	return "", nil
}

func offCommand(env *env, args []dub.Node) (string, error) {
	notes, err := readNotes(args[0])
	if err != nil {
		return "", err
	}
	for _, n := range notes {
		env.inst.NoteOff(n)
	}
	return "", nil
}

func pedalCommand(env *env, args []dub.Node) (string, error) {
	var state string
	if err := readArgs(args, &state); err != nil {
		return "", err
	}
	switch state {
	case "on":
		env.inst.SustainPedal(true)
	case "off":
		env.inst.SustainPedal(false)
	default:
		return "", fmt.Errorf("pedal must be on or off, got %s", state)
	}
	return "", nil
}

func panicCommand(env *env, args []dub.Node) (string, error) {
	env.inst.AllNotesOff()
	return "", nil
}

func setCommand(env *env, args []dub.Node) (string, error) {
	var prop string
	if err := readArgs(args[:1], &prop); err != nil {
		return "", err
	}
	switch v := args[1].(type) {
	case dub.Int:
		return "", env.inst.Set(prop, int(v))
	case dub.Float:
		return "", env.inst.Set(prop, float64(v))
	case dub.String:
		return "", env.inst.Set(prop, string(v))
	case dub.Identifier:
		return "", env.inst.Set(prop, string(v))
	default:
		return "", fmt.Errorf("unsupported property type: %v", v)
	}
}

func getCommand(env *env, args []dub.Node) (string, error) {
	var prop string
	if err := readArgs(args, &prop); err != nil {
		return "", err
	}
	v, err := env.inst.Get(prop)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func statsCommand(env *env, args []dub.Node) (string, error) {
	var sb strings.Builder
	renderStats(env.inst.Stats(), &sb)
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

func loadCommand(env *env, args []dub.Node) (string, error) {
	var file string
	if err := readArgs(args, &file); err != nil {
		return "", err
	}
	bank, err := audio.LoadBank(file)
	if err != nil {
		return "", err
	}
	env.inst.SetBank(bank)
	return fmt.Sprintf("loaded %d samples, %d zones", bank.NumSamples(), bank.NumZones()), nil
}

func presetCommand(env *env, args []dub.Node) (string, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return "", err
	}
	return "", audio.LoadPreset(name, env.inst)
}

func helpCommand(env *env, args []dub.Node) (string, error) {
	var lines []string
	for _, cmd := range commands {
		lines = append(lines, colorize(cmd.name, colorGreen)+"  "+cmd.help)
	}
	lines = append(lines, "props: "+strings.Join(env.inst.Keys(), ", "))
	lines = append(lines, "presets: "+strings.Join(audio.Presets(), ", "))
	return strings.Join(lines, "\n"), nil
}

// readNotes accepts a note number or a match expression.
func readNotes(arg dub.Node) ([]int, error) {
	switch v := arg.(type) {
	case dub.Int:
		if v < dub.MinNote || v > dub.MaxNote {
			return nil, fmt.Errorf("note out of range: %d", v)
		}
		return []int{int(v)}, nil
	case dub.MatchExpr:
		return v.Notes(), nil
	default:
		return nil, fmt.Errorf("argument error: expected a note or match expression")
	}
}

func readArgs(args []dub.Node, slots ...interface{}) error {
	if len(args) != len(slots) {
		return errors.New("not enough arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *float64:
			switch n := arg.(type) {
			case dub.Float:
				*p = float64(n)
			case dub.Int:
				*p = float64(n)
			default:
				return fmt.Errorf("argument error: expected a number")
			}
		case *int:
			n, ok := arg.(dub.Int)
			if !ok {
				return fmt.Errorf("argument error: expected an integer")
			}
			*p = int(n)
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}
