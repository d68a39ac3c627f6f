package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/NataTusia/Haah-and-Cash/models"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadDay         = errors.New("day must be a number from 1 to 31")
)

type CommandKind int

const (
	CmdStart CommandKind = iota + 1
	CmdStatus
	CmdGenerate
)

// Command is a parsed admin command. Day 0 means today.
type Command struct {
	Kind    CommandKind
	Channel models.Channel
	Day     int
}

var generateCommands = map[string]models.Channel{
	"gen_morning": models.PrimaryMorning,
	"gen_day":     models.PrimaryMidday,
	"gen_evening": models.PrimaryEvening,
	"gen_inst":    models.Secondary,
}

// ParseCommand maps a command name (without the slash) and its arguments.
func ParseCommand(name, args string) (Command, error) {
	switch name {
	case "start", "help":
		return Command{Kind: CmdStart}, nil
	case "status":
		return Command{Kind: CmdStatus}, nil
	}

	ch, ok := generateCommands[name]
	if !ok {
		return Command{}, fmt.Errorf("%w: /%s", ErrUnknownCommand, name)
	}
	cmd := Command{Kind: CmdGenerate, Channel: ch}

	args = strings.TrimSpace(args)
	if args == "" {
		return cmd, nil
	}
	day, err := strconv.Atoi(strings.Fields(args)[0])
	if err != nil || day < 1 || day > 31 {
		return Command{}, ErrBadDay
	}
	cmd.Day = day
	return cmd, nil
}

const helpTemplate = `👋 %s draft bot

/gen_morning [day]: morning post
/gen_day [day]: midday post
/gen_evening [day]: evening post
/gen_inst [day]: Instagram post
/status: schedule and drafts

Without a day the current day of the month is used.`
