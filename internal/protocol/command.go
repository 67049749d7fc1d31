// Package protocol implements the text command language and binary frame
// format exchanged over a session's duplex channel.
package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is any parsed command. Concrete types are Start, AddLink,
// AddConnection, AddVehicle, AddStopLine, AddConflict, and Step.
type Command interface {
	isCommand()
}

type Start struct {
	Delta float32
}

type AddLink struct {
	ID         uint32
	Length     float32
	LanesSpec  string
	SpeedLimit float32
}

type AddConnection struct {
	Src, Dst uint32
	Pairs    string
	Offset   float32
}

type AddVehicle struct {
	ID               uint32
	SrcLink, DstLink uint32
	Lane             uint8
	Pos              float32
}

type AddStopLine struct {
	ID, Link uint32
	Lane     uint8
	Pos, Len float32
	Kind     string
}

type AddConflict struct {
	Stop1, Stop2   uint32
	Priority       int8
	MinPos, MaxPos float32
}

type Step struct {
	NumSteps uint32
}

func (Start) isCommand()         {}
func (AddLink) isCommand()       {}
func (AddConnection) isCommand() {}
func (AddVehicle) isCommand()    {}
func (AddStopLine) isCommand()   {}
func (AddConflict) isCommand()   {}
func (Step) isCommand()          {}

// Parse decodes one whitespace-separated command line into its typed
// representation. An unrecognized command name, wrong field count, or
// unparseable numeric field wraps ErrProtocol with the offending detail.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrProtocol)
	}

	name, args := fields[0], fields[1:]
	switch name {
	case "start":
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		delta, err := parseF32(name, "delta", args[0])
		if err != nil {
			return nil, err
		}
		return Start{Delta: delta}, nil

	case "link":
		if err := arity(name, args, 4); err != nil {
			return nil, err
		}
		id, err := parseU32(name, "id", args[0])
		if err != nil {
			return nil, err
		}
		length, err := parseF32(name, "length", args[1])
		if err != nil {
			return nil, err
		}
		speedLimit, err := parseF32(name, "speed_limit", args[3])
		if err != nil {
			return nil, err
		}
		return AddLink{ID: id, Length: length, LanesSpec: args[2], SpeedLimit: speedLimit}, nil

	case "conn":
		if err := arity(name, args, 4); err != nil {
			return nil, err
		}
		src, err := parseU32(name, "src", args[0])
		if err != nil {
			return nil, err
		}
		dst, err := parseU32(name, "dst", args[1])
		if err != nil {
			return nil, err
		}
		offset, err := parseF32(name, "offset", args[3])
		if err != nil {
			return nil, err
		}
		return AddConnection{Src: src, Dst: dst, Pairs: args[2], Offset: offset}, nil

	case "veh":
		if err := arity(name, args, 5); err != nil {
			return nil, err
		}
		id, err := parseU32(name, "id", args[0])
		if err != nil {
			return nil, err
		}
		srcLink, err := parseU32(name, "src_link", args[1])
		if err != nil {
			return nil, err
		}
		dstLink, err := parseU32(name, "dst_link", args[2])
		if err != nil {
			return nil, err
		}
		lane, err := parseU8(name, "lane", args[3])
		if err != nil {
			return nil, err
		}
		pos, err := parseF32(name, "pos", args[4])
		if err != nil {
			return nil, err
		}
		return AddVehicle{ID: id, SrcLink: srcLink, DstLink: dstLink, Lane: lane, Pos: pos}, nil

	case "stop":
		if err := arity(name, args, 6); err != nil {
			return nil, err
		}
		id, err := parseU32(name, "id", args[0])
		if err != nil {
			return nil, err
		}
		link, err := parseU32(name, "link", args[1])
		if err != nil {
			return nil, err
		}
		lane, err := parseU8(name, "lane", args[2])
		if err != nil {
			return nil, err
		}
		pos, err := parseF32(name, "pos", args[3])
		if err != nil {
			return nil, err
		}
		length, err := parseF32(name, "length", args[4])
		if err != nil {
			return nil, err
		}
		return AddStopLine{ID: id, Link: link, Lane: lane, Pos: pos, Len: length, Kind: args[5]}, nil

	case "conflict":
		if err := arity(name, args, 5); err != nil {
			return nil, err
		}
		stop1, err := parseU32(name, "stop1", args[0])
		if err != nil {
			return nil, err
		}
		stop2, err := parseU32(name, "stop2", args[1])
		if err != nil {
			return nil, err
		}
		priority, err := parseI8(name, "priority", args[2])
		if err != nil {
			return nil, err
		}
		minPos, err := parseF32(name, "min_pos", args[3])
		if err != nil {
			return nil, err
		}
		maxPos, err := parseF32(name, "max_pos", args[4])
		if err != nil {
			return nil, err
		}
		return AddConflict{Stop1: stop1, Stop2: stop2, Priority: priority, MinPos: minPos, MaxPos: maxPos}, nil

	case "step":
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		numSteps, err := parseU32(name, "num_steps", args[0])
		if err != nil {
			return nil, err
		}
		return Step{NumSteps: numSteps}, nil

	default:
		return nil, fmt.Errorf("%w: unknown command %q", ErrProtocol, name)
	}
}

func arity(cmd string, args []string, want int) error {
	if len(args) != want {
		return fmt.Errorf("%w: %s expects %d arguments, got %d", ErrProtocol, cmd, want, len(args))
	}
	return nil
}

func parseU32(cmd, field, s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s.%s: %v", ErrProtocol, cmd, field, err)
	}
	return uint32(v), nil
}

func parseU8(cmd, field, s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %s.%s: %v", ErrProtocol, cmd, field, err)
	}
	return uint8(v), nil
}

func parseI8(cmd, field, s string) (int8, error) {
	v, err := strconv.ParseInt(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %s.%s: %v", ErrProtocol, cmd, field, err)
	}
	return int8(v), nil
}

func parseF32(cmd, field, s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s.%s: %v", ErrProtocol, cmd, field, err)
	}
	return float32(v), nil
}

// LanePair is one lane_in:lane_out pairing parsed from a conn command.
type LanePair struct {
	LaneIn, LaneOut uint8
}

// ParsePairs parses a ";"-separated list of "lane_in:lane_out" pairs.
func ParsePairs(spec string) ([]LanePair, error) {
	parts := strings.Split(spec, ";")
	pairs := make([]LanePair, 0, len(parts))
	for _, p := range parts {
		halves := strings.SplitN(p, ":", 2)
		if len(halves) != 2 {
			return nil, fmt.Errorf("%w: malformed lane pair %q", ErrProtocol, p)
		}
		laneIn, err := parseU8("conn", "lane_in", halves[0])
		if err != nil {
			return nil, err
		}
		laneOut, err := parseU8("conn", "lane_out", halves[1])
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, LanePair{LaneIn: laneIn, LaneOut: laneOut})
	}
	return pairs, nil
}

// LaneSpec is one lane's endpoint offsets parsed from a link command.
type LaneSpec struct {
	YStart, YEnd float32
}

// ParseLanesSpec parses a ";"-separated list of "y_start,y_end" lane specs.
func ParseLanesSpec(spec string) ([]LaneSpec, error) {
	parts := strings.Split(spec, ";")
	lanes := make([]LaneSpec, 0, len(parts))
	for _, p := range parts {
		halves := strings.SplitN(p, ",", 2)
		if len(halves) != 2 {
			return nil, fmt.Errorf("%w: malformed lane spec %q", ErrProtocol, p)
		}
		yStart, err := parseF32("link", "y_start", halves[0])
		if err != nil {
			return nil, err
		}
		yEnd, err := parseF32("link", "y_end", halves[1])
		if err != nil {
			return nil, err
		}
		lanes = append(lanes, LaneSpec{YStart: yStart, YEnd: yEnd})
	}
	return lanes, nil
}
