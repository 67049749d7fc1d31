// Package session binds one simulation to one connection: it decodes the
// text command stream, drives the simulation, and encodes the resulting
// frame stream. A session is owned exclusively by the connection that
// created it and is not safe for concurrent use.
package session

import (
	"bytes"
	"fmt"
	"log"

	"trafficsim/internal/network"
	"trafficsim/internal/piecewise"
	"trafficsim/internal/protocol"
	"trafficsim/internal/simulation"
	"trafficsim/internal/stopline"
)

// Session owns one simulation and applies commands to it one at a time.
type Session struct {
	sim        *simulation.Simulation
	baseConfig simulation.Config
}

// New constructs a session with the default tick configuration, matching a
// session that has not yet received a "start" command.
func New() *Session {
	return NewWithConfig(simulation.DefaultConfig())
}

// NewWithConfig constructs a session whose tunable parameters (tick delta,
// lane-decision period) come from cfg, such as one loaded via config.FromYaml,
// rather than simulation.DefaultConfig.
func NewWithConfig(cfg simulation.Config) *Session {
	return &Session{sim: simulation.New(cfg), baseConfig: cfg}
}

// Handle decodes and applies a single command line. For a "step" command it
// returns the concatenated binary frames to send back; every other command
// returns nil on success. A malformed command or simulation-level error is
// returned to the caller, which decides whether to close the connection or
// continue (per the protocol's "no recovery state required" contract).
func (s *Session) Handle(line string) ([]byte, error) {
	cmd, err := protocol.Parse(line)
	if err != nil {
		return nil, err
	}

	switch c := cmd.(type) {
	case protocol.Start:
		s.sim = simulation.New(simulation.Config{
			TickDelta:          c.Delta,
			LaneDecisionPeriod: s.baseConfig.LaneDecisionPeriod,
		})
		return nil, nil

	case protocol.AddLink:
		if err := s.sim.AddLink(c.ID, c.Length, c.SpeedLimit); err != nil {
			return nil, err
		}
		lanes, err := protocol.ParseLanesSpec(c.LanesSpec)
		if err != nil {
			return nil, err
		}
		for _, lane := range lanes {
			dist := []piecewise.Point{{X: 0, Y: 0}, {X: c.Length, Y: c.Length}}
			lat := []piecewise.Point{{X: 0, Y: lane.YStart}, {X: c.Length, Y: lane.YEnd}}
			if err := s.sim.AddLane(c.ID, dist, lat); err != nil {
				return nil, err
			}
		}
		return nil, nil

	case protocol.AddConnection:
		pairs, err := protocol.ParsePairs(c.Pairs)
		if err != nil {
			return nil, err
		}
		netPairs := make([]network.LanePair, len(pairs))
		for i, p := range pairs {
			netPairs[i] = network.LanePair{LaneIn: p.LaneIn, LaneOut: p.LaneOut}
		}
		if err := s.sim.AddConnection(c.Src, c.Dst, netPairs, c.Offset); err != nil {
			return nil, err
		}
		return nil, nil

	case protocol.AddVehicle:
		vehID, err := s.sim.AddVehicle(c.ID, c.SrcLink, c.Lane, c.Pos)
		if err != nil {
			return nil, err
		}
		if err := s.sim.SetVehicleDest(vehID, c.DstLink); err != nil {
			return nil, err
		}
		return nil, nil

	case protocol.AddStopLine:
		kind, err := parseKind(c.Kind)
		if err != nil {
			return nil, err
		}
		if err := s.sim.AddStopLine(c.ID, c.Link, c.Lane, c.Pos, c.Len, kind); err != nil {
			return nil, err
		}
		return nil, nil

	case protocol.AddConflict:
		priority := stopline.PriorityEqual
		switch {
		case c.Priority > 0:
			priority = stopline.PriorityOver
		case c.Priority < 0:
			priority = stopline.PriorityYield
		}
		if err := s.sim.AddConflict(c.Stop1, c.Stop2, priority, c.MaxPos); err != nil {
			return nil, err
		}
		return nil, nil

	case protocol.Step:
		var buf bytes.Buffer
		for i := uint32(0); i < c.NumSteps; i++ {
			states := s.sim.Step()
			frames := make([]protocol.VehicleFrame, len(states))
			for j, st := range states {
				frames[j] = protocol.VehicleFrame{
					UserID: st.UserID,
					Link:   st.Link,
					Pos:    st.Pos,
					Vel:    st.Vel,
					Lat:    st.Lat,
					DLat:   st.DLat,
				}
			}
			if err := protocol.EncodeFrame(&buf, s.sim.StepIndex(), frames); err != nil {
				log.Printf("session: encode frame: %v", err)
				return nil, fmt.Errorf("encode frame: %w", err)
			}
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("%w: unhandled command type %T", protocol.ErrProtocol, cmd)
	}
}

func parseKind(s string) (stopline.Kind, error) {
	switch s {
	case "none":
		return stopline.KindNone, nil
	case "giveway":
		return stopline.KindGiveWay, nil
	case "stop":
		return stopline.KindStop, nil
	case "light":
		return stopline.KindTrafficLight, nil
	default:
		return 0, fmt.Errorf("%w: unknown stop-line kind %q", protocol.ErrProtocol, s)
	}
}
