// Package simulation orchestrates the network and stop-line models into the
// per-tick pipeline, and exposes the command-level operations (adding
// network elements, placing vehicles, stepping) a session drives.
package simulation

import (
	"fmt"

	"trafficsim/internal/idpool"
	"trafficsim/internal/network"
	"trafficsim/internal/piecewise"
	"trafficsim/internal/stopline"
)

// Config holds the tunable constants governing one simulation's tick
// behavior. Zero-value fields are replaced by DefaultConfig's values by
// New.
type Config struct {
	// TickDelta is the integration timestep in seconds.
	TickDelta float32
	// LaneDecisionPeriod amortizes lane-decision refresh across P ticks:
	// a vehicle's decision is only reconsidered when id mod P == step mod P.
	LaneDecisionPeriod uint32
}

// DefaultConfig matches the reference implementation's tick rate and
// amortization period.
func DefaultConfig() Config {
	return Config{
		TickDelta:          0.1,
		LaneDecisionPeriod: network.LaneDecisionPeriod,
	}
}

// Simulation owns one network, its stop-lines, and the vehicles moving
// through it, and advances them one fixed tick at a time.
type Simulation struct {
	cfg Config

	links     *idpool.Pool[network.Link]
	vehicles  *idpool.Pool[network.Vehicle]
	stoplines *idpool.Pool[stopline.StopLine]
	routes    *network.RouteTable

	step uint32
}

// New constructs an empty simulation. A zero-value cfg is replaced with
// DefaultConfig.
func New(cfg Config) *Simulation {
	if cfg.TickDelta == 0 {
		cfg.TickDelta = DefaultConfig().TickDelta
	}
	if cfg.LaneDecisionPeriod == 0 {
		cfg.LaneDecisionPeriod = network.LaneDecisionPeriod
	}
	return &Simulation{
		cfg:       cfg,
		links:     idpool.New[network.Link](),
		vehicles:  idpool.New[network.Vehicle](),
		stoplines: idpool.New[stopline.StopLine](),
		routes:    network.NewRouteTable(),
	}
}

// AddLink registers a new link at the given user-assigned id. length and
// speedLimit must both be positive.
func (s *Simulation) AddLink(id uint32, length, speedLimit float32) error {
	if length <= 0 || speedLimit <= 0 {
		return fmt.Errorf("add link %d: %w: length and speed_limit must be positive", id, ErrInvalidConfig)
	}
	s.links.Insert(id, *network.NewLink(id, length, speedLimit))
	return nil
}

// AddLane appends a lane to link, defined by its arc-length and lateral
// centerline sample points.
func (s *Simulation) AddLane(link uint32, distPoints []piecewise.Point, latPoints []piecewise.Point) error {
	l, ok := s.links.Get(link)
	if !ok {
		return fmt.Errorf("add lane: %w: link %d", ErrNotFound, link)
	}
	l.Lanes = append(l.Lanes, network.Lane{
		Dist: piecewise.NewLinear(distPoints),
		Lat:  piecewise.NewCubic(latPoints),
	})
	return nil
}

// AddConnection registers a directed, lane-paired transition from one link
// to another.
func (s *Simulation) AddConnection(from, to uint32, lanes []network.LanePair, offset float32) error {
	fromLink, ok := s.links.Get(from)
	if !ok {
		return fmt.Errorf("add connection: %w: link %d", ErrNotFound, from)
	}
	toLink, ok := s.links.Get(to)
	if !ok {
		return fmt.Errorf("add connection: %w: link %d", ErrNotFound, to)
	}
	conn := network.Connection{FromLink: from, ToLink: to, Lanes: lanes, Offset: offset}
	fromLink.LinksOut = append(fromLink.LinksOut, conn)
	toLink.LinksIn = append(toLink.LinksIn, conn)
	return nil
}

// AddVehicle creates a vehicle at (link, lane, pos) with the given
// user-assigned id, and returns its internal id.
func (s *Simulation) AddVehicle(userID, link uint32, lane uint8, pos float32) (uint32, error) {
	l, ok := s.links.Get(link)
	if !ok {
		return 0, fmt.Errorf("add vehicle: %w: link %d", ErrNotFound, link)
	}
	if len(l.Lanes) == 0 {
		return 0, fmt.Errorf("add vehicle: %w: link %d has no lanes", ErrInvalidConfig, link)
	}
	if int(lane) >= len(l.Lanes) {
		return 0, fmt.Errorf("add vehicle: %w: link %d has no lane %d", ErrNotFound, link, lane)
	}
	veh := network.NewVehicle(userID)
	veh.SetPos(link, lane, pos)
	id := s.vehicles.InsertFree(*veh)
	v := s.vehicles.MustGet(id)
	v.ID = id
	l.AddVehicle(id)
	v.UpdatePath(s.links)
	return id, nil
}

// SetVehicleDest routes vehicle from its current link to dest via the
// route table, and assigns the resulting route to it. If dest is
// unreachable the vehicle keeps a single-link route on its current link.
func (s *Simulation) SetVehicleDest(vehID, dest uint32) error {
	veh, ok := s.vehicles.Get(vehID)
	if !ok {
		return fmt.Errorf("set dest: %w: vehicle %d", ErrNotFound, vehID)
	}
	route := s.routes.FindRoute(s.links, veh.Link, dest)
	veh.SetRoute(route)
	return nil
}

// AddStopLine registers a new stop-line at the given user-assigned id, on
// (link, lane) at pos. A traffic-light stop-line starts Red, matching the
// protocol's default: the "stop" command carries no initial phase, so
// light-controlled stop-lines start in the most conservative state until an
// external controller advances them.
func (s *Simulation) AddStopLine(id, link uint32, lane uint8, pos, length float32, kind stopline.Kind) error {
	if _, ok := s.links.Get(link); !ok {
		return fmt.Errorf("add stop-line %d: %w: link %d", id, ErrNotFound, link)
	}
	sl := stopline.New(id, link, lane, pos, length, kind)
	if kind == stopline.KindTrafficLight {
		sl.LightState = stopline.LightRed
	}
	s.stoplines.Insert(id, *sl)
	return nil
}

// SetLightState updates a traffic-light stop-line's phase. State
// transitions are an external responsibility; this is merely the setter a
// controller uses to drive them.
func (s *Simulation) SetLightState(id uint32, state stopline.LightState) error {
	sl, ok := s.stoplines.Get(id)
	if !ok {
		return fmt.Errorf("set light state: %w: stop-line %d", ErrNotFound, id)
	}
	sl.LightState = state
	return nil
}

// AddConflict registers a directed priority relationship between two
// stop-lines. The conflict check is always attached to the yielding side:
// when priority favors a, the check is mirrored onto b's conflict list
// instead (so the lookup at step time never has to branch on direction);
// when priority is equal, both sides carry a check against the other,
// since either stream may commit first and the other must then treat it as
// the occupying stream.
func (s *Simulation) AddConflict(a, b uint32, priority stopline.Priority, maxPos float32) error {
	slA, ok := s.stoplines.Get(a)
	if !ok {
		return fmt.Errorf("add conflict: %w: stop-line %d", ErrNotFound, a)
	}
	slB, ok := s.stoplines.Get(b)
	if !ok {
		return fmt.Errorf("add conflict: %w: stop-line %d", ErrNotFound, b)
	}
	switch {
	case priority == stopline.PriorityOver:
		slB.Conflicts = append(slB.Conflicts, stopline.Conflict{StopLineID: a, Priority: stopline.PriorityYield, MaxPos: maxPos})
	case priority == stopline.PriorityYield:
		slA.Conflicts = append(slA.Conflicts, stopline.Conflict{StopLineID: b, Priority: stopline.PriorityYield, MaxPos: maxPos})
	default:
		slA.Conflicts = append(slA.Conflicts, stopline.Conflict{StopLineID: b, Priority: stopline.PriorityEqual, MaxPos: maxPos})
		slB.Conflicts = append(slB.Conflicts, stopline.Conflict{StopLineID: a, Priority: stopline.PriorityEqual, MaxPos: maxPos})
	}
	return nil
}

// VehicleState is a per-vehicle snapshot emitted at the end of a step.
type VehicleState struct {
	UserID uint32
	Link   uint32
	Pos    float32
	Vel    float32
	Lat    float32
	DLat   float32
}

// Step advances the simulation by one fixed tick, running the pipeline in
// the order required for a deterministic, single-threaded result: lane
// decisions (amortized), obstacle sync, car-following, stop-line
// arbitration, the speed-limit envelope, integration, then reaping vehicles
// that have left the network.
func (s *Simulation) Step() []VehicleState {
	s.vehicles.Iter(func(id uint32, v *network.Vehicle) {
		if network.ShouldRefreshLaneDecision(id, s.step, s.cfg.LaneDecisionPeriod) {
			v.LaneDecisions(s.links)
		}
	})

	s.links.Iter(func(_ uint32, l *network.Link) {
		l.UpdateObstacles(s.vehicles)
	})

	s.links.Iter(func(_ uint32, l *network.Link) {
		l.CarFollowModel(s.vehicles, s.links)
	})

	stopline.Step(s.stoplines, s.vehicles, s.links)

	s.vehicles.Iter(func(_ uint32, v *network.Vehicle) {
		v.ApplySpeedLimit(s.links)
	})

	s.vehicles.Iter(func(_ uint32, v *network.Vehicle) {
		v.Integrate(s.cfg.TickDelta, s.links)
	})

	s.vehicles.RemoveWhere(func(v *network.Vehicle) bool {
		return !v.OnNetwork()
	})

	s.step++

	return s.vehicleStates()
}

func (s *Simulation) vehicleStates() []VehicleState {
	states := make([]VehicleState, 0, s.vehicles.Len())
	s.vehicles.Iter(func(_ uint32, v *network.Vehicle) {
		states = append(states, VehicleState{
			UserID: v.UserID,
			Link:   v.Link,
			Pos:    v.Pos,
			Vel:    v.Vel,
			Lat:    v.Lat,
			DLat:   v.DLat,
		})
	})
	return states
}

// StepIndex returns the number of ticks advanced so far.
func (s *Simulation) StepIndex() uint32 {
	return s.step
}
