package network

import (
	"container/heap"
	"math"

	"trafficsim/internal/idpool"
)

// RouteTable memoizes shortest-path-by-distance between link pairs,
// computed via Dijkstra over the outbound-connection graph (edge weight =
// successor link length) rather than the naive memoized-recursion the
// original implementation used, which can loop forever on a cyclic network.
// Dijkstra is never invalidated: the network is assumed to grow
// monotonically over the simulation's lifetime, so a cached distance never
// becomes stale.
type RouteTable struct {
	cache map[routeKey]routeEntry
}

type routeKey struct {
	src, dst uint32
}

type routeEntry struct {
	nextLink uint32
	dist     float32
}

// NewRouteTable returns an empty route table.
func NewRouteTable() *RouteTable {
	return &RouteTable{cache: make(map[routeKey]routeEntry)}
}

// FindRoute greedily builds a link route from src to dst, repeatedly picking
// the outbound connection that minimizes the memoized distance to dst. If
// dst is unreachable from src, the returned route is just [src]. Car-following
// issues no stop at the end of a route's last link, so a vehicle on such a
// route is not held there: it leaves the network at the end of src.
func (rt *RouteTable) FindRoute(links *idpool.Pool[Link], src, dst uint32) []uint32 {
	route := []uint32{src}
	link := src
	for link != dst {
		entry, ok := rt.minDistToLink(links, link, dst)
		if !ok || math.IsInf(float64(entry.dist), 1) {
			break
		}
		link = entry.nextLink
		route = append(route, link)
	}
	return route
}

// minDistToLink returns the next hop and distance from src toward dst,
// computing and caching a full single-source Dijkstra run from src whenever
// the (src, dst) pair is not yet cached. A dst unreachable from src is never
// cached, so each query for it reruns Dijkstra.
func (rt *RouteTable) minDistToLink(links *idpool.Pool[Link], src, dst uint32) (routeEntry, bool) {
	if src == dst {
		return routeEntry{nextLink: NoLink, dist: 0}, true
	}
	key := routeKey{src: src, dst: dst}
	if e, ok := rt.cache[key]; ok {
		return e, true
	}
	rt.runDijkstraFrom(links, src)
	e, ok := rt.cache[key]
	return e, ok
}

// runDijkstraFrom computes shortest distance and next-hop from src to every
// link reachable from it, and populates the route table cache for each.
// Using a real shortest-path algorithm (rather than memoized recursion on
// "min distance to dst") sidesteps the cyclic-graph hazard the original
// recursive formulation was vulnerable to: Dijkstra naturally terminates on
// any finite graph, cyclic or not.
func (rt *RouteTable) runDijkstraFrom(links *idpool.Pool[Link], src uint32) {
	dist := make(map[uint32]float32)
	nextHop := make(map[uint32]uint32)
	visited := make(map[uint32]bool)
	dist[src] = 0

	pq := &linkHeap{{id: src, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		u := heap.Pop(pq).(linkDist)
		if visited[u.id] {
			continue
		}
		visited[u.id] = true

		link, ok := links.Get(u.id)
		if !ok {
			continue
		}
		for _, conn := range link.LinksOut {
			v := conn.ToLink
			if visited[v] {
				continue
			}
			vLink, ok := links.Get(v)
			if !ok {
				continue
			}
			nd := u.dist + vLink.Length
			if cur, ok := dist[v]; !ok || nd < cur {
				dist[v] = nd
				if u.id == src {
					nextHop[v] = v
				} else {
					nextHop[v] = nextHop[u.id]
				}
				heap.Push(pq, linkDist{id: v, dist: nd})
			}
		}
	}

	for id, d := range dist {
		if id == src {
			continue
		}
		rt.cache[routeKey{src: src, dst: id}] = routeEntry{nextLink: nextHop[id], dist: d}
	}
}

type linkDist struct {
	id   uint32
	dist float32
}

type linkHeap []linkDist

func (h linkHeap) Len() int            { return len(h) }
func (h linkHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h linkHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *linkHeap) Push(x interface{}) { *h = append(*h, x.(linkDist)) }
func (h *linkHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
