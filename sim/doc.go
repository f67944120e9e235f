// Package sim is the core discrete-time simulation engine for a small
// enterprise network: hosts, switches, routers, links, installed software,
// file systems and simplified protocols, driven by external decision-making
// agents.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - component.go: the uniform apply-request/describe-state contract and
//     the path-segment dispatch that routes actions to arbitrary depth
//   - node.go, power.go: the device aggregate and its hardware lifecycle,
//     including the cascades into software and interfaces
//   - simulation.go: the root aggregate and the fixed-order timestep
//
// # Architecture
//
// Every stateful entity is a Component: it applies a request addressed by
// a path of segments and describes its state as a nested mapping merged
// from its children. Containers (Simulation, Network, Node, FileSystem)
// only route; leaves execute terminal verbs. Protocol packet records live
// in sim/protocol and depend on nothing else.
//
// The engine is single-threaded and turn-based. Callers apply a step's
// actions, then call ApplyTimestep exactly once; all countdown-driven
// transitions and pending packet deliveries resolve before it returns.
// All randomness flows from a PartitionedRNG seeded at construction, so
// identically seeded runs produce identical state trajectories.
package sim
