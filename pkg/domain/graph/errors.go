package graph

import "errors"

// Graph domain errors.
var (
	// ErrCyclicDependency indicates a cycle was detected in the requirement graph.
	ErrCyclicDependency = errors.New("cyclic dependency detected")
	// ErrNodeNotFound indicates a node id that is not part of the graph.
	ErrNodeNotFound = errors.New("node not found")
)
