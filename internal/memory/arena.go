// Package memory provides a scoped arena for short-lived tensor buffers.
//
// Buffers are pooled by exact length. Each Alloc is owned by the innermost
// open scope and returns to the pool when that scope exits:
//
//	a := memory.NewArena()
//	a.Enter()
//	buf := a.Alloc(128) // zeroed
//	...
//	a.Exit() // buf may now be handed out again
//
// An Arena is not safe for concurrent use; give each execution context its own.
package memory

import "github.com/pkg/errors"

const maxPooledPerLength = 64 // Max idle buffers kept per length

// ErrNoScope is raised by Exit without a matching Enter.
var ErrNoScope = errors.New("memory: exit without matching enter")

// Stats reports arena usage.
type Stats struct {
	Hits     uint64 // Allocations served from the pool
	Misses   uint64 // Allocations that hit the heap
	Released uint64 // Buffers returned by Exit
	InUse    int    // Buffers owned by open scopes
	Idle     int    // Buffers waiting in the pool
}

// Arena hands out zeroed []float64 buffers and recycles them per scope.
type Arena struct {
	free   map[int][][]float64
	scopes [][][]float64
	stats  Stats
}

// NewArena creates an empty arena with no open scope.
func NewArena() *Arena {
	return &Arena{free: make(map[int][][]float64)}
}

// Enter opens a new innermost scope.
func (a *Arena) Enter() {
	a.scopes = append(a.scopes, nil)
}

// Exit closes the innermost scope and returns its buffers to the pool.
// Panics with ErrNoScope when no scope is open.
func (a *Arena) Exit() {
	if len(a.scopes) == 0 {
		panic(ErrNoScope)
	}
	top := a.scopes[len(a.scopes)-1]
	a.scopes = a.scopes[:len(a.scopes)-1]
	for _, buf := range top {
		a.stats.Released++
		a.stats.InUse--
		if pool := a.free[len(buf)]; len(pool) < maxPooledPerLength {
			a.free[len(buf)] = append(pool, buf)
		}
	}
}

// Depth returns the number of open scopes.
func (a *Arena) Depth() int { return len(a.scopes) }

// Alloc returns a zeroed buffer of length n. Outside of any scope the
// buffer comes from the heap and is never recycled.
func (a *Arena) Alloc(n int) []float64 {
	if len(a.scopes) == 0 {
		a.stats.Misses++
		return make([]float64, n)
	}
	var buf []float64
	if pool := a.free[n]; len(pool) > 0 {
		buf = pool[len(pool)-1]
		a.free[n] = pool[:len(pool)-1]
		clear(buf)
		a.stats.Hits++
	} else {
		buf = make([]float64, n)
		a.stats.Misses++
	}
	top := len(a.scopes) - 1
	a.scopes[top] = append(a.scopes[top], buf)
	a.stats.InUse++
	return buf
}

// Stats returns a snapshot of the arena counters.
func (a *Arena) Stats() Stats {
	s := a.stats
	for _, pool := range a.free {
		s.Idle += len(pool)
	}
	return s
}
