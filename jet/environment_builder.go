package jet

import (
	"fmt"
	"sync"

	"github.com/notargets/mxyzptlk/utils"
)

// EnvironmentBuilder collects coordinates and parameters between
// BeginEnvironment and End. Coordinates always precede parameters in the
// resulting variable order, whatever the order of declaration.
type EnvironmentBuilder[T utils.Field] struct {
	mu        sync.Mutex
	maxWeight int
	coords    []*Coord[T]
	params    []*Param[T]
	env       *Environment[T]
}

// Coord is a phase space coordinate declared on a builder. It becomes
// usable once the builder has ended.
type Coord[T utils.Field] struct {
	value T
	index int
	env   *Environment[T]
}

// Param is a parameter declared on a builder.
type Param[T utils.Field] struct {
	value T
	index int
	env   *Environment[T]
}

func BeginEnvironment[T utils.Field](maxWeight int) *EnvironmentBuilder[T] {
	return &EnvironmentBuilder[T]{maxWeight: maxWeight}
}

// Coord declares a coordinate with the given reference value.
func (b *EnvironmentBuilder[T]) Coord(value T) *Coord[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := &Coord[T]{value: value, index: -1}
	b.coords = append(b.coords, c)
	return c
}

// Param declares a parameter with the given reference value.
func (b *EnvironmentBuilder[T]) Param(value T) *Param[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := &Param[T]{value: value, index: -1}
	b.params = append(b.params, p)
	return p
}

// End builds the environment, binds every declared handle and makes the
// environment the process default for T. scale may be nil.
func (b *EnvironmentBuilder[T]) End(scale []float64) (*Environment[T], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.env != nil {
		return nil, ErrBuilderClosed
	}
	nc, np := len(b.coords), len(b.params)
	ref := make([]T, 0, nc+np)
	for _, c := range b.coords {
		ref = append(ref, c.value)
	}
	for _, p := range b.params {
		ref = append(ref, p.value)
	}
	env, err := NewEnvironment(b.maxWeight, nc+np, nc, ref, scale)
	if err != nil {
		return nil, fmt.Errorf("ending environment: %w", err)
	}
	for i, c := range b.coords {
		c.index, c.env = i, env
	}
	for i, p := range b.params {
		p.index, p.env = nc+i, env
	}
	b.env = env
	SetLastEnv(env)
	return env, nil
}

// Index is the variable number, or -1 before the builder ends.
func (c *Coord[T]) Index() int { return c.index }
func (c *Coord[T]) Value() T   { return c.value }

// Jet returns the absolute variable: the declared value plus the unit
// deviation. It is nil before the builder ends.
func (c *Coord[T]) Jet() *Jet[T] {
	if c.env == nil {
		return nil
	}
	return c.env.Variable(c.index)
}

func (p *Param[T]) Index() int { return p.index }
func (p *Param[T]) Value() T   { return p.value }

func (p *Param[T]) Jet() *Jet[T] {
	if p.env == nil {
		return nil
	}
	return p.env.Variable(p.index)
}
