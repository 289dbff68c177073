package jet

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"k8s.io/klog/v2"

	"github.com/notargets/mxyzptlk/pool"
	"github.com/notargets/mxyzptlk/utils"
)

// Environment describes a Jet algebra: the number of independent
// variables, the truncation order and the expansion point. It is immutable
// once built, and Jets may only be combined when they share the same
// *Environment; two environments with equal parameters are still distinct.
//
// The first spaceDim variables are phase space coordinates, the remainder
// are parameters.
type Environment[T utils.Field] struct {
	id        uint64
	maxWeight int
	numVar    int
	spaceDim  int
	refPoint  []T
	scale     []float64

	scratch *scratchArea[T]

	mu         sync.Mutex
	derived    map[string]*Environment[T]
	univariate *Environment[T]
	promoted   *Environment[complex128]
	origin     *Environment[float64]
}

var (
	envCounter  atomic.Uint64
	lastReal    atomic.Pointer[Environment[float64]]
	lastComplex atomic.Pointer[Environment[complex128]]
	termPools   = pool.NewRegistry()
)

// TermPools exposes the registry of per-environment scratch term pools.
func TermPools() *pool.Registry { return termPools }

// NewEnvironment creates an environment with numVar variables of which the
// first spaceDim are coordinates. refPoint may be nil (the origin), of
// length spaceDim (parameters expanded about zero) or of length numVar.
// scale may be nil, in which case every variable has unit scale.
func NewEnvironment[T utils.Field](maxWeight, numVar, spaceDim int, refPoint []T, scale []float64) (*Environment[T], error) {
	switch {
	case maxWeight < 0:
		return nil, fmt.Errorf("maxWeight %d is negative: %w", maxWeight, ErrInvalidEnvironment)
	case numVar < 0:
		return nil, fmt.Errorf("numVar %d is negative: %w", numVar, ErrInvalidEnvironment)
	case numVar > utils.MaxComponents:
		return nil, fmt.Errorf("numVar %d exceeds the maximum of %d: %w",
			numVar, utils.MaxComponents, ErrInvalidEnvironment)
	case spaceDim < 0 || spaceDim > numVar:
		return nil, fmt.Errorf("spaceDim %d outside [0,%d]: %w", spaceDim, numVar, ErrInvalidEnvironment)
	}
	ref := make([]T, numVar)
	switch len(refPoint) {
	case 0, numVar, spaceDim:
		copy(ref, refPoint)
	default:
		return nil, fmt.Errorf("reference point of length %d, expected %d or %d: %w",
			len(refPoint), spaceDim, numVar, ErrInvalidEnvironment)
	}
	scl := make([]float64, numVar)
	switch len(scale) {
	case 0:
		for i := range scl {
			scl[i] = 1
		}
	case numVar:
		for i, s := range scale {
			if s < 0 {
				s = -s
			}
			scl[i] = s
		}
	default:
		return nil, fmt.Errorf("scale of length %d, expected %d: %w", len(scale), numVar, ErrInvalidEnvironment)
	}
	return newEnvironment(maxWeight, numVar, spaceDim, ref, scl), nil
}

// newEnvironment takes ownership of already validated slices.
func newEnvironment[T utils.Field](maxWeight, numVar, spaceDim int, ref []T, scl []float64) *Environment[T] {
	env := &Environment[T]{
		id:        envCounter.Add(1),
		maxWeight: maxWeight,
		numVar:    numVar,
		spaceDim:  spaceDim,
		refPoint:  ref,
		scale:     scl,
	}
	env.scratch = newScratchArea[T](env.TermPoolID())
	runtime.AddCleanup(env, func(id string) { termPools.Unregister(id) }, env.TermPoolID())
	if klog.V(4).Enabled() {
		klog.Infof("created environment %s", env)
	}
	return env
}

// LastEnv returns the environment most recently ended by an
// EnvironmentBuilder or set with SetLastEnv, or nil.
func LastEnv[T utils.Field]() *Environment[T] {
	var z T
	switch any(z).(type) {
	case float64:
		return any(lastReal.Load()).(*Environment[T])
	default:
		return any(lastComplex.Load()).(*Environment[T])
	}
}

// SetLastEnv replaces the process-wide default environment for T.
func SetLastEnv[T utils.Field](env *Environment[T]) {
	switch e := any(env).(type) {
	case *Environment[float64]:
		lastReal.Store(e)
	case *Environment[complex128]:
		lastComplex.Store(e)
	}
}

// PromoteEnvironment returns the complex environment with the shape of
// env. Promoting the same environment twice yields the same instance.
func PromoteEnvironment(env *Environment[float64]) *Environment[complex128] {
	env.mu.Lock()
	defer env.mu.Unlock()
	if env.promoted != nil {
		return env.promoted
	}
	ref := make([]complex128, env.numVar)
	for i, r := range env.refPoint {
		ref[i] = complex(r, 0)
	}
	c := newEnvironment(env.maxWeight, env.numVar, env.spaceDim, ref, env.Scale())
	c.origin = env
	env.promoted = c
	return c
}

// RealEnvironment is the inverse of PromoteEnvironment. A complex
// environment that was not produced by promotion is demoted once and the
// result cached; its reference point must be real.
func RealEnvironment(env *Environment[complex128]) (*Environment[float64], error) {
	env.mu.Lock()
	defer env.mu.Unlock()
	if env.origin != nil {
		return env.origin, nil
	}
	ref := make([]float64, env.numVar)
	for i, z := range env.refPoint {
		if imag(z) != 0 {
			return nil, &BadReference{Index: i, Value: z, Site: callerSite(0)}
		}
		ref[i] = real(z)
	}
	r := newEnvironment(env.maxWeight, env.numVar, env.spaceDim, ref, env.Scale())
	r.promoted = env
	env.origin = r
	return r, nil
}

// WithReferencePoint returns an environment of the same shape expanded
// about ref. Results are cached per parent, so the same point always maps to
// the same instance; env's own reference point maps to env.
func (env *Environment[T]) WithReferencePoint(ref []T) (*Environment[T], error) {
	if len(ref) != env.numVar && len(ref) != env.spaceDim {
		return nil, fmt.Errorf("reference point of length %d, expected %d or %d: %w",
			len(ref), env.spaceDim, env.numVar, ErrInvalidEnvironment)
	}
	full := make([]T, env.numVar)
	copy(full, ref)
	if slices.Equal(full, env.refPoint) {
		return env, nil
	}
	key := fmt.Sprint(full)

	env.mu.Lock()
	defer env.mu.Unlock()
	if d, ok := env.derived[key]; ok {
		return d, nil
	}
	if env.derived == nil {
		env.derived = make(map[string]*Environment[T])
	}
	d := newEnvironment(env.maxWeight, env.numVar, env.spaceDim, full, env.Scale())
	env.derived[key] = d
	return d, nil
}

// univariateEnv is the one variable environment of the same order used to
// build Taylor series of scalar functions.
func (env *Environment[T]) univariateEnv() *Environment[T] {
	env.mu.Lock()
	defer env.mu.Unlock()
	if env.univariate == nil {
		env.univariate = newEnvironment(env.maxWeight, 1, 1, make([]T, 1), []float64{1})
	}
	return env.univariate
}

// Coordinate returns the deviation variable i: zero standard part and a
// single unit term of weight one.
func (env *Environment[T]) Coordinate(i int) *Jet[T] {
	env.checkVariable(i)
	j := &Jet[T]{env: env}
	if env.maxWeight >= 1 {
		j.terms = []Term[T]{NewTerm(utils.UnitIntArray(env.numVar, i), utils.FromFloat[T](1))}
	}
	return j
}

// Variable returns the absolute variable i, whose standard part is the
// reference point component.
func (env *Environment[T]) Variable(i int) *Jet[T] {
	return env.Coordinate(i).AddScalar(env.refPoint[i])
}

// Coordinates returns every Coordinate of env in order.
func (env *Environment[T]) Coordinates() []*Jet[T] {
	out := make([]*Jet[T], env.numVar)
	for i := range out {
		out[i] = env.Coordinate(i)
	}
	return out
}

func (env *Environment[T]) NumVar() int    { return env.numVar }
func (env *Environment[T]) SpaceDim() int  { return env.spaceDim }
func (env *Environment[T]) MaxWeight() int { return env.maxWeight }

// Dof is the number of parameters, i.e. the variables beyond spaceDim.
func (env *Environment[T]) Dof() int { return env.numVar - env.spaceDim }

func (env *Environment[T]) RefPoint() []T {
	out := make([]T, len(env.refPoint))
	copy(out, env.refPoint)
	return out
}

func (env *Environment[T]) Scale() []float64 {
	out := make([]float64, len(env.scale))
	copy(out, env.scale)
	return out
}

// MaxTerms is the number of monomials of weight <= maxWeight in numVar
// variables, the largest term count a Jet can reach.
func (env *Environment[T]) MaxTerms() int {
	n, k := env.numVar+env.maxWeight, env.numVar
	if env.maxWeight < k {
		k = env.maxWeight
	}
	b := 1
	for i := 1; i <= k; i++ {
		b = b * (n - k + i) / i
	}
	return b
}

// SameShape reports structural equality. It does not make two
// environments compatible.
func (env *Environment[T]) SameShape(o *Environment[T]) bool {
	if env.numVar != o.numVar || env.spaceDim != o.spaceDim || env.maxWeight != o.maxWeight {
		return false
	}
	for i := range env.refPoint {
		if env.refPoint[i] != o.refPoint[i] || env.scale[i] != o.scale[i] {
			return false
		}
	}
	return true
}

// TermPoolID names the scratch pool of env in TermPools.
func (env *Environment[T]) TermPoolID() string {
	var z T
	return fmt.Sprintf("%T/%d", z, env.id)
}

func (env *Environment[T]) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Environment#%d: numVar=%d spaceDim=%d maxWeight=%d\n",
		env.id, env.numVar, env.spaceDim, env.maxWeight))
	sb.WriteString("  refPoint:")
	for _, r := range env.refPoint {
		sb.WriteString(fmt.Sprintf(" %v", r))
	}
	sb.WriteString("\n  scale:")
	for _, s := range env.scale {
		sb.WriteString(fmt.Sprintf(" %g", s))
	}
	return sb.String()
}

func (env *Environment[T]) checkVariable(i int) {
	if i < 0 || i >= env.numVar {
		panic(fmt.Sprintf("variable index %d out of range [0,%d)", i, env.numVar))
	}
}

// scratchArea accumulates products into pooled terms keyed by exponent.
type scratchArea[T utils.Field] struct {
	mu    sync.Mutex
	terms *pool.Pool[Term[T]]
	index map[utils.IntArray]pool.Handle
	order []pool.Handle
}

func newScratchArea[T utils.Field](poolID string) *scratchArea[T] {
	s := &scratchArea[T]{
		terms: pool.New[Term[T]](pool.DefaultBlockSize),
		index: make(map[utils.IntArray]pool.Handle),
	}
	if err := termPools.Register(poolID, s.terms); err != nil {
		klog.Warningf("term pool: %v", err)
	}
	return s
}

// accumulate adds v to the coefficient of index. Callers hold mu.
func (s *scratchArea[T]) accumulate(index utils.IntArray, weight int, v T) {
	if h, ok := s.index[index]; ok {
		t := s.terms.At(h)
		t.Value += v
		t.deleted = t.Value == 0
		return
	}
	if v == 0 {
		return
	}
	h := s.terms.Allocate()
	*s.terms.At(h) = Term[T]{Index: index, Weight: weight, Value: v}
	s.index[index] = h
	s.order = append(s.order, h)
}

// drain returns the accumulated terms in canonical order and recycles the
// pool. Callers hold mu.
func (s *scratchArea[T]) drain(maxWeight int) []Term[T] {
	out := make([]Term[T], 0, len(s.order))
	for _, h := range s.order {
		out = append(out, *s.terms.At(h))
		s.terms.Deallocate(h)
	}
	clear(s.index)
	s.order = s.order[:0]
	return canonicalize(out, maxWeight)
}
