package builder

import (
	"fmt"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"github.com/notargets/mxyzptlk/jet"
	"github.com/notargets/mxyzptlk/mapping"
	"github.com/notargets/mxyzptlk/utils"
)

// DataType selects the coefficient field of the built environment
type DataType int

const (
	Float64 DataType = iota + 1
	Complex128
)

func (d DataType) String() string {
	switch d {
	case Float64:
		return "float64"
	case Complex128:
		return "complex128"
	default:
		return fmt.Sprintf("DataType(%d)", int(d))
	}
}

// UnmarshalYAML accepts the names printed by String.
func (d *DataType) UnmarshalYAML(node *yaml.Node) error {
	switch strings.ToLower(node.Value) {
	case "float64", "real":
		*d = Float64
	case "complex128", "complex":
		*d = Complex128
	default:
		return fmt.Errorf("line %d: unknown data type %q", node.Line, node.Value)
	}
	return nil
}

// Variable names a coordinate or parameter and its reference value
type Variable struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
	Imag  float64 `yaml:"imag,omitempty"`
}

// MatrixSpec is a named dense matrix given row major
type MatrixSpec struct {
	Name string    `yaml:"name"`
	Rows int       `yaml:"rows"`
	Cols int       `yaml:"cols"`
	Data []float64 `yaml:"data"`
}

// Config holds configuration for creating a Builder
type Config struct {
	MaxWeight   int          `yaml:"maxWeight"`
	DataType    DataType     `yaml:"dataType,omitempty"`
	Coordinates []Variable   `yaml:"coordinates"`
	Parameters  []Variable   `yaml:"parameters,omitempty"`
	Scale       []float64    `yaml:"scale,omitempty"`
	Matrices    []MatrixSpec `yaml:"matrices,omitempty"`
}

// LoadConfig reads a YAML configuration file
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes and validates YAML configuration
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks names and matrix shapes; the environment itself
// validates the numeric parameters.
func (cfg Config) Validate() error {
	seen := make(map[string]bool)
	for _, v := range append(append([]Variable{}, cfg.Coordinates...), cfg.Parameters...) {
		if v.Name == "" {
			return fmt.Errorf("variable with empty name")
		}
		if seen[v.Name] {
			return fmt.Errorf("variable %s declared twice", v.Name)
		}
		seen[v.Name] = true
	}
	for _, m := range cfg.Matrices {
		if m.Rows <= 0 || m.Cols <= 0 || len(m.Data) != m.Rows*m.Cols {
			return fmt.Errorf("matrix %s: %d values for a %dx%d matrix", m.Name, len(m.Data), m.Rows, m.Cols)
		}
	}
	return nil
}

// Builder owns an environment built from a Config together with its named
// variables and static matrices.
type Builder[T utils.Field] struct {
	Config Config

	// Static matrices available by name
	StaticMatrices map[string]mat.Matrix

	env   *jet.Environment[T]
	names []string
	index map[string]int
}

// Build creates the environment described by cfg. The configured DataType
// must match T; an unset DataType defaults to Float64.
func Build[T utils.Field](cfg Config) (*Builder[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// Set defaults
	if cfg.DataType == 0 {
		cfg.DataType = Float64
	}
	if want := dataTypeOf[T](); cfg.DataType != want {
		return nil, fmt.Errorf("config asks for %v coefficients, building %v", cfg.DataType, want)
	}

	eb := jet.BeginEnvironment[T](cfg.MaxWeight)
	names := make([]string, 0, len(cfg.Coordinates)+len(cfg.Parameters))
	for _, v := range cfg.Coordinates {
		val, err := toField[T](v)
		if err != nil {
			return nil, err
		}
		eb.Coord(val)
		names = append(names, v.Name)
	}
	for _, v := range cfg.Parameters {
		val, err := toField[T](v)
		if err != nil {
			return nil, err
		}
		eb.Param(val)
		names = append(names, v.Name)
	}
	var scale []float64
	if len(cfg.Scale) > 0 {
		scale = cfg.Scale
	}
	env, err := eb.End(scale)
	if err != nil {
		return nil, fmt.Errorf("failed to build environment: %w", err)
	}

	b := &Builder[T]{
		Config:         cfg,
		StaticMatrices: make(map[string]mat.Matrix),
		env:            env,
		names:          names,
		index:          make(map[string]int, len(names)),
	}
	for i, n := range names {
		b.index[n] = i
	}
	for _, m := range cfg.Matrices {
		b.AddStaticMatrix(m.Name, mat.NewDense(m.Rows, m.Cols, m.Data))
	}
	klog.V(2).Infof("built %v environment with variables %v", cfg.DataType, names)
	return b, nil
}

func toField[T utils.Field](v Variable) (T, error) {
	if !utils.IsComplex[T]() && v.Imag != 0 {
		return 0, jet.NewBadReference(1, -1, complex(v.Value, v.Imag))
	}
	return utils.FromComplex[T](complex(v.Value, v.Imag)), nil
}

// dataTypeOf maps the coefficient field to its DataType
func dataTypeOf[T utils.Field]() DataType {
	if utils.IsComplex[T]() {
		return Complex128
	}
	return Float64
}

func (b *Builder[T]) Env() *jet.Environment[T] { return b.env }

// Names returns the variable names in environment order
func (b *Builder[T]) Names() []string {
	result := make([]string, len(b.names))
	copy(result, b.names)
	return result
}

// Index returns the variable number of name
func (b *Builder[T]) Index(name string) (int, error) {
	i, ok := b.index[name]
	if !ok {
		return 0, fmt.Errorf("variable %s not found", name)
	}
	return i, nil
}

// Jet returns the absolute variable called name
func (b *Builder[T]) Jet(name string) (*jet.Jet[T], error) {
	i, err := b.Index(name)
	if err != nil {
		return nil, err
	}
	return b.env.Variable(i), nil
}

// Identity returns the identity map over the coordinates
func (b *Builder[T]) Identity() *mapping.Mapping[T] {
	return mapping.Identity(b.env)
}

// AddStaticMatrix registers a matrix under name
func (b *Builder[T]) AddStaticMatrix(name string, m mat.Matrix) {
	b.StaticMatrices[name] = m
}

// ApplyStaticMatrix multiplies jv by the named matrix
func ApplyStaticMatrix(b *Builder[float64], name string, jv *mapping.JetVector[float64]) (*mapping.JetVector[float64], error) {
	m, ok := b.StaticMatrices[name]
	if !ok {
		return nil, fmt.Errorf("matrix %s not found", name)
	}
	return mapping.LinearTransform(m, jv)
}

func (b *Builder[T]) String() string {
	var sb strings.Builder
	sb.WriteString(b.env.String())
	for i, n := range b.names {
		kind := "coordinate"
		if i >= b.env.SpaceDim() {
			kind = "parameter"
		}
		sb.WriteString(fmt.Sprintf("\n  %-10s %-10s ref=%v", n, kind, b.env.RefPoint()[i]))
	}
	return sb.String()
}
