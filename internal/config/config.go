// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/curioloop/rootfind/levmar"
	"github.com/curioloop/rootfind/multiroot"
	"github.com/curioloop/rootfind/numdiff"
	"github.com/curioloop/rootfind/poly"
)

// Job kinds.
const (
	KindPolynomial = "polynomial"
	KindRoots      = "roots"
	KindLinear     = "linear"
	KindMinimize   = "minimize"
)

// Solvers of linear jobs.
const (
	SolverNewton = "newton"
	SolverLevMar = "levmar"
)

// Built-in objectives of minimize jobs.
var Objectives = []string{"sphere", "rastrigin", "himmelblau", "linear"}

// Config holds a batch of solver jobs.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Workers int           `yaml:"workers"`
	Jobs    []Job         `yaml:"jobs"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Env    string `yaml:"env"`    // local, dev, prod (default: local)
	Level  string `yaml:"level"`  // debug, info, warn, error (default: determined by env)
	Solver string `yaml:"solver"` // noop, last, eval, trace (default: last)
}

// Job describes one solve. Only the fields of its kind are read.
type Job struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	// polynomial, roots: coefficients in ascending order of degree
	Coefficients []float64 `yaml:"coefficients"`
	Tolerance    float64   `yaml:"tolerance"`

	// roots: the interval is Lower[0], Upper[0]
	// linear, minimize: optional box
	Lower []float64 `yaml:"lower"`
	Upper []float64 `yaml:"upper"`

	// roots
	Derivative bool             `yaml:"derivative"`
	Roots      multiroot.Config `yaml:"roots"`

	// linear: 𝐀𝐱 = 𝐛 row by row
	Matrix [][]float64 `yaml:"matrix"`
	RHS    []float64   `yaml:"rhs"`
	Start  []float64   `yaml:"start"`
	Solver string      `yaml:"solver"`
	// The Jacobian is approximated by finite differences when set.
	FiniteDifference *numdiff.Spec `yaml:"finite_difference"`
	MaxIterations    int           `yaml:"max_iterations"`
	LevMar           levmar.Config `yaml:"levmar"`

	// minimize
	Objective string       `yaml:"objective"`
	FindAll   bool         `yaml:"find_all"`
	Global    GlobalConfig `yaml:"global"`
}

// GlobalConfig holds the tuning of minimize jobs.
type GlobalConfig struct {
	NbGrid         int      `yaml:"nb_grid"`
	Tolerance      float64  `yaml:"tolerance"`
	SameTolerance  float64  `yaml:"same_tolerance"`
	ValueTolerance float64  `yaml:"value_tolerance"`
	MaxEvaluations int      `yaml:"max_evaluations"`
	Continuity     int      `yaml:"continuity"`
	MinimalValue   *float64 `yaml:"minimal_value"`
}

// Load reads a job file, substitutes ${VAR} references, applies defaults and validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a job file already in memory.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// DefaultPath locates rootfind.yaml in ./config/ or relative to the source tree.
func DefaultPath() string {
	const filename = "rootfind.yaml"

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Logging.Env == "" {
		c.Logging.Env = "local"
	}
	if c.Logging.Solver == "" {
		c.Logging.Solver = "last"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	for i := range c.Jobs {
		j := &c.Jobs[i]
		if j.Name == "" {
			j.Name = fmt.Sprintf("%s-%d", j.Kind, i+1)
		}
		switch j.Kind {
		case KindPolynomial:
			if j.Tolerance <= 0 {
				j.Tolerance = poly.DefaultTolerance
			}
		case KindLinear:
			if j.Solver == "" {
				j.Solver = SolverNewton
			}
			if len(j.Start) == 0 && len(j.Matrix) > 0 {
				j.Start = make([]float64, len(j.Matrix[0]))
			}
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Logging.Env {
	case "local", "dev", "prod":
	default:
		return fmt.Errorf("logging.env must be local, dev or prod, got %q", c.Logging.Env)
	}
	if len(c.Jobs) == 0 {
		return errors.New("jobs is required")
	}
	names := make(map[string]struct{}, len(c.Jobs))
	for i := range c.Jobs {
		j := &c.Jobs[i]
		if _, dup := names[j.Name]; dup {
			return fmt.Errorf("jobs[%d].name %q is not unique", i, j.Name)
		}
		names[j.Name] = struct{}{}
		if err := j.Validate(); err != nil {
			return fmt.Errorf("jobs[%d] %s: %w", i, j.Name, err)
		}
	}
	return nil
}

// Validate checks the fields used by the job kind.
func (j *Job) Validate() error {
	switch j.Kind {
	case KindPolynomial:
		if len(j.Coefficients) < 2 || len(j.Coefficients) > poly.MaxDegree+1 {
			return fmt.Errorf("coefficients must hold 2 to %d values, got %d", poly.MaxDegree+1, len(j.Coefficients))
		}
	case KindRoots:
		if len(j.Coefficients) == 0 {
			return errors.New("coefficients is required")
		}
		if len(j.Lower) != 1 || len(j.Upper) != 1 || j.Lower[0] > j.Upper[0] {
			return errors.New("lower and upper must hold one value with lower ≤ upper")
		}
	case KindLinear:
		m := len(j.Matrix)
		if m == 0 {
			return errors.New("matrix is required")
		}
		n := len(j.Matrix[0])
		for i, row := range j.Matrix {
			if len(row) != n {
				return fmt.Errorf("matrix row %d has %d columns, want %d", i, len(row), n)
			}
		}
		switch {
		case n == 0 || m < n:
			return fmt.Errorf("matrix must be m×n with m ≥ n ≥ 1, got %d×%d", m, n)
		case len(j.RHS) != m:
			return fmt.Errorf("rhs must hold %d values, got %d", m, len(j.RHS))
		case len(j.Start) != n:
			return fmt.Errorf("start must hold %d values, got %d", n, len(j.Start))
		case len(j.Lower) != len(j.Upper) || (len(j.Lower) != 0 && len(j.Lower) != n):
			return fmt.Errorf("lower and upper must both be empty or hold %d values", n)
		}
		switch j.Solver {
		case SolverNewton:
		case SolverLevMar:
			if err := j.LevMar.Validate(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("solver must be %q or %q, got %q", SolverNewton, SolverLevMar, j.Solver)
		}
	case KindMinimize:
		known := false
		for _, o := range Objectives {
			known = known || o == j.Objective
		}
		if !known {
			return fmt.Errorf("objective must be one of %s, got %q", strings.Join(Objectives, ", "), j.Objective)
		}
		if len(j.Lower) == 0 || len(j.Lower) != len(j.Upper) {
			return errors.New("lower and upper must hold the same non zero number of values")
		}
		if c := j.Global.Continuity; c < 0 || c > 2 {
			return fmt.Errorf("global.continuity must lie in [0,2], got %d", c)
		}
	default:
		return fmt.Errorf("unknown kind %q", j.Kind)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
