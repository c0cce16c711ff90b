// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/curioloop/rootfind/numdiff"
	"github.com/curioloop/rootfind/poly"
)

const sample = `
logging:
  env: ${ROOTFIND_ENV:-dev}
  solver: eval
workers: 2
jobs:
  - name: quartic
    kind: polynomial
    coefficients: [24, -50, 35, -10, 1]
  - kind: roots
    coefficients: [-4, 0, 1]
    lower: [-5]
    upper: [5]
    derivative: true
    roots:
      nb_samples: 20
  - name: plane
    kind: linear
    matrix: [[2, 1], [1, 2]]
    rhs: [5, 4]
    solver: levmar
    finite_difference:
      method: central
  - name: valley
    kind: minimize
    objective: himmelblau
    lower: [-5, -5]
    upper: [5, 5]
    find_all: true
    global:
      continuity: 2
      minimal_value: 0
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Logging.Env != "dev" {
		t.Errorf("env default not expanded: %q", cfg.Logging.Env)
	}
	if cfg.Workers != 2 || len(cfg.Jobs) != 4 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	quartic := cfg.Jobs[0]
	if quartic.Tolerance != poly.DefaultTolerance {
		t.Errorf("polynomial tolerance default not applied: %v", quartic.Tolerance)
	}

	roots := cfg.Jobs[1]
	if roots.Name != "roots-2" || !roots.Derivative || roots.Roots.NbSamples != 20 {
		t.Errorf("unexpected roots job: %+v", roots)
	}

	plane := cfg.Jobs[2]
	if plane.FiniteDifference == nil || plane.FiniteDifference.Method != numdiff.Central {
		t.Errorf("finite difference spec not decoded: %+v", plane.FiniteDifference)
	}
	if len(plane.Start) != 2 {
		t.Errorf("start default not applied: %v", plane.Start)
	}

	valley := cfg.Jobs[3]
	if !valley.FindAll || valley.Global.Continuity != 2 || valley.Global.MinimalValue == nil || *valley.Global.MinimalValue != 0 {
		t.Errorf("unexpected minimize job: %+v", valley)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("ROOTFIND_ENV", "prod")
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Env != "prod" {
		t.Errorf("env variable not expanded: %q", cfg.Logging.Env)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Jobs: []Job{{Kind: KindLinear, Matrix: [][]float64{{1, 0, 0}}}}}
	cfg.ApplyDefaults()

	if cfg.Logging.Env != "local" || cfg.Logging.Solver != "last" || cfg.Workers <= 0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	j := cfg.Jobs[0]
	if j.Name != "linear-1" || j.Solver != SolverNewton || len(j.Start) != 3 {
		t.Errorf("unexpected job defaults: %+v", j)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Config{Jobs: []Job{{Kind: KindPolynomial, Coefficients: []float64{1, 1}}}}
		cfg.ApplyDefaults()
		return cfg
	}

	cases := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"no jobs", func(c *Config) { c.Jobs = nil }, "jobs is required"},
		{"bad env", func(c *Config) { c.Logging.Env = "staging" }, "logging.env"},
		{"duplicate", func(c *Config) { c.Jobs = append(c.Jobs, c.Jobs[0]) }, "not unique"},
		{"unknown kind", func(c *Config) { c.Jobs[0].Kind = "integrate" }, "unknown kind"},
		{"degree", func(c *Config) { c.Jobs[0].Coefficients = make([]float64, poly.MaxDegree+2) }, "coefficients"},
		{"interval", func(c *Config) {
			c.Jobs[0] = Job{Name: "r", Kind: KindRoots, Coefficients: []float64{1}, Lower: []float64{2}, Upper: []float64{1}}
		}, "lower and upper"},
		{"ragged", func(c *Config) {
			c.Jobs[0] = Job{Name: "l", Kind: KindLinear, Matrix: [][]float64{{1, 2}, {3}}, RHS: []float64{1, 2}, Start: []float64{0, 0}, Solver: SolverNewton}
		}, "matrix row 1"},
		{"wide", func(c *Config) {
			c.Jobs[0] = Job{Name: "l", Kind: KindLinear, Matrix: [][]float64{{1, 2}}, RHS: []float64{1}, Start: []float64{0, 0}, Solver: SolverNewton}
		}, "m ≥ n"},
		{"solver", func(c *Config) {
			c.Jobs[0] = Job{Name: "l", Kind: KindLinear, Matrix: [][]float64{{1}}, RHS: []float64{1}, Start: []float64{0}, Solver: "bisect"}
		}, "solver must be"},
		{"objective", func(c *Config) {
			c.Jobs[0] = Job{Name: "m", Kind: KindMinimize, Objective: "ackley", Lower: []float64{0}, Upper: []float64{1}}
		}, "objective must be one of"},
		{"continuity", func(c *Config) {
			c.Jobs[0] = Job{Name: "m", Kind: KindMinimize, Objective: "sphere", Lower: []float64{0}, Upper: []float64{1}, Global: GlobalConfig{Continuity: 3}}
		}, "continuity"},
	}

	cfg := valid()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), tc.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse([]byte("jobs: [")); err == nil {
		t.Error("expected parse error")
	}
	bad := "jobs:\n  - kind: linear\n    matrix: [[1]]\n    rhs: [1]\n    finite_difference:\n      method: backward\n"
	if _, err := Parse([]byte(bad)); err == nil {
		t.Error("expected error for unknown difference method")
	}
}
