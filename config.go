/*
 * config.go, part of goneb.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package neb

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	v3 "github.com/rmera/goneb/v3"
	"gopkg.in/yaml.v3"
)

//Config contains every parameter of a run. It replaces the literals a
//driver script would carry, so several runs can be set up in one process.
type Config struct {
	//Name is the base name of the simulations. Band runs append _k<spring>.
	Name        string         `yaml:"name"`
	Mesh        Mesh           `yaml:"mesh"`
	Material    Material       `yaml:"material"`
	Hamiltonian Hamiltonian    `yaml:"hamiltonian"`
	Relax       RelaxParams    `yaml:"relax"`
	NEB         NEBParams      `yaml:"neb"`
	Plot        PlotParams     `yaml:"plot"`
	Povray      PovrayParams   `yaml:"povray"`
	Engine      EngineSettings `yaml:"engine"`
	Logging     LoggingConfig  `yaml:"logging"`
}

//Material holds the per-site magnetic properties.
type Material struct {
	//MuS is the magnetic moment of each site, in Bohr magnetons.
	MuS float64 `yaml:"mu_s"`
	//Gamma is the gyromagnetic ratio. Zero means the engine's default.
	Gamma float64 `yaml:"gamma"`
}

//Hamiltonian holds the interaction constants. Energies are in meV, the field in Tesla.
type Hamiltonian struct {
	Exchange float64    `yaml:"exchange"`
	DMI      float64    `yaml:"dmi"`
	DMIType  string     `yaml:"dmi_type"`
	Field    [3]float64 `yaml:"field"`
}

//RelaxParams controls the relaxation of single states.
type RelaxParams struct {
	Alpha        float64 `yaml:"alpha"`
	Precession   bool    `yaml:"precession"`
	Dt           float64 `yaml:"dt"`
	StoppingDmdt float64 `yaml:"stopping_dmdt"`
	MaxSteps     int     `yaml:"max_steps"`
	SaveEvery    int     `yaml:"save_every"`
}

//NEBParams controls the band relaxations.
type NEBParams struct {
	Springs        []float64 `yaml:"springs"`
	MaxIterations  int       `yaml:"max_iterations"`
	SaveEvery      int       `yaml:"save_every"`
	StoppingDYdt   float64   `yaml:"stopping_dydt"`
	Interpolations []int     `yaml:"interpolations"`
	ClimbingImages []int     `yaml:"climbing_images"`
}

//PlotParams controls the energy band figures. Axis limits with Min==Max are computed from the data.
type PlotParams struct {
	ReferenceImage int     `yaml:"reference_image"`
	DistanceScale  float64 `yaml:"distance_scale"`
	XMin           float64 `yaml:"xmin"`
	XMax           float64 `yaml:"xmax"`
	YMin           float64 `yaml:"ymin"`
	YMax           float64 `yaml:"ymax"`
	LabelOffset    float64 `yaml:"label_offset"`
	Width          float64 `yaml:"width"`  //inches
	Height         float64 `yaml:"height"` //inches
	Spline         bool    `yaml:"spline"`
}

//PovrayParams maps the name of each exported state to an image index. Negative
//indexes count from the end of the band.
type PovrayParams struct {
	States map[string]int `yaml:"states"`
}

//EngineSettings tells how to launch the engine.
type EngineSettings struct {
	Command string `yaml:"command"`
	WorkDir string `yaml:"workdir"`
}

//LoggingConfig sets the log verbosity: "info" (default), "debug" or "trace".
type LoggingConfig struct {
	Level string `yaml:"level"`
}

//Default returns the configuration of the skyrmion collapse study: J=10 meV,
//D=6 meV, B=25 T and mu_s=2 mu_B on a 21x21 lattice.
func Default() *Config {
	return &Config{
		Name:     "neb_21x21-spins_fm-sk_atomic",
		Mesh:     DefaultMesh(),
		Material: Material{MuS: 2},
		Hamiltonian: Hamiltonian{
			Exchange: 10,
			DMI:      6,
			DMIType:  "interfacial",
			Field:    [3]float64{0, 0, 25},
		},
		Relax: RelaxParams{
			Alpha:        0.5,
			Precession:   false,
			Dt:           1e-13,
			StoppingDmdt: 0.01,
			MaxSteps:     5000,
			SaveEvery:    100,
		},
		NEB: NEBParams{
			Springs:        []float64{1e4},
			MaxIterations:  2000,
			SaveEvery:      10000,
			StoppingDYdt:   0.01,
			Interpolations: []int{16},
		},
		Plot: PlotParams{
			ReferenceImage: 0,
			DistanceScale:  1,
			XMin:           -1,
			XMax:           18,
			YMin:           -15,
			YMax:           44,
			LabelOffset:    1.5,
			Width:          10,
			Height:         6,
			Spline:         true,
		},
		Povray: PovrayParams{
			States: map[string]int{"skyrmion": 0, "destruction": 11, "ferromagnetic": -1},
		},
		Engine:  EngineSettings{Command: "python3", WorkDir: "."},
		Logging: LoggingConfig{Level: "info"},
	}
}

//Load returns the defaults, overwritten by the YAML file at path (if path
//is not empty) and then by the GONEB_* environment variables.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		var err error
		config, err = LoadFromFile(path)
		if err != nil {
			return nil, err
		}
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

//LoadFromFile loads the configuration from a YAML file. Keys missing
//from the file keep their default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	config := Default()
	//a map given in the file replaces the default one instead of adding to it.
	defStates := config.Povray.States
	config.Povray.States = nil
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if config.Povray.States == nil {
		config.Povray.States = defStates
	}
	return config, nil
}

func applyEnvOverrides(config *Config) error {
	if v := os.Getenv("GONEB_NAME"); v != "" {
		config.Name = v
	}
	if v := os.Getenv("GONEB_ENGINE_COMMAND"); v != "" {
		config.Engine.Command = v
	}
	if v := os.Getenv("GONEB_WORKDIR"); v != "" {
		config.Engine.WorkDir = v
	}
	if v := os.Getenv("GONEB_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("GONEB_SPRING"); v != "" {
		springs, err := ParseSprings(v)
		if err != nil {
			return fmt.Errorf("GONEB_SPRING: %w", err)
		}
		config.NEB.Springs = springs
	}
	return nil
}

//ParseSprings parses a comma-separated list of spring constants, e.g. "1e4,1e6".
func ParseSprings(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	ret := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		k, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid spring constant %q: %w", f, err)
		}
		ret = append(ret, k)
	}
	return ret, nil
}

//Validate checks that the configuration is usable. All errors wrap ErrConfig.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: empty simulation name", ErrConfig)
	}
	if err := c.Mesh.validate(); err != nil {
		return err
	}
	if c.Material.MuS <= 0 {
		return fmt.Errorf("%w: mu_s must be positive, got %g", ErrConfig, c.Material.MuS)
	}
	if c.Hamiltonian.DMIType != "interfacial" && c.Hamiltonian.DMIType != "bulk" {
		return fmt.Errorf("%w: invalid dmi_type %q (valid: interfacial, bulk)", ErrConfig, c.Hamiltonian.DMIType)
	}
	if c.Relax.Dt <= 0 || c.Relax.MaxSteps <= 0 || c.Relax.SaveEvery <= 0 || c.Relax.StoppingDmdt <= 0 {
		return fmt.Errorf("%w: relax dt, max_steps, save_every and stopping_dmdt must be positive", ErrConfig)
	}
	if len(c.NEB.Springs) == 0 {
		return fmt.Errorf("%w: no spring constants given", ErrConfig)
	}
	for _, k := range c.NEB.Springs {
		if k <= 0 {
			return fmt.Errorf("%w: spring constants must be positive, got %g", ErrConfig, k)
		}
	}
	if c.NEB.MaxIterations <= 0 || c.NEB.SaveEvery <= 0 || c.NEB.StoppingDYdt <= 0 {
		return fmt.Errorf("%w: neb max_iterations, save_every and stopping_dydt must be positive", ErrConfig)
	}
	for _, n := range c.NEB.Interpolations {
		if n < 0 {
			return fmt.Errorf("%w: negative number of interpolations %d", ErrConfig, n)
		}
	}
	if c.Plot.DistanceScale <= 0 {
		return fmt.Errorf("%w: plot distance_scale must be positive", ErrConfig)
	}
	validLevels := map[string]bool{"": true, "info": true, "debug": true, "trace": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("%w: invalid log level %q (valid: info, debug, trace)", ErrConfig, c.Logging.Level)
	}
	return nil
}

//BandName returns the name of the band relaxation with spring constant k,
//e.g. neb_21x21-spins_fm-sk_atomic_k1e4.
func (c *Config) BandName(k float64) string {
	return fmt.Sprintf("%s_k%s", c.Name, FormatSpring(k))
}

//FormatSpring writes k in short scientific notation: 1e4, 2.5e10, 1e-2.
func FormatSpring(k float64) string {
	s := strconv.FormatFloat(k, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	neg := strings.HasPrefix(exp, "-")
	exp = strings.TrimLeft(exp, "+-0")
	if exp == "" {
		return mant
	}
	if neg {
		exp = "-" + exp
	}
	return mant + "e" + exp
}

//BandJob builds a band relaxation job for chain with spring constant k.
func (c *Config) BandJob(name string, chain *Chain, k float64) *BandJob {
	return &BandJob{
		Name:          name,
		Mesh:          c.Mesh,
		Material:      c.Material,
		Hamiltonian:   c.Hamiltonian,
		Chain:         chain,
		Spring:        k,
		MaxIterations: c.NEB.MaxIterations,
		SaveEvery:     c.NEB.SaveEvery,
		StoppingDYdt:  c.NEB.StoppingDYdt,
	}
}

//RelaxJob builds a relaxation job for the initial state given.
func (c *Config) RelaxJob(name string, initial *v3.Matrix) *RelaxJob {
	return &RelaxJob{
		Name:        name,
		Mesh:        c.Mesh,
		Material:    c.Material,
		Hamiltonian: c.Hamiltonian,
		Params:      c.Relax,
		Initial:     initial,
	}
}
