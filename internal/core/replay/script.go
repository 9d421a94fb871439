package replay

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/kartsim/internal/core/kart/vehicle"
)

// Frame holds one driver command for a number of consecutive ticks.
type Frame struct {
	Ticks     int     `yaml:"ticks" json:"ticks"`
	Throttle  float64 `yaml:"throttle" json:"throttle"`
	Steer     float64 `yaml:"steer" json:"steer"`
	Handbrake bool    `yaml:"handbrake" json:"handbrake"`
}

func (f Frame) Input() vehicle.Input {
	return vehicle.Input{Throttle: f.Throttle, Steer: f.Steer, Handbrake: f.Handbrake}
}

// Script is a named, timed sequence of driver inputs.
type Script struct {
	Name   string  `yaml:"name" json:"name"`
	Frames []Frame `yaml:"frames" json:"frames"`
}

// TotalTicks is the number of fixed ticks the script covers.
func (s *Script) TotalTicks() int {
	n := 0
	for _, f := range s.Frames {
		n += f.Ticks
	}
	return n
}

func (s *Script) Validate() error {
	if len(s.Frames) == 0 {
		return fmt.Errorf("%w: no frames", ErrInvalidScript)
	}
	var errs []error
	for i, f := range s.Frames {
		if f.Ticks <= 0 {
			errs = append(errs, fmt.Errorf("%w: frame %d: ticks must be positive, got %d", ErrInvalidScript, i, f.Ticks))
		}
		if math.IsNaN(f.Throttle) || math.IsInf(f.Throttle, 0) || math.IsNaN(f.Steer) || math.IsInf(f.Steer, 0) {
			errs = append(errs, fmt.Errorf("%w: frame %d: axes must be finite", ErrInvalidScript, i))
		}
	}
	return errors.Join(errs...)
}

// LoadScript decodes and validates a YAML script.
func LoadScript(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func LoadScriptFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadScript(f)
}

// ScriptInput plays a Script one tick per Sample call. After the last frame
// it returns a released input.
type ScriptInput struct {
	script *Script
	frame  int
	tick   int
}

func NewScriptInput(s *Script) *ScriptInput {
	return &ScriptInput{script: s}
}

func (in *ScriptInput) Sample() vehicle.Input {
	for in.frame < len(in.script.Frames) {
		f := in.script.Frames[in.frame]
		if in.tick < f.Ticks {
			in.tick++
			return f.Input()
		}
		in.frame++
		in.tick = 0
	}
	return vehicle.Input{}
}

// Done reports whether every frame has been played.
func (in *ScriptInput) Done() bool {
	for i := in.frame; i < len(in.script.Frames); i++ {
		rest := in.script.Frames[i].Ticks
		if i == in.frame {
			rest -= in.tick
		}
		if rest > 0 {
			return false
		}
	}
	return true
}
