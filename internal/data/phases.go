package data

import (
	"errors"
	"fmt"
	"os"

	"github.com/l1jgo/causetrack/internal/core/phase"
	"gopkg.in/yaml.v3"
)

// PhaseEntry overrides or adds one phase definition. Absent fields keep the
// built-in value.
type PhaseEntry struct {
	Name             string   `yaml:"name"`
	Capture          []string `yaml:"capture"` // category names, or ["all"]
	Completion       string   `yaml:"completion"`
	Cancellable      *bool    `yaml:"cancellable"`
	DiscardOnFailure *bool    `yaml:"discard_on_failure"`
}

type phaseFile struct {
	Phases []PhaseEntry `yaml:"phases"`
}

// PhaseCatalog is the parsed phases.yaml.
type PhaseCatalog struct {
	entries []PhaseEntry
}

// LoadPhaseCatalog loads phases.yaml. A missing file yields an empty catalog
// so that the built-in definitions are used unchanged.
func LoadPhaseCatalog(path string) (*PhaseCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &PhaseCatalog{}, nil
		}
		return nil, fmt.Errorf("read phase catalog: %w", err)
	}
	var f phaseFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse phase catalog: %w", err)
	}
	seen := make(map[string]bool, len(f.Phases))
	for _, e := range f.Phases {
		if e.Name == "" {
			return nil, fmt.Errorf("phase catalog %s: entry without a name", path)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("phase catalog %s: duplicate phase %q", path, e.Name)
		}
		seen[e.Name] = true
	}
	return &PhaseCatalog{entries: f.Phases}, nil
}

// Count returns the number of entries in the file.
func (c *PhaseCatalog) Count() int {
	return len(c.entries)
}

// BuildRegistry overlays the catalog on phase.Builtins and freezes the result.
// When mergePhases is non-nil it decides the completion policy of every
// phase: listed phases merge into their parent, all others commit on their
// own.
func BuildRegistry(c *PhaseCatalog, mergePhases []string) (*phase.Registry, error) {
	specs := phase.Builtins()
	index := make(map[string]int, len(specs))
	for i, s := range specs {
		index[s.Name] = i
	}

	if c != nil {
		for _, e := range c.entries {
			i, ok := index[e.Name]
			if !ok {
				specs = append(specs, phase.Spec{Name: e.Name})
				i = len(specs) - 1
				index[e.Name] = i
			}
			if err := e.apply(&specs[i]); err != nil {
				return nil, fmt.Errorf("phase %q: %w", e.Name, err)
			}
		}
	}

	if mergePhases != nil {
		merge := make(map[string]bool, len(mergePhases))
		for _, name := range mergePhases {
			if _, ok := index[name]; !ok {
				return nil, fmt.Errorf("merge_phases: %w: %q", phase.ErrUnknownPhase, name)
			}
			merge[name] = true
		}
		for i := range specs {
			if merge[specs[i].Name] {
				specs[i].Completion = phase.Merge
			} else {
				specs[i].Completion = phase.Independent
			}
		}
	}

	defs := make([]*phase.Definition, len(specs))
	for i, s := range specs {
		defs[i] = phase.Define(s)
	}
	return phase.NewRegistry(defs...)
}

func (e PhaseEntry) apply(s *phase.Spec) error {
	if e.Capture != nil {
		policy, err := parseCapture(e.Capture)
		if err != nil {
			return err
		}
		s.Capture = policy
	}
	if e.Completion != "" {
		comp, err := phase.ParseCompletion(e.Completion)
		if err != nil {
			return err
		}
		s.Completion = comp
	}
	if e.Cancellable != nil {
		s.Cancellable = *e.Cancellable
	}
	if e.DiscardOnFailure != nil {
		s.DiscardOnFailure = *e.DiscardOnFailure
	}
	return nil
}

func parseCapture(names []string) (phase.CapturePolicy, error) {
	if len(names) == 1 && names[0] == "all" {
		return phase.CaptureAll, nil
	}
	cats := make([]phase.Category, 0, len(names))
	for _, n := range names {
		c, err := phase.ParseCategory(n)
		if err != nil {
			return phase.CaptureNone, err
		}
		cats = append(cats, c)
	}
	return phase.CaptureOf(cats...), nil
}
