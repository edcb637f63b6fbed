// CUE schema validation code
package config

import (
	"errors"
	"fmt"
	"os"

	"netwatch-sim/internal/telemetry"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// schemaRoot is the definition every config file must satisfy.
const schemaRoot = "#Simulation"

// ValidateWithCue validates a YAML configuration file using a CUE schema file.
func ValidateWithCue(configFile, cueFile string) error {
	ctx := cuecontext.New()

	yamlBytes, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("cannot read YAML config: %w", err)
	}
	f, err := cueyaml.Extract(configFile, yamlBytes)
	if err != nil {
		return fmt.Errorf("cannot parse YAML config: %w", err)
	}
	configVal := ctx.BuildFile(f)
	if configVal.Err() != nil {
		return fmt.Errorf("cannot build YAML config: %w", configVal.Err())
	}

	schemaBytes, err := os.ReadFile(cueFile)
	if err != nil {
		return fmt.Errorf("cannot read CUE schema: %w", err)
	}
	schemaVal := ctx.CompileBytes(schemaBytes, cue.Filename(cueFile))
	if schemaVal.Err() != nil {
		return fmt.Errorf("cannot compile CUE schema: %w", schemaVal.Err())
	}
	def := schemaVal.LookupPath(cue.ParsePath(schemaRoot))
	if !def.Exists() {
		return fmt.Errorf("CUE schema %s has no %s definition", cueFile, schemaRoot)
	}

	final := def.Unify(configVal)
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// Validate checks invariants the schema cannot express.
func (c *SimulationConfig) Validate() error {
	var errs []error
	if len(c.Nodes) == 0 {
		errs = append(errs, errors.New("at least one node is required"))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval))
	}
	if c.ErrorBackoff < 0 {
		errs = append(errs, fmt.Errorf("error_backoff must not be negative, got %s", c.ErrorBackoff))
	}
	seen := make(map[string]string, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.Name == "" || n.IP == "" {
			errs = append(errs, fmt.Errorf("node %q: name and ip are required", n.Name))
			continue
		}
		if prev, ok := seen[n.IP]; ok {
			errs = append(errs, fmt.Errorf("node %q: ip %s already used by %q", n.Name, n.IP, prev))
		}
		seen[n.IP] = n.Name
		if !validCategory(n.Type) {
			errs = append(errs, fmt.Errorf("node %q: unknown type %q", n.Name, n.Type))
		}
	}
	for name, rate := range map[string]float64{
		"incident_rate": c.IncidentRate,
		"offline_rate":  c.OfflineRate,
		"security_rate": c.SecurityRate,
	} {
		if rate < 0 || rate > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %g", name, rate))
		}
	}
	for _, inc := range c.Incidents {
		if inc.Boost.Min > inc.Boost.Max {
			errs = append(errs, fmt.Errorf("incident %q: boost min exceeds max", inc.Name))
		}
	}
	return errors.Join(errs...)
}

func validCategory(c telemetry.Category) bool {
	for _, v := range telemetry.Categories {
		if v == c {
			return true
		}
	}
	return false
}
