package lens

import (
	"errors"
	"fmt"
	"strings"
)

// Model identifies how the lens maps an incidence angle onto the sensor plane.
type Model int

const (
	// Thin is the rectilinear pinhole mapping r = f·tan(θ).
	Thin Model = iota
	// Stereographic maps r = 2f·tan(θ/2).
	Stereographic
	// EquiAngle is the equidistant fisheye mapping r = f·θ.
	EquiAngle
	// EquiSolidAngle maps r = 2f·sin(θ/2).
	EquiSolidAngle
	// Orthogonal maps r = f·sin(θ).
	Orthogonal
	// Custom delegates the mapping to a caller-supplied Conjugation.
	Custom
)

var modelNames = map[Model]string{
	Thin:           "thin",
	Stereographic:  "stereographic",
	EquiAngle:      "equi_angle",
	EquiSolidAngle: "equi_solid_angle",
	Orthogonal:     "orthogonal",
	Custom:         "custom",
}

// Models lists every supported model in declaration order.
func Models() []Model {
	return []Model{Thin, Stereographic, EquiAngle, EquiSolidAngle, Orthogonal, Custom}
}

func (m Model) String() string {
	if name, ok := modelNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Model(%d)", int(m))
}

// ParseModel resolves a model tag such as "equi_solid_angle". Hyphens and
// case are ignored.
func ParseModel(s string) (Model, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for m, name := range modelNames {
		if name == key {
			return m, nil
		}
	}
	return 0, &UnsupportedProjectionError{Name: s}
}

// UnsupportedProjectionError reports a lens model tag the projector cannot
// evaluate.
type UnsupportedProjectionError struct {
	Name string
}

func (e *UnsupportedProjectionError) Error() string {
	return fmt.Sprintf("unsupported lens projection %q (valid: thin, stereographic, equi_angle, equi_solid_angle, orthogonal, custom)", e.Name)
}

// ErrMissingConjugation is returned when the Custom model is selected
// without a Conjugation.
var ErrMissingConjugation = errors.New("custom lens model requires a conjugation")
