package uncertainty

import (
	"fmt"
	"strings"

	"gouq/domain/core"
	apperrors "gouq/internal/errors"
)

// Method selects how the polynomial chaos expansion is constructed.
type Method int

const (
	// MethodCollocation fits the expansion by regression on sampled nodes.
	MethodCollocation Method = iota
	// MethodSpectral projects onto the basis with sparse-grid quadrature.
	MethodSpectral
	// MethodCustom is reserved for user supplied constructions.
	MethodCustom
)

func (m Method) String() string {
	switch m {
	case MethodCollocation:
		return "collocation"
	case MethodSpectral:
		return "spectral"
	case MethodCustom:
		return "custom"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod maps a method name to its Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "collocation", "":
		return MethodCollocation, nil
	case "spectral":
		return MethodSpectral, nil
	case "custom":
		return MethodCustom, nil
	}
	return 0, apperrors.ConfigInvalidCause(
		fmt.Errorf("%w: %q", core.ErrUnknownMethod, s),
		fmt.Sprintf("no polynomial chaos method with name %s", s))
}

func errUnknownMethod(m Method) error {
	return fmt.Errorf("%w: %s", core.ErrUnknownMethod, m)
}
