package uncertainty

import (
	"fmt"
	"sort"
	"strings"

	"gouq/internal/distribution"
	apperrors "gouq/internal/errors"
)

// ResolveUncertainParameters returns the ordered names the analysis runs
// over. With a joint distribution on the parameter set every parameter must
// take part, and the set order is returned whatever order was requested, so
// node rows always match the joint's axes. Otherwise nil means every
// parameter with a marginal.
func (c *Calculations) ResolveUncertainParameters(uncertain []string) ([]string, error) {
	if dup, ok := duplicateName(uncertain); ok {
		return nil, apperrors.ConfigInvalid(fmt.Sprintf("uncertain parameter %s is listed more than once", dup))
	}
	if c.parameters.Joint() != nil {
		all := c.parameters.Names()
		if uncertain != nil && !sameNames(uncertain, all) {
			return nil, apperrors.ConfigInvalid(fmt.Sprintf(
				"a common multivariate distribution is given, and all uncertain parameters must be used: got [%s], want [%s]",
				strings.Join(uncertain, ", "), strings.Join(all, ", ")))
		}
		return all, nil
	}
	if uncertain == nil {
		uncertain = c.parameters.UncertainNames()
	}
	if len(uncertain) == 0 {
		return nil, apperrors.ConfigInvalid("no uncertain parameters")
	}
	return append([]string(nil), uncertain...), nil
}

// CreateDistribution builds the joint input distribution of the analysis.
// The parameter set's joint distribution is returned unchanged when present;
// otherwise the named marginals are composed independently in order.
func (c *Calculations) CreateDistribution(uncertain []string) (distribution.Distribution, error) {
	names, err := c.ResolveUncertainParameters(uncertain)
	if err != nil {
		return nil, err
	}
	if joint := c.parameters.Joint(); joint != nil {
		return joint, nil
	}
	marginals, err := c.parameters.Marginals(names)
	if err != nil {
		return nil, apperrors.ConfigInvalidCause(err, "cannot build distribution")
	}
	return distribution.J(marginals...), nil
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func duplicateName(names []string) (string, bool) {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return n, true
		}
		seen[n] = struct{}{}
	}
	return "", false
}
