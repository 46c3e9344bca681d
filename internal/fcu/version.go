package fcu

import (
	"fmt"

	"github.com/Masterminds/semver"
)

// CheckVersion reports whether reported satisfies constraint, so
// startup can fail hard on an incompatible or missing FCU driver
// rather than limp along. "DEV" is always accepted, as an escape hatch
// for local builds without a real driver.
func CheckVersion(reported, constraint string) error {
	if reported == "DEV" {
		return nil
	}

	v, err := semver.NewVersion(reported)
	if err != nil {
		return fmt.Errorf("fcu driver reported an unparseable version %q: %w", reported, err)
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid fcu driver version constraint %q: %w", constraint, err)
	}

	if !c.Check(v) {
		return fmt.Errorf("unable to use fcu driver: received version %s, require %s", reported, constraint)
	}

	return nil
}
