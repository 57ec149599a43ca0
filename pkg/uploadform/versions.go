package uploadform

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/bft-labs/formship/pkg/lifecycle"
	"github.com/bft-labs/formship/pkg/log"
	"github.com/bft-labs/formship/pkg/page"
	"github.com/bft-labs/formship/pkg/transport"
)

type moduleVersion struct {
	version    string
	minVersion string
}

var modules = map[string]moduleVersion{
	"log":       {log.Version, log.MinCompatibleVersion},
	"lifecycle": {lifecycle.Version, lifecycle.MinCompatibleVersion},
	"page":      {page.Version, page.MinCompatibleVersion},
	"transport": {transport.Version, transport.MinCompatibleVersion},
}

// validateModuleVersions checks that all module versions are compatible.
// Returns an error if any module version is below its minimum compatible version.
func validateModuleVersions() error {
	for name, m := range modules {
		ok, err := isVersionCompatible(m.version, m.minVersion)
		if err != nil {
			return fmt.Errorf("module %s: %w", name, err)
		}
		if !ok {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}
	return nil
}

// isVersionCompatible reports whether version >= minVersion.
func isVersionCompatible(version, minVersion string) (bool, error) {
	c, err := semver.NewConstraint(">= " + minVersion)
	if err != nil {
		return false, fmt.Errorf("parse minimum version %q: %w", minVersion, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("parse version %q: %w", version, err)
	}
	return c.Check(v), nil
}
