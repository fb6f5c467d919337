// Package validators provides validation functions for console entities.
package validators

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// maxDeploymentNameLength matches the Kubernetes limit for DNS label
	// names used for Deployments and Services.
	maxDeploymentNameLength = 63
)

// DNS label pattern: lowercase alphanumeric, hyphens in the middle.
var deploymentNamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ValidateDeploymentName validates a name for a server deployment. The name
// becomes a Kubernetes Deployment and Service name, so it must be a valid
// RFC 1123 DNS label.
// Returns the validated name (trimmed) and an error if validation fails.
//
// Examples of valid names:
//   - fetch
//   - github-mcp
//   - team2-fetch
//
// Examples of invalid names:
//   - Fetch (uppercase)
//   - -fetch (starts with hyphen)
//   - my_server (underscore)
func ValidateDeploymentName(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", fmt.Errorf("deployment name cannot be empty")
	}

	if len(name) > maxDeploymentNameLength {
		return "", fmt.Errorf("deployment name exceeds maximum length of %d characters", maxDeploymentNameLength)
	}

	if !deploymentNamePattern.MatchString(name) {
		return "", fmt.Errorf(
			"deployment name '%s' is invalid. Name must consist of lowercase alphanumeric characters "+
				"or hyphens, and must start and end with an alphanumeric character",
			name,
		)
	}

	return name, nil
}

// IsValidDeploymentName checks if a deployment name is valid.
// This is a convenience wrapper around ValidateDeploymentName for boolean checks.
func IsValidDeploymentName(name string) bool {
	_, err := ValidateDeploymentName(name)
	return err == nil
}

// ValidateEnvVarName validates an environment variable name supplied on
// deploy. Names follow the POSIX convention: uppercase letters, digits, and
// underscores, not starting with a digit.
func ValidateEnvVarName(name string) error {
	if name == "" {
		return fmt.Errorf("environment variable name cannot be empty")
	}
	if !envVarNamePattern.MatchString(name) {
		return fmt.Errorf(
			"environment variable name '%s' is invalid. Name must consist of uppercase letters, "+
				"digits, and underscores, and must not start with a digit",
			name,
		)
	}
	return nil
}

var envVarNamePattern = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)
