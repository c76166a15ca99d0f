package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

var versionPattern = regexp.MustCompile(`^\d+\.0$`)

// ValidationResult contains the outcome of manifest validation.
// If Valid is false, Errors contains human-readable error messages.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// AddError appends an error message to the validation result and marks it as invalid.
func (v *ValidationResult) AddError(format string, args ...interface{}) {
	v.Valid = false
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// ErrorString returns all validation errors joined with semicolons.
func (v *ValidationResult) ErrorString() string {
	return strings.Join(v.Errors, "; ")
}

// Err returns nil for a valid result, otherwise an error wrapping
// sfmeta.ErrInvalidConfig.
func (v *ValidationResult) Err(filePath string) error {
	if v.Valid {
		return nil
	}
	return fmt.Errorf("%w: invalid manifest %s: %s", sfmeta.ErrInvalidConfig, filePath, v.ErrorString())
}

// Validate checks structural rules: a well-formed version, named types
// accepted by known (when non-nil), and non-blank members.
func Validate(pkg *sfmeta.Package, known func(typeName string) bool) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}

	if pkg.Version != "" && !versionPattern.MatchString(pkg.Version) {
		result.AddError("version %q must look like \"60.0\"", pkg.Version)
	}

	seen := make(map[string]bool)
	for i, t := range pkg.Types {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			result.AddError("types[%d] has no name element", i)
			continue
		}
		if seen[name] {
			result.AddError("type %s is listed more than once", name)
		}
		seen[name] = true

		if known != nil && !known(name) {
			result.AddError("type %s is not a known metadata type", name)
		}
		for j, m := range t.Members {
			if strings.TrimSpace(m) == "" {
				result.AddError("types[%d] (%s) members[%d] cannot be empty or whitespace-only", i, name, j)
			}
		}
	}

	return result
}
