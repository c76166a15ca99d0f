package params

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ParseKeyValuePairs converts "KEY=value" strings into a map. Later
// duplicates win.
//
//	vars, err := ParseKeyValuePairs([]string{"API_HOST=uat.example.com"})
func ParseKeyValuePairs(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("variable %q is not in KEY=value format (example: --env API_HOST=uat.example.com)", pair)
		}
		if key == "" {
			return nil, fmt.Errorf("variable has empty key: %q", pair)
		}
		result[key] = value
	}

	return result, nil
}

// ReadEnvFiles reads .env files in order and merges them.
func ReadEnvFiles(paths ...string) (map[string]string, error) {
	result := make(map[string]string)
	for _, p := range paths {
		vars, err := godotenv.Read(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", p, err)
		}
		maps.Copy(result, vars)
	}
	return result, nil
}

// Collect builds the variable set for one run from --env-file paths and
// --env pairs. Pairs take precedence over files.
func Collect(files, pairs []string) (map[string]string, error) {
	vars, err := ReadEnvFiles(files...)
	if err != nil {
		return nil, err
	}
	explicit, err := ParseKeyValuePairs(pairs)
	if err != nil {
		return nil, err
	}
	maps.Copy(vars, explicit)
	return vars, nil
}

// Lookup returns an os.LookupEnv replacement that consults vars first and
// falls back to fallback (os.LookupEnv when nil).
func Lookup(vars map[string]string, fallback func(string) (string, bool)) func(string) (string, bool) {
	if fallback == nil {
		fallback = os.LookupEnv
	}
	return func(key string) (string, bool) {
		if v, ok := vars[key]; ok {
			return v, true
		}
		return fallback(key)
	}
}
