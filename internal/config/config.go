package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

const (
	ProjectFileName    = "sfdx-project.json"
	UserConfigFileName = "config.json"
	userConfigDirName  = ".sf"
)

// PackageDirectory is one entry of packageDirectories.
type PackageDirectory struct {
	Path    string `yaml:"path"`
	Default bool   `yaml:"default,omitempty"`
}

// EnvCondition gates a replacement on an environment variable value.
type EnvCondition struct {
	Env   string `yaml:"env"`
	Value string `yaml:"value"`
}

// ReplacementRule rewrites text in matching files when they are converted
// to metadata format. Filename and Glob are relative to the project
// directory; exactly one of StringToReplace or RegexToReplace is set, and
// exactly one of ReplaceWithEnv or ReplaceWithFile.
type ReplacementRule struct {
	Filename        string         `yaml:"filename,omitempty"`
	Glob            string         `yaml:"glob,omitempty"`
	StringToReplace string         `yaml:"stringToReplace,omitempty"`
	RegexToReplace  string         `yaml:"regexToReplace,omitempty"`
	ReplaceWithEnv  string         `yaml:"replaceWithEnv,omitempty"`
	ReplaceWithFile string         `yaml:"replaceWithFile,omitempty"`
	ReplaceWhenEnv  []EnvCondition `yaml:"replaceWhenEnv,omitempty"`
}

// Validate checks that the rule is complete and unambiguous.
func (r ReplacementRule) Validate() error {
	var errs []error
	if (r.Filename == "") == (r.Glob == "") {
		errs = append(errs, errors.New("exactly one of filename or glob is required"))
	}
	if (r.StringToReplace == "") == (r.RegexToReplace == "") {
		errs = append(errs, errors.New("exactly one of stringToReplace or regexToReplace is required"))
	}
	if (r.ReplaceWithEnv == "") == (r.ReplaceWithFile == "") {
		errs = append(errs, errors.New("exactly one of replaceWithEnv or replaceWithFile is required"))
	}
	for _, c := range r.ReplaceWhenEnv {
		if c.Env == "" {
			errs = append(errs, errors.New("replaceWhenEnv entries need an env name"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: replacement: %w", sfmeta.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ProjectConfig is the subset of sfdx-project.json sfmeta reads.
type ProjectConfig struct {
	PackageDirectories []PackageDirectory `yaml:"packageDirectories"`
	SourceAPIVersion   string             `yaml:"sourceApiVersion,omitempty"`
	Namespace          string             `yaml:"namespace,omitempty"`
	Replacements       []ReplacementRule  `yaml:"replacements,omitempty"`
}

// DefaultPackageDirectory returns the path of the directory marked default,
// or the first one listed.
func (p *ProjectConfig) DefaultPackageDirectory() string {
	for _, d := range p.PackageDirectories {
		if d.Default {
			return d.Path
		}
	}
	if len(p.PackageDirectories) > 0 {
		return p.PackageDirectories[0].Path
	}
	return ""
}

// PackagePaths returns every package directory path.
func (p *ProjectConfig) PackagePaths() []string {
	out := make([]string, 0, len(p.PackageDirectories))
	for _, d := range p.PackageDirectories {
		out = append(out, d.Path)
	}
	return out
}

// Validate reports every problem with the project file at once.
func (p *ProjectConfig) Validate() error {
	var errs []error
	for i, d := range p.PackageDirectories {
		if strings.TrimSpace(d.Path) == "" {
			errs = append(errs, fmt.Errorf("%w: packageDirectories[%d] has no path", sfmeta.ErrInvalidConfig, i))
		}
	}
	for i, r := range p.Replacements {
		if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("replacements[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// UserConfig holds org-level settings from ~/.sf/config.json.
type UserConfig struct {
	OrgAPIVersion  string `yaml:"org-api-version,omitempty"`
	OrgInstanceURL string `yaml:"org-instance-url,omitempty"`
}

// Load reads sfdx-project.json from projectDir.
func Load(projectDir string) (*ProjectConfig, error) {
	var cfg ProjectConfig
	if err := readJSON(filepath.Join(projectDir, ProjectFileName), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadUser reads config.json from dir.
func LoadUser(dir string) (*UserConfig, error) {
	var cfg UserConfig
	if err := readJSON(filepath.Join(dir, UserConfigFileName), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UserConfigDir returns $SF_CONFIG_DIR, or ~/.sf.
func UserConfigDir(getenv func(string) string) string {
	if dir := getenv(sfmeta.EnvConfigDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, userConfigDirName)
}

// FindProjectDir walks up from start to the directory holding sfdx-project.json.
func FindProjectDir(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ProjectFileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}
		dir = parent
	}
}

// readJSON decodes a JSON document with the YAML decoder. JSON forbids raw
// tabs inside strings, so turning them into spaces only touches indentation.
func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigNotFound
		}
		return err
	}
	data = []byte(strings.ReplaceAll(string(data), "\t", "  "))
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %w", sfmeta.ErrInvalidConfig, path, err)
	}
	return nil
}
