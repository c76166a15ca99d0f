package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// Settings is the effective configuration: defaults, then the user config,
// then the project file, then environment variables. Later layers win for
// every field they set.
type Settings struct {
	ProjectDir         string
	PackageDirectories []string
	DefaultPackagePath string
	SourceAPIVersion   string
	Replacements       []ReplacementRule

	OrgAPIVersion string
	InstanceURL   string
	AccessToken   string

	DeploySizeThreshold        int
	MDAPITempDir               string
	PollErrorRetryLimit        int
	ApplyReplacementsOnConvert bool
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Settings {
	return Settings{
		DeploySizeThreshold: sfmeta.DefaultDeploySizeThreshold,
		PollErrorRetryLimit: sfmeta.DefaultPollErrorRetryLimit,
	}
}

// LoadOptions controls where Resolve looks.
type LoadOptions struct {
	// ProjectDir holds sfdx-project.json. Empty skips the project layer.
	ProjectDir string
	// UserDir holds config.json. Empty means UserConfigDir(Getenv).
	UserDir string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Resolve builds the effective settings. Missing config files are skipped;
// malformed files and invalid environment values are errors.
func Resolve(opts LoadOptions) (*Settings, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	settings := Defaults()

	userDir := opts.UserDir
	if userDir == "" {
		userDir = UserConfigDir(getenv)
	}
	if userDir != "" {
		user, err := LoadUser(userDir)
		switch {
		case errors.Is(err, ErrConfigNotFound):
		case err != nil:
			return nil, err
		default:
			if err := merge(&settings, userLayer(user)); err != nil {
				return nil, err
			}
		}
	}

	if opts.ProjectDir != "" {
		project, err := Load(opts.ProjectDir)
		switch {
		case errors.Is(err, ErrConfigNotFound):
		case err != nil:
			return nil, err
		default:
			if err := project.Validate(); err != nil {
				return nil, err
			}
			if err := merge(&settings, projectLayer(project)); err != nil {
				return nil, err
			}
		}
		settings.ProjectDir = opts.ProjectDir
	}

	env, err := envLayer(getenv)
	if err != nil {
		return nil, err
	}
	if err := merge(&settings, env); err != nil {
		return nil, err
	}
	return &settings, nil
}

func merge(dst *Settings, layer Settings) error {
	if err := mergo.Merge(dst, layer, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge settings: %w", err)
	}
	return nil
}

func userLayer(u *UserConfig) Settings {
	return Settings{OrgAPIVersion: u.OrgAPIVersion, InstanceURL: u.OrgInstanceURL}
}

func projectLayer(p *ProjectConfig) Settings {
	return Settings{
		PackageDirectories: p.PackagePaths(),
		DefaultPackagePath: p.DefaultPackageDirectory(),
		SourceAPIVersion:   p.SourceAPIVersion,
		Replacements:       p.Replacements,
	}
}

func envLayer(getenv func(string) string) (Settings, error) {
	layer := Settings{
		OrgAPIVersion: getenv(sfmeta.EnvOrgAPIVersion),
		InstanceURL:   getenv(sfmeta.EnvInstanceURL),
		AccessToken:   getenv(sfmeta.EnvAccessToken),
		MDAPITempDir:  getenv(sfmeta.EnvMDAPITempDir),

		ApplyReplacementsOnConvert: strings.EqualFold(getenv(sfmeta.EnvApplyReplacementsOnConv), "true"),
	}

	var errs []error
	if v := getenv(sfmeta.EnvDeploySizeThreshold); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be a non-negative integer, got %q",
				sfmeta.ErrInvalidConfig, sfmeta.EnvDeploySizeThreshold, v))
		}
		layer.DeploySizeThreshold = n
	}
	if v := getenv(sfmeta.EnvPollErrorRetryLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be a non-negative integer, got %q",
				sfmeta.ErrInvalidConfig, sfmeta.EnvPollErrorRetryLimit, v))
		}
		layer.PollErrorRetryLimit = n
	}
	return layer, errors.Join(errs...)
}

// DeploySizeWarningEnabled reports whether the size threshold applies.
// Thresholds of 100 percent or more disable the warning.
func (s *Settings) DeploySizeWarningEnabled() bool {
	return s.DeploySizeThreshold > 0 && s.DeploySizeThreshold < 100
}
