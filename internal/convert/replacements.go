package convert

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/moby/patternmatcher"
	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/config"
	"github.com/vvka-141/sfmeta/internal/files/filesystem"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

type compiledRule struct {
	match       func(rel string) bool
	replacement components.Replacement
}

// replacer marks component files that configured replacement rules apply to.
type replacer struct {
	projectDir string
	rules      []compiledRule
}

// compileReplacements resolves rule values up front so a missing variable
// or file fails the conversion before anything is written. Rules whose
// replaceWhenEnv conditions do not hold are dropped.
func compileReplacements(rules []config.ReplacementRule, projectDir string, tree filesystem.TreeContainer, lookupEnv func(string) (string, bool)) (*replacer, error) {
	r := &replacer{projectDir: projectDir}
	for _, rule := range rules {
		if !conditionsHold(rule.ReplaceWhenEnv, lookupEnv) {
			continue
		}
		if err := rule.Validate(); err != nil {
			return nil, err
		}

		var value string
		if rule.ReplaceWithEnv != "" {
			v, ok := lookupEnv(rule.ReplaceWithEnv)
			if !ok {
				return nil, fmt.Errorf("%w: replacement environment variable %s is not set",
					sfmeta.ErrInvalidConfig, rule.ReplaceWithEnv)
			}
			value = v
		} else {
			data, err := tree.ReadFile(r.abs(rule.ReplaceWithFile))
			if err != nil {
				return nil, fmt.Errorf("%w: replacement file: %w", sfmeta.ErrInvalidConfig, err)
			}
			value = string(data)
		}

		rep := components.Replacement{Literal: rule.StringToReplace, ReplaceWith: value}
		if rule.RegexToReplace != "" {
			re, err := regexp.Compile(rule.RegexToReplace)
			if err != nil {
				return nil, fmt.Errorf("%w: replacement regex %q: %w", sfmeta.ErrInvalidConfig, rule.RegexToReplace, err)
			}
			rep = components.Replacement{Regex: re, ReplaceWith: value}
		}

		match, err := ruleMatcher(rule)
		if err != nil {
			return nil, err
		}
		r.rules = append(r.rules, compiledRule{match: match, replacement: rep})
	}
	return r, nil
}

func conditionsHold(conds []config.EnvCondition, lookupEnv func(string) (string, bool)) bool {
	for _, c := range conds {
		if v, _ := lookupEnv(c.Env); v != c.Value {
			return false
		}
	}
	return true
}

func ruleMatcher(rule config.ReplacementRule) (func(string) bool, error) {
	if rule.Filename != "" {
		want := filepath.ToSlash(filepath.Clean(rule.Filename))
		return func(rel string) bool {
			return rel == want || strings.HasSuffix(rel, "/"+want)
		}, nil
	}
	pm, err := patternmatcher.New([]string{filepath.ToSlash(rule.Glob)})
	if err != nil {
		return nil, fmt.Errorf("%w: replacement glob %q: %w", sfmeta.ErrInvalidConfig, rule.Glob, err)
	}
	return func(rel string) bool {
		ok, err := pm.MatchesOrParentMatches(rel)
		return err == nil && ok
	}, nil
}

func (r *replacer) abs(p string) string {
	if filepath.IsAbs(p) || r.projectDir == "" {
		return p
	}
	return filepath.Join(r.projectDir, p)
}

func (r *replacer) rel(p string) string {
	if r.projectDir != "" {
		if rel, err := filepath.Rel(r.projectDir, p); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return strings.TrimPrefix(filepath.ToSlash(p), "/")
}

// mark records on c every replacement that would change one of its files.
func (r *replacer) mark(c *components.SourceComponent) error {
	if r == nil || len(r.rules) == 0 || c.Tree == nil {
		return nil
	}
	files, err := c.Files()
	if err != nil {
		return err
	}
	for _, f := range files {
		rel := r.rel(f)
		var data []byte
		var reps []components.Replacement
		for _, rule := range r.rules {
			if !rule.match(rel) {
				continue
			}
			if data == nil {
				if data, err = c.Tree.ReadFile(f); err != nil {
					return err
				}
			}
			if rule.replacement.Matches(data) {
				reps = append(reps, rule.replacement)
			}
		}
		if len(reps) == 0 {
			continue
		}
		if c.Replacements == nil {
			c.Replacements = make(map[string][]components.Replacement)
		}
		c.Replacements[f] = reps
	}
	return nil
}
