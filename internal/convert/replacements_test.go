package convert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sfmeta/internal/config"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

func replacementFixture() map[string]string {
	return map[string]string{
		"classes/Api.cls":          "public class Api { String host = 'REPLACE_HOST'; String v = 'v1'; }\n",
		"classes/Api.cls-meta.xml": classMeta,
		"classes/Foo.cls":          "public class Foo { String host = 'REPLACE_HOST'; }\n",
		"classes/Foo.cls-meta.xml": classMeta,
	}
}

func envLookup(env map[string]string) Option {
	return WithLookupEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
}

func TestReplacements_AppliedToZip(t *testing.T) {
	tree := newTree(replacementFixture(), defaultDir)
	rules := []config.ReplacementRule{
		{Filename: "force-app/main/default/classes/Api.cls", StringToReplace: "REPLACE_HOST", ReplaceWithEnv: "API_HOST"},
		{Glob: "**/classes/*.cls", RegexToReplace: `'v[0-9]+'`, ReplaceWithEnv: "API_VERSION"},
	}
	cv := newConverter(tree,
		WithReplacements(projectDir, rules),
		envLookup(map[string]string{"API_HOST": "api.example.com", "API_VERSION": "'v2'"}),
	)

	res, err := cv.Convert(context.Background(), resolveSet(t, tree, defaultDir), FormatMetadata, OutputConfig{Type: OutputZip})
	require.NoError(t, err)

	entries := unzip(t, res.ZipBuffer)
	assert.Equal(t, "public class Api { String host = 'api.example.com'; String v = 'v2'; }\n", entries["classes/Api.cls"])
	assert.Equal(t, "public class Foo { String host = 'REPLACE_HOST'; }\n", entries["classes/Foo.cls"], "filename rule only matches Api.cls")
	assert.Equal(t, replacementFixture()["classes/Api.cls"], readTree(t, tree, defaultDir+"/classes/Api.cls"), "source is untouched")
}

func TestReplacements_DirectoryNeedsFlag(t *testing.T) {
	rules := []config.ReplacementRule{
		{Glob: "**/*.cls", StringToReplace: "REPLACE_HOST", ReplaceWithEnv: "API_HOST"},
	}
	out := OutputConfig{Type: OutputDirectory, OutputDirectory: "/out", PackageName: "mdapi"}

	tree := newTree(replacementFixture(), defaultDir)
	_, err := newConverter(tree, WithReplacements(projectDir, rules), envLookup(map[string]string{"API_HOST": "h"})).
		Convert(context.Background(), resolveSet(t, tree, defaultDir), FormatMetadata, out)
	require.NoError(t, err)
	assert.Contains(t, readTree(t, tree, "/out/mdapi/classes/Foo.cls"), "REPLACE_HOST")

	tree = newTree(replacementFixture(), defaultDir)
	env := map[string]string{"API_HOST": "h", sfmeta.EnvApplyReplacementsOnConv: "true"}
	_, err = newConverter(tree, WithReplacements(projectDir, rules), envLookup(env)).
		Convert(context.Background(), resolveSet(t, tree, defaultDir), FormatMetadata, out)
	require.NoError(t, err)
	assert.Equal(t, "public class Foo { String host = 'h'; }\n", readTree(t, tree, "/out/mdapi/classes/Foo.cls"))
}

func TestReplacements_MissingEnvFails(t *testing.T) {
	tree := newTree(replacementFixture(), defaultDir)
	rules := []config.ReplacementRule{
		{Glob: "**/*.cls", StringToReplace: "REPLACE_HOST", ReplaceWithEnv: "API_HOST"},
	}
	_, err := newConverter(tree, WithReplacements(projectDir, rules)).
		Convert(context.Background(), resolveSet(t, tree, defaultDir), FormatMetadata, OutputConfig{Type: OutputZip})
	require.Error(t, err)
	assert.ErrorIs(t, err, sfmeta.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "API_HOST")
}

func TestReplacements_ConditionNotMet(t *testing.T) {
	tree := newTree(replacementFixture(), defaultDir)
	rules := []config.ReplacementRule{{
		Glob:            "**/*.cls",
		StringToReplace: "REPLACE_HOST",
		ReplaceWithEnv:  "API_HOST",
		ReplaceWhenEnv:  []config.EnvCondition{{Env: "DEPLOY_TARGET", Value: "prod"}},
	}}
	env := map[string]string{"DEPLOY_TARGET": "dev"}

	res, err := newConverter(tree, WithReplacements(projectDir, rules), envLookup(env)).
		Convert(context.Background(), resolveSet(t, tree, defaultDir), FormatMetadata, OutputConfig{Type: OutputZip})
	require.NoError(t, err, "a skipped rule does not need its variable")
	assert.Contains(t, unzip(t, res.ZipBuffer)["classes/Foo.cls"], "REPLACE_HOST")
}

func TestReplacements_NotAppliedToSource(t *testing.T) {
	tree := newTree(replacementFixture(), defaultDir)
	rules := []config.ReplacementRule{
		{Glob: "**/*.cls", StringToReplace: "REPLACE_HOST", ReplaceWithEnv: "API_HOST"},
	}
	_, err := newConverter(tree, WithReplacements(projectDir, rules)).
		Convert(context.Background(), resolveSet(t, tree, defaultDir), FormatSource, OutputConfig{
			Type: OutputDirectory, OutputDirectory: "/out", PackageName: "src",
		})
	require.NoError(t, err, "variables are not resolved for source output")
	assert.Contains(t, readTree(t, tree, "/out/src/classes/Foo.cls"), "REPLACE_HOST")
}
