package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jakoblorz/go-gbuild/internal/filesystem"
	"github.com/jakoblorz/go-gbuild/internal/models"
)

// EnvPrefix prefixes environment variable overrides, e.g. GBUILD_STARTING_VERSION
const EnvPrefix = "GBUILD"

// Path returns the configuration file path for a repository root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// newViperInstance creates a Viper instance with defaults and GBUILD_ environment overrides
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	d := Defaults()

	v.SetDefault("starting-version", d.StartingVersion)
	v.SetDefault("source-code-root", d.SourceCodeRoot)
	v.SetDefault("issue-id-regex", d.IssueIDRegex)
	v.SetDefault("branching-model", d.BranchingModel)
	v.SetDefault("repository-backend", string(d.RepositoryBackend))
	v.SetDefault("commit-conventions.breaking-markers", d.CommitConventions.BreakingMarkers)
	v.SetDefault("commit-conventions.feature-prefixes", d.CommitConventions.FeaturePrefixes)

	branches := make([]map[string]any, 0, len(d.Branches))
	for _, b := range d.Branches {
		branches = append(branches, map[string]any{
			"name":          b.Name,
			"parent-branch": b.ParentBranch,
			"tag":           b.Tag,
			"metadata":      b.Metadata,
			"increment":     string(b.Increment),
		})
	}
	v.SetDefault("branches", branches)
}

// viperDecoderOption adds the hooks needed for gbuild's custom types
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			stringToBumpTypeHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)
}

// stringToBumpTypeHookFunc normalises increments ("Patch" -> patch) and rejects unknown ones
func stringToBumpTypeHookFunc() mapstructure.DecodeHookFuncType {
	bumpType := reflect.TypeOf(models.BumpType(""))

	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != bumpType {
			return data, nil
		}

		s, _ := data.(string)
		if strings.TrimSpace(s) == "" {
			return models.BumpType(""), nil
		}
		return models.ParseBumpType(s)
	}
}

// Load reads build.yaml from the repository root. Configuration is resolved in
// the following order (highest precedence first):
//  1. Environment variables (GBUILD_* prefix)
//  2. build.yaml
//  3. Built-in defaults
//
// A missing file is not an error: the defaults are returned.
func Load(fsys filesystem.FileSystem, root string) (*ConfigurationFile, error) {
	v := newViperInstance()

	path := Path(root)
	data, err := fsys.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No build.yaml, defaults and environment only
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	default:
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	var cfg ConfigurationFile
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	return &cfg, nil
}

// Marshal renders a configuration as YAML with two-space indentation.
func Marshal(cfg *ConfigurationFile) ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	return buf.Bytes(), nil
}

// Write writes a configuration to build.yaml in the repository root.
// Returns ErrConfigExists if the file exists and overwrite is false.
func Write(fsys filesystem.FileSystem, root string, cfg *ConfigurationFile, overwrite bool) (string, error) {
	path := Path(root)
	if fsys.Exists(path) && !overwrite {
		return path, fmt.Errorf("%w: %s (use --overwrite to replace it)", ErrConfigExists, path)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return path, err
	}

	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return path, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}
