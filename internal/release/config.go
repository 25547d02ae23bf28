// Package release drives the tcli release flow: guard the branch, create
// a draft prerelease on GitHub, and build, package, and upload one
// archive per target platform.
package release

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ConfigName is the default release configuration filename.
const ConfigName = "release.yaml"

// Config is the release configuration, read from release.yaml at the
// repository root.
type Config struct {
	// MainBranch is the only branch releases may run from.
	MainBranch string `yaml:"main_branch"`
	// Owner and Repo name the GitHub repository receiving the release.
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`

	Build   BuildConfig `yaml:"build"`
	Targets []Target    `yaml:"targets"`
}

// BuildConfig controls how the release binaries are compiled.
type BuildConfig struct {
	// Package is the main package to build.
	Package string `yaml:"package"`
	// BinaryName is the executable name inside each archive.
	BinaryName string `yaml:"binary_name"`
	// Ldflags are passed to the linker, typically to stamp the version.
	Ldflags string `yaml:"ldflags"`
	// OutDir receives the built binaries and archives.
	OutDir string `yaml:"out_dir"`
}

// Target is one platform the release builds for.
type Target struct {
	GOOS   string `yaml:"goos"`
	GOARCH string `yaml:"goarch"`
	// Triple labels the platform in asset names.
	Triple string `yaml:"triple"`
}

// DefaultTargets covers the platforms tcli ships for.
func DefaultTargets() []Target {
	return []Target{
		{GOOS: "linux", GOARCH: "amd64", Triple: "x86_64-unknown-linux-gnu"},
		{GOOS: "windows", GOARCH: "amd64", Triple: "x86_64-pc-windows-msvc"},
		{GOOS: "darwin", GOARCH: "amd64", Triple: "x86_64-apple-darwin"},
		{GOOS: "darwin", GOARCH: "arm64", Triple: "aarch64-apple-darwin"},
	}
}

// LoadConfig reads the release configuration and fills in defaults.
func LoadConfig(path string) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading release config %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing release config %s", path)
	}
	cfg.applyDefaults()

	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, errors.New("release config must set owner and repo")
	}
	for _, target := range cfg.Targets {
		if target.GOOS == "" || target.GOARCH == "" || target.Triple == "" {
			return nil, errors.Errorf("release target %+v must set goos, goarch, and triple", target)
		}
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MainBranch == "" {
		c.MainBranch = "main"
	}
	if c.Build.Package == "" {
		c.Build.Package = "./cmd/tcli"
	}
	if c.Build.BinaryName == "" {
		c.Build.BinaryName = "tcli"
	}
	if c.Build.OutDir == "" {
		c.Build.OutDir = "dist/release"
	}
	if len(c.Targets) == 0 {
		c.Targets = DefaultTargets()
	}
}
