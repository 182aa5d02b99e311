package cfg

import (
	"cmp"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	apperrors "github.com/lysyi3m/appcast-comb/app/errors"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Documents
	SourcePath  string `long:"source-path" env:"APPCAST_SOURCE_PATH" description:"Path to the source XML file (feed fragment of the current build)" required:"true"`
	TargetPath  string `long:"target-path" env:"APPCAST_TARGET_PATH" description:"Path to the target XML file (previously published appcast)" required:"true"`
	OutputPath  string `long:"output-path" env:"APPCAST_OUTPUT_PATH" description:"Where to write the merged appcast (defaults to the target path)"`
	ProfilePath string `long:"profile" env:"APPCAST_PROFILE" description:"YAML file overriding the Sparkle element profile"`

	// Run behaviour
	DryRun     bool `long:"dry-run" env:"DRY_RUN" description:"Print the merged appcast to stdout instead of writing it"`
	SkipVerify bool `long:"skip-verify" env:"SKIP_VERIFY" description:"Skip re-parsing the rendered appcast before publishing"`

	// Application metadata
	Debug   bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	Version bool `long:"version" description:"Print version and exit"`
}

var globalCfg *Cfg

// Load parses args (without the program name) and environment variables.
// It returns nil, nil when help or the version was printed.
func Load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "appcast-comb"
	parser.Usage = "--source-path <fragment.xml> --target-path <appcast.xml> [OPTIONS]"

	rest, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				fmt.Fprintln(os.Stdout, flagsErr.Message)
				return nil, nil
			}
		}
		return nil, apperrors.NewConfigurationError("", "failed to parse arguments", err)
	}

	if raw.Version {
		fmt.Fprintf(os.Stdout, "appcast-comb %s\n", GetVersion())
		return nil, nil
	}

	if len(rest) > 0 {
		return nil, apperrors.NewConfigurationError("", fmt.Sprintf("unexpected arguments: %v", rest), nil)
	}

	cfg := &Cfg{
		SourcePath:  raw.SourcePath,
		TargetPath:  raw.TargetPath,
		OutputPath:  raw.OutputPath,
		ProfilePath: raw.ProfilePath,
		DryRun:      raw.DryRun,
		SkipVerify:  raw.SkipVerify,
		Debug:       raw.Debug,
		Version:     GetVersion(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Validate checks that every referenced input exists before any document is touched.
func (c *Cfg) Validate() error {
	if err := requireFile("source-path", "Source XML", c.SourcePath); err != nil {
		return err
	}
	if err := requireFile("target-path", "Target XML", c.TargetPath); err != nil {
		return err
	}
	if c.ProfilePath != "" {
		if err := requireFile("profile", "Profile", c.ProfilePath); err != nil {
			return err
		}
	}
	return nil
}

func requireFile(field, name, path string) error {
	if path == "" {
		return apperrors.NewConfigurationError(field, "path is required", nil)
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return apperrors.NewConfigurationError(field, fmt.Sprintf("%s not found: %s", name, path),
			apperrors.NewNotFoundError(name, path))
	}
	if err != nil {
		return apperrors.NewConfigurationError(field, fmt.Sprintf("cannot access %s", path), err)
	}
	if info.IsDir() {
		return apperrors.NewConfigurationError(field, fmt.Sprintf("%s is a directory: %s", name, path), nil)
	}

	return nil
}
