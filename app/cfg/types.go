package cfg

type Cfg struct {
	// Documents
	SourcePath  string
	TargetPath  string
	OutputPath  string
	ProfilePath string

	// Run behaviour
	DryRun     bool
	SkipVerify bool

	// Application metadata
	Debug   bool
	Version string
}

// Output returns the path the merged document is published to.
func (c *Cfg) Output() string {
	if c.OutputPath != "" {
		return c.OutputPath
	}
	return c.TargetPath
}
