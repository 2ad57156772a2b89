package config

// File represents the structure of the .sitelint configuration file.
// Every field is optional; unset fields keep the flag value.
type File struct {
	// Origin is the canonical origin of the site.
	Origin string `yaml:"origin,omitempty"`

	// Dir is the site output directory.
	Dir string `yaml:"dir,omitempty"`

	// PageConfig is the path of the page config JSON file.
	PageConfig string `yaml:"pageConfig,omitempty"`

	// Output is the path of the JSON report file.
	Output string `yaml:"output,omitempty"`

	// Strict enables strict mode. A pointer so that "false" can be told
	// apart from an absent key.
	Strict *bool `yaml:"strict,omitempty"`

	// AMPIndexPage is the page allowed to declare an AMP canonical URL.
	AMPIndexPage string `yaml:"ampIndexPage,omitempty"`

	// ExcludeDirs are added to the default directory deny-list.
	ExcludeDirs []string `yaml:"excludeDirs,omitempty"`

	// TopOffenders is the length of the top offending files ranking.
	TopOffenders *int `yaml:"topOffenders,omitempty"`

	// Batch is the number of files processed concurrently.
	Batch int `yaml:"batch,omitempty"`
}

// Flag names that a File value can be overridden by.
const (
	FlagDir          = "dir"
	FlagOutput       = "output"
	FlagPageConfig   = "page-config"
	FlagOrigin       = "origin"
	FlagAMPIndexPage = "amp-index"
	FlagBatch        = "batch"
	FlagStrict       = "strict"
)

// Apply copies the values set in the file into c. A value is skipped when
// flagChanged reports that the matching CLI flag was given explicitly, so
// flags always win over the file. A nil flagChanged applies everything.
func (f *File) Apply(c *Config, flagChanged func(name string) bool) {
	if f == nil {
		return
	}
	if flagChanged == nil {
		flagChanged = func(string) bool { return false }
	}

	if f.Dir != "" && !flagChanged(FlagDir) {
		c.Dir = f.Dir
	}
	if f.Output != "" && !flagChanged(FlagOutput) {
		c.Output = f.Output
	}
	if f.PageConfig != "" && !flagChanged(FlagPageConfig) {
		c.PageConfig = f.PageConfig
	}
	if f.Origin != "" && !flagChanged(FlagOrigin) {
		c.Origin = f.Origin
	}
	if f.AMPIndexPage != "" && !flagChanged(FlagAMPIndexPage) {
		c.AMPIndexPage = f.AMPIndexPage
	}
	if f.Batch != 0 && !flagChanged(FlagBatch) {
		c.BatchSize = f.Batch
	}
	if f.Strict != nil && !flagChanged(FlagStrict) {
		c.Strict = *f.Strict
	}

	// No flag exists for these two.
	if len(f.ExcludeDirs) > 0 {
		c.ExcludeDirs = append([]string(nil), f.ExcludeDirs...)
	}
	if f.TopOffenders != nil {
		c.TopOffenders = *f.TopOffenders
	}
}
