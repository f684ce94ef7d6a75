package sources

// Config describes one content source, loaded from a YAML file in the
// sources directory. The source name is derived from the filename.
type Config struct {
	Name   string `yaml:"-"`
	Source struct {
		URL      string `yaml:"url"`
		Category string `yaml:"category"`
	} `yaml:"source"`
	Settings struct {
		Enabled         bool `yaml:"enabled"`
		MaxItems        int  `yaml:"max_items"`
		RefreshInterval int  `yaml:"refresh_interval"`
		Timeout         int  `yaml:"timeout"`
	} `yaml:"settings"`
}
