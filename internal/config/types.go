package config

// Config is the volsource configuration file.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Load    LoadConfig    `yaml:"load"`
	Logging LoggingConfig `yaml:"logging"`
	State   StateConfig   `yaml:"state"`
}

// InputConfig selects what to load. Only the path belonging to Mode is used.
type InputConfig struct {
	Mode   string `yaml:"mode,omitempty" validate:"omitempty,input_mode"`
	File   string `yaml:"file,omitempty"`
	Folder string `yaml:"folder,omitempty"`
	Filter string `yaml:"filter,omitempty" validate:"omitempty,file_pattern"`
}

// LoadConfig tunes load jobs.
type LoadConfig struct {
	FailurePolicy string `yaml:"failure_policy" validate:"failure_policy"`
	MirrorRanges  bool   `yaml:"mirror_ranges"`
	Workers       int    `yaml:"workers" validate:"min=1,max=32"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level         string `yaml:"level" validate:"oneof=debug info warn error"`
	HumanReadable bool   `yaml:"human_readable"`
}

// StateConfig points at the session file used to persist metadata edits.
type StateConfig struct {
	Path string `yaml:"path,omitempty"`
	Name string `yaml:"name,omitempty" validate:"omitempty,max=64,excludesall=/\\"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Load: LoadConfig{
			FailurePolicy: "skip",
			Workers:       1,
		},
		Logging: LoggingConfig{
			Level:         "info",
			HumanReadable: true,
		},
		State: StateConfig{
			Name: "default",
		},
	}
}
