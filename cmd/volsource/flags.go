package main

import (
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/volsource/internal/config"
)

// inputFlags are the input selectors shared by load and watch.
type inputFlags struct {
	File   string
	Folder string
	Filter string
}

func validateInputFlags(in inputFlags) error {
	if strings.TrimSpace(in.File) != "" && strings.TrimSpace(in.Folder) != "" {
		return fmt.Errorf("--file and --folder are mutually exclusive")
	}
	if strings.TrimSpace(in.Filter) != "" && strings.TrimSpace(in.File) != "" {
		return fmt.Errorf("--filter only applies to --folder")
	}
	return nil
}

// applyInputFlags overrides the configured input with the flags that were set.
func applyInputFlags(cfg *config.Config, in inputFlags) {
	switch {
	case strings.TrimSpace(in.File) != "":
		cfg.Input.Mode = "file"
		cfg.Input.File = in.File
	case strings.TrimSpace(in.Folder) != "":
		cfg.Input.Mode = "folder"
		cfg.Input.Folder = in.Folder
	}
	if strings.TrimSpace(in.Filter) != "" {
		cfg.Input.Filter = in.Filter
	}
}
