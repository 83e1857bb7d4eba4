package source

import (
	"fmt"
	"os"
	"strings"

	volerrors "github.com/alexisbeaulieu97/volsource/pkg/errors"
)

// InputMode selects where a load reads from.
type InputMode string

const (
	// ModeFile loads one dataset from a single file.
	ModeFile InputMode = "file"
	// ModeFolder loads every matching dataset in a directory.
	ModeFolder InputMode = "folder"
)

// ParseInputMode converts a configuration string into an InputMode.
func ParseInputMode(raw string) (InputMode, error) {
	switch InputMode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeFile:
		return ModeFile, nil
	case ModeFolder:
		return ModeFolder, nil
	default:
		return "", volerrors.NewConfigurationError("input.mode", fmt.Sprintf("unknown mode %q", raw), nil)
	}
}

// Input is the configured load target. It is one of SingleFile or Folder.
type Input interface {
	Mode() InputMode
	Path() string
	isInput()
}

// SingleFile loads one file.
type SingleFile struct {
	File string
}

// Mode implements Input.
func (SingleFile) Mode() InputMode { return ModeFile }

// Path implements Input.
func (s SingleFile) Path() string { return s.File }

func (SingleFile) isInput() {}

// Folder loads every entry of Dir matching Filter. An empty Filter selects the
// source's active filter.
type Folder struct {
	Dir    string
	Filter string
}

// Mode implements Input.
func (Folder) Mode() InputMode { return ModeFolder }

// Path implements Input.
func (f Folder) Path() string { return f.Dir }

func (Folder) isInput() {}

// NewInput builds an Input from the flat configuration fields. Only the field
// belonging to mode is consulted.
func NewInput(mode InputMode, file, folder, filter string) (Input, error) {
	switch mode {
	case ModeFile:
		return SingleFile{File: file}, nil
	case ModeFolder:
		return Folder{Dir: folder, Filter: filter}, nil
	default:
		return nil, volerrors.NewConfigurationError("input.mode", fmt.Sprintf("unknown mode %q", mode), nil)
	}
}

// Resolve returns the effective path of in, checking that it exists and has
// the kind the mode expects.
func Resolve(in Input) (string, error) {
	if in == nil {
		return "", volerrors.NewConfigurationError("input", "no input configured", nil)
	}

	field := "input." + string(in.Mode())
	path := in.Path()
	if strings.TrimSpace(path) == "" {
		return "", volerrors.NewConfigurationError(field, "path is empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", volerrors.NewConfigurationError(field, fmt.Sprintf("%s does not exist", path), err)
		}
		return "", volerrors.NewConfigurationError(field, fmt.Sprintf("cannot stat %s", path), err)
	}

	switch in.Mode() {
	case ModeFile:
		if info.IsDir() {
			return "", volerrors.NewConfigurationError(field, fmt.Sprintf("%s is a directory", path), nil)
		}
	case ModeFolder:
		if !info.IsDir() {
			return "", volerrors.NewConfigurationError(field, fmt.Sprintf("%s is not a directory", path), nil)
		}
	}
	return path, nil
}
