package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	volerrors "github.com/alexisbeaulieu97/volsource/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	inputModes      = map[string]struct{}{"file": {}, "folder": {}}
	failurePolicies = map[string]struct{}{"skip": {}, "abort": {}}
)

// validatorInstance configures and returns the shared validator instance.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("input_mode", func(fl validator.FieldLevel) bool {
			_, ok := inputModes[strings.ToLower(fl.Field().String())]
			return ok
		})

		_ = v.RegisterValidation("failure_policy", func(fl validator.FieldLevel) bool {
			_, ok := failurePolicies[strings.ToLower(fl.Field().String())]
			return ok
		})

		_ = v.RegisterValidation("file_pattern", func(fl validator.FieldLevel) bool {
			pattern := fl.Field().String()
			if strings.TrimSpace(pattern) == "" || strings.ContainsAny(pattern, `/\`) {
				return false
			}
			_, err := filepath.Match(pattern, "")
			return err == nil
		})

		validateInst = v
	})

	return validateInst
}

// GetValidator returns the configured validator for use outside the package.
func GetValidator() *validator.Validate {
	return validatorInstance()
}

// ValidateConfig performs structural and cross-field validation.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return volerrors.NewValidationError("config", "configuration is nil", nil)
	}

	if err := validatorInstance().Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	switch strings.ToLower(cfg.Input.Mode) {
	case "file":
		if strings.TrimSpace(cfg.Input.File) == "" {
			return volerrors.NewValidationError("input.file", "required when input.mode is file", nil)
		}
	case "folder":
		if strings.TrimSpace(cfg.Input.Folder) == "" {
			return volerrors.NewValidationError("input.folder", "required when input.mode is folder", nil)
		}
	}
	return nil
}

// convertValidationError reports the first validator failure as a ValidationError.
func convertValidationError(err error) error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		ve := ves[0]
		field := yamlFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return volerrors.NewValidationError(field, msg, err)
	}
	return volerrors.NewValidationError("config", err.Error(), err)
}

// yamlFieldName drops the root struct from the namespace, e.g. "Config.load.workers".
func yamlFieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
