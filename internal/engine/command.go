package engine

import (
	"strings"

	"coderunner/internal/profile"
	appErr "coderunner/pkg/errors"

	"github.com/google/shlex"
)

// buildCommand expands a profile command template into a concrete argv.
// {src} expands to the workspace-relative source filename and {bin} to the
// compiled artifact name.
func buildCommand(tpl string, lang profile.LanguageProfile) ([]string, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command template is required")
	}
	expanded := strings.ReplaceAll(tpl, "{src}", lang.SourceFile)
	expanded = strings.ReplaceAll(expanded, "{bin}", lang.BinaryFile)
	fields, err := shlex.Split(expanded)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InvalidParams, "parse command template failed")
	}
	if len(fields) == 0 {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("command is empty after expansion")
	}
	return fields, nil
}
