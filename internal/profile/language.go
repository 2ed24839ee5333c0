// Package profile defines language profiles and the in-memory registry.
package profile

// Kind identifies the language family, which decides how the run command
// is assembled and whether a compile stage exists.
type Kind string

const (
	// KindInterpreted runs the source directly through an interpreter.
	KindInterpreted Kind = "interpreted"
	// KindNative compiles the source to a standalone binary.
	KindNative Kind = "native"
	// KindBytecode compiles to bytecode executed by a VM.
	KindBytecode Kind = "bytecode"
)

// LanguageProfile defines how to compile and run a language.
// CompileCmdTpl and RunCmdTpl are argv templates; {src} expands to the
// source filename and {bin} to the artifact name, both workspace-relative.
type LanguageProfile struct {
	ID                 string   `yaml:"id" json:"id"`
	Name               string   `yaml:"name" json:"name"`
	Kind               Kind     `yaml:"kind" json:"-"`
	Extension          string   `yaml:"extension" json:"extension"`
	SourceFile         string   `yaml:"sourceFile" json:"-"`
	BinaryFile         string   `yaml:"binaryFile" json:"-"`
	CompileCmdTpl      string   `yaml:"compileCmdTpl" json:"-"`
	RunCmdTpl          string   `yaml:"runCmdTpl" json:"-"`
	Env                []string `yaml:"env" json:"-"`
	DefaultTimeLimitMs int64    `yaml:"defaultTimeLimitMs" json:"defaultTimeLimitMs"`
	DefaultMemoryMB    int64    `yaml:"defaultMemoryLimitMb" json:"defaultMemoryLimitMb"`
	Template           string   `yaml:"template" json:"template"`
}

// CompileEnabled reports whether the language has a compile stage.
func (p LanguageProfile) CompileEnabled() bool {
	return p.CompileCmdTpl != ""
}
