package profile

import (
	"sort"
	"sync"

	appErr "coderunner/pkg/errors"
)

// Registry holds the supported language profiles, keyed by id.
// Profiles are loaded once at startup and never mutated afterwards.
type Registry struct {
	mu        sync.RWMutex
	languages map[string]LanguageProfile
}

// NewRegistry creates a registry preloaded with the built-in languages.
func NewRegistry() *Registry {
	r := &Registry{languages: make(map[string]LanguageProfile)}
	for _, lang := range defaultLanguages() {
		r.Register(lang)
	}
	return r
}

// NewRegistryWith creates a registry from an explicit profile list,
// replacing the built-in set. Used when languages come from config.
func NewRegistryWith(languages []LanguageProfile) *Registry {
	r := &Registry{languages: make(map[string]LanguageProfile)}
	for _, lang := range languages {
		r.Register(lang)
	}
	return r
}

// Register adds or replaces a language profile. Profiles with an empty id
// or no run command are ignored.
func (r *Registry) Register(lang LanguageProfile) {
	if lang.ID == "" || lang.RunCmdTpl == "" {
		return
	}
	if lang.SourceFile == "" {
		lang.SourceFile = "solution." + lang.Extension
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.languages[lang.ID] = lang
}

// Get returns the profile for a language id.
func (r *Registry) Get(id string) (LanguageProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.languages[id]
	if !ok {
		return LanguageProfile{}, appErr.Newf(appErr.LanguageNotSupported, "unsupported language: %s", id)
	}
	return lang, nil
}

// List returns all profiles ordered by id.
func (r *Registry) List() []LanguageProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]LanguageProfile, 0, len(r.languages))
	for _, l := range r.languages {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i].ID < langs[j].ID })
	return langs
}

// IDs returns all supported language ids ordered alphabetically.
func (r *Registry) IDs() []string {
	langs := r.List()
	ids := make([]string, 0, len(langs))
	for _, l := range langs {
		ids = append(ids, l.ID)
	}
	return ids
}

func defaultLanguages() []LanguageProfile {
	return []LanguageProfile{
		{
			ID:                 "python",
			Name:               "Python 3",
			Kind:               KindInterpreted,
			Extension:          "py",
			RunCmdTpl:          "python3 {src}",
			DefaultTimeLimitMs: 5000,
			DefaultMemoryMB:    256,
			Template:           "def main():\n    pass\n\nif __name__ == \"__main__\":\n    main()\n",
		},
		{
			ID:                 "javascript",
			Name:               "JavaScript (Node.js)",
			Kind:               KindInterpreted,
			Extension:          "js",
			RunCmdTpl:          "node {src}",
			DefaultTimeLimitMs: 5000,
			DefaultMemoryMB:    256,
			Template:           "function main() {\n}\n\nmain();\n",
		},
		{
			ID:                 "c",
			Name:               "C (GCC)",
			Kind:               KindNative,
			Extension:          "c",
			BinaryFile:         "solution",
			CompileCmdTpl:      "gcc {src} -O2 -std=c11 -o {bin}",
			RunCmdTpl:          "./{bin}",
			DefaultTimeLimitMs: 2000,
			DefaultMemoryMB:    128,
			Template:           "#include <stdio.h>\n\nint main(void) {\n    return 0;\n}\n",
		},
		{
			ID:                 "cpp",
			Name:               "C++ (G++)",
			Kind:               KindNative,
			Extension:          "cpp",
			BinaryFile:         "solution",
			CompileCmdTpl:      "g++ {src} -O2 -std=c++17 -o {bin}",
			RunCmdTpl:          "./{bin}",
			DefaultTimeLimitMs: 2000,
			DefaultMemoryMB:    128,
			Template:           "#include <bits/stdc++.h>\n\nint main() {\n    return 0;\n}\n",
		},
		{
			ID:                 "java",
			Name:               "Java",
			Kind:               KindBytecode,
			Extension:          "java",
			SourceFile:         "Main.java",
			BinaryFile:         "Main",
			CompileCmdTpl:      "javac {src}",
			RunCmdTpl:          "java -cp . {bin}",
			DefaultTimeLimitMs: 4000,
			DefaultMemoryMB:    512,
			Template:           "public class Main {\n    public static void main(String[] args) {\n    }\n}\n",
		},
		{
			ID:                 "go",
			Name:               "Go",
			Kind:               KindNative,
			Extension:          "go",
			BinaryFile:         "solution",
			CompileCmdTpl:      "go build -o {bin} {src}",
			RunCmdTpl:          "./{bin}",
			Env:                []string{"GO111MODULE=off", "GOCACHE=/tmp/gocache"},
			DefaultTimeLimitMs: 3000,
			DefaultMemoryMB:    256,
			Template:           "package main\n\nfunc main() {\n}\n",
		},
	}
}
