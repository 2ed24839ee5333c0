package engine

import (
	"reflect"
	"testing"

	"coderunner/internal/profile"
)

func TestBuildCommandExpandsPlaceholders(t *testing.T) {
	lang := profile.LanguageProfile{
		SourceFile: "solution.cpp",
		BinaryFile: "solution",
	}
	argv, err := buildCommand("g++ {src} -O2 -o {bin}", lang)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"g++", "solution.cpp", "-O2", "-o", "solution"}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("got %v, want %v", argv, want)
	}
}

func TestBuildCommandQuotedArguments(t *testing.T) {
	argv, err := buildCommand(`sh -c "echo hello world"`, profile.LanguageProfile{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"sh", "-c", "echo hello world"}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("got %v, want %v", argv, want)
	}
}

func TestBuildCommandEmptyTemplate(t *testing.T) {
	if _, err := buildCommand("   ", profile.LanguageProfile{}); err == nil {
		t.Fatal("expected error for empty template")
	}
}
