package main

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	version = "1.2.3"
	buildTime = "2024-05-01_10:30:00"
	gitCommit = "abc123"

	var buf bytes.Buffer
	printVersion(&buf)
	output := buf.String()

	expected := []string{
		"MCP PDF Autofill",
		"Version: 1.2.3",
		"Build Time: 2024-05-01_10:30:00",
		"Git Commit: abc123",
		"Built with: " + runtime.Version(),
	}
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestPrintVersionWithDefaults(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)

	if !strings.Contains(buf.String(), "Version: "+version) {
		t.Errorf("expected default version in output, got:\n%s", buf.String())
	}
}
