package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, input string, args ...string) (string, string, int) {
	t.Helper()
	dir := t.TempDir()
	if len(args) > 0 && args[0] != "version" {
		args = append([]string{args[0],
			"-config", filepath.Join(dir, "hprose.yaml"),
			"-env", filepath.Join(dir, ".env"),
		}, args[1:]...)
	}
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(input), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		input string
		want  string
	}{
		{"encode list", []string{"encode"}, "[1, 2]", "a2{12}"},
		{"encode hex", []string{"encode", "-hex"}, "hello", "73352268656c6c6f22\n"},
		{"decode list", []string{"decode"}, "a2{12}", "- 1\n- 2\n"},
		{"decode hex", []string{"decode", "-hex"}, "7335 2268 656c 6c6f 22", "hello\n"},
		{"decode stream", []string{"decode"}, "12", "1\n2\n"},
		{"decode cycle", []string{"decode"}, `m1{s4"self"r0;}`, "self:\n"},
		{"request", []string{"request"}, `Cs3"add"a2{23}z`, "method: add\n"},
		{"method list", []string{"request"}, "z", "method list request\n"},
		{"result", []string{"response"}, "R5z", "result: 5\n"},
		{"remote error", []string{"response"}, `Es4"boom"z`, "error: boom\n"},
		{"void", []string{"response"}, "z", "void\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, code := runCommand(t, tt.input, tt.args...)
			require.Equal(t, 0, code, stderr)
			if strings.HasSuffix(tt.want, ":\n") || tt.name == "request" {
				assert.Contains(t, stdout, tt.want)
				return
			}
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestRequestArguments(t *testing.T) {
	stdout, _, code := runCommand(t, `Hm1{ukuv}Cs3"add"a2{23}z`, "request")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "k: v")
	assert.Contains(t, stdout, "- 2")
	assert.Contains(t, stdout, "- 3")
}

func TestCommandFailures(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		input string
		want  string
	}{
		{"no command", nil, "", "Usage"},
		{"unknown command", []string{"explode"}, "", "Unknown command: explode"},
		{"truncated value", []string{"decode"}, "i12", "decode failed"},
		{"bad hex", []string{"decode", "-hex"}, "zz", "invalid hex input"},
		{"bad yaml", []string{"encode"}, "[1, 2", "invalid YAML input"},
		{"bad request", []string{"request"}, "R1z", "request failed"},
		{"bad flag", []string{"decode", "-nope"}, "", "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := runCommand(t, tt.input, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestVersion(t *testing.T) {
	stdout, _, code := runCommand(t, "", "version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, "hprose v"))
}
