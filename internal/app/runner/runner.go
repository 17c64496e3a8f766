package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"learncode/internal/domain/model"
)

var (
	ErrTimeLimit           = errors.New("time limit exceeded")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// CompileError carries the compiler diagnostics of a failed build.
type CompileError struct {
	Output string
}

func (e *CompileError) Error() string {
	return "compilation failed"
}

// Output is what a finished program produced.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes one program against one input.
type Runner interface {
	Run(ctx context.Context, language, code, input string) (*Output, error)
}

type toolchain struct {
	source  string
	compile []string
	run     []string
	image   string
}

var toolchains = map[string]toolchain{
	model.LanguagePython: {source: "main.py", run: []string{"python3", "main.py"}, image: "python:3.12-slim"},
	model.LanguageNodeJS: {source: "main.js", run: []string{"node", "main.js"}, image: "node:20-slim"},
	model.LanguageCpp: {
		source:  "main.cpp",
		compile: []string{"g++", "-O2", "-std=c++17", "-o", "main", "main.cpp"},
		run:     []string{"./main"},
		image:   "gcc:13",
	},
	model.LanguageJava: {
		source:  "Main.java",
		compile: []string{"javac", "Main.java"},
		run:     []string{"java", "-cp", ".", "Main"},
		image:   "eclipse-temurin:21-jdk",
	},
}

func lookup(language string) (toolchain, error) {
	tc, ok := toolchains[language]
	if !ok {
		return toolchain{}, fmt.Errorf("%q: %w", language, ErrUnsupportedLanguage)
	}
	return tc, nil
}

// Images lists the container images the Docker runner needs.
func Images() []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range model.SupportedLanguages {
		img := toolchains[l].image
		if img != "" && !seen[img] {
			seen[img] = true
			out = append(out, img)
		}
	}
	return out
}

// Verdict is the terminal outcome of judging one execution.
type Verdict struct {
	Status model.SubmissionStatus
	Result string
}

// Judge turns an execution outcome into a terminal status. Output is compared
// after trimming surrounding whitespace.
func Judge(expected string, out *Output, runErr error, timeLimit time.Duration) Verdict {
	var cerr *CompileError
	switch {
	case errors.Is(runErr, ErrTimeLimit):
		return Verdict{model.StatusError, fmt.Sprintf("time limit exceeded (%s)", timeLimit)}
	case errors.As(runErr, &cerr):
		return Verdict{model.StatusError, "compilation error:\n" + strings.TrimSpace(cerr.Output)}
	case runErr != nil:
		return Verdict{model.StatusError, "execution failed: " + runErr.Error()}
	case out == nil:
		return Verdict{model.StatusError, "execution failed: no output"}
	case out.ExitCode != 0:
		return Verdict{model.StatusError, fmt.Sprintf("runtime error (exit code %d):\n%s", out.ExitCode, strings.TrimSpace(out.Stderr))}
	}

	want := strings.TrimSpace(expected)
	got := strings.TrimSpace(out.Stdout)
	if want != got {
		return Verdict{model.StatusError, fmt.Sprintf("output mismatch\nExpected:\n%s\nGot:\n%s", want, got)}
	}
	return Verdict{model.StatusCompleted, got}
}
