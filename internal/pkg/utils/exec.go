/*
 * Copyright 2025 The Supadeploy Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/supadeploy/supadeploy/internal/pkg/log"
)

// CommandSpec describes a single invocation of an external tool. Immutable
// once constructed.
type CommandSpec struct {
	Command string
	Args    []string
	// optional working directory
	Dir string
}

func NewCommandSpec(command string, args ...string) CommandSpec {
	return CommandSpec{
		Command: command,
		Args:    args,
	}
}

// The full command line as a single string, for logging and error messages
func (c CommandSpec) String() string {
	return strings.Join(append([]string{c.Command}, c.Args...), " ")
}

// Raised when a process can't be started at all (e.g. binary not on the path)
type LaunchFailedError struct {
	Cmd string
	Err error
}

func (e LaunchFailedError) Error() string {
	return fmt.Sprintf("Failed to launch command '%s': %v", e.Cmd, e.Err)
}

// Raised when a process exits nonzero. Stdout contains the accumulated
// standard output only - stderr is never mixed in because callers may parse
// the output as JSON.
type CommandFailedError struct {
	Code   int
	Cmd    string
	Stdout string
}

func (e CommandFailedError) Error() string {
	return fmt.Sprintf("Command failed (%d): %s\nStdout:\n%s", e.Code, e.Cmd,
		e.Stdout)
}

// one line read from a child process pipe, tagged with its source stream
type streamLine struct {
	stderr bool
	text   string
}

// Runs the command described by the spec, draining its stdout and stderr
// pipes on two concurrent readers so neither pipe can fill and stall the
// child. Every line is echoed to the operator in real time on the matching
// stream of this process. Blocks until the process exits and both readers
// have drained, then returns the trimmed accumulated stdout.
func RunCommand(spec CommandSpec) (string, error) {
	log.Logger.Debugf("Executing command: %s", spec)

	cmd := exec.Command(spec.Command, spec.Args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", LaunchFailedError{Cmd: spec.String(), Err: err}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", LaunchFailedError{Cmd: spec.String(), Err: err}
	}

	if err := cmd.Start(); err != nil {
		return "", LaunchFailedError{Cmd: spec.String(), Err: err}
	}

	lines := make(chan streamLine)
	var wg sync.WaitGroup
	wg.Add(2)

	// lines are read with ReadString rather than a Scanner: a Scanner caps
	// tokens at 64KiB and stops reading beyond that, leaving the pipe
	// undrained - tools like `helm --debug` and `kubectl -o jsonpath` emit
	// single lines far longer than that
	pump := func(pipe io.Reader, isStderr bool) {
		defer wg.Done()
		reader := bufio.NewReader(pipe)
		for {
			text, err := reader.ReadString('\n')
			if len(text) > 0 {
				lines <- streamLine{
					stderr: isStderr,
					text:   strings.TrimRight(text, "\r\n"),
				}
			}
			if err != nil {
				return
			}
		}
	}

	go pump(stdout, false)
	go pump(stderr, true)

	go func() {
		wg.Wait()
		close(lines)
	}()

	stdoutLines := make([]string, 0)

	// ranging until close joins both readers before we inspect the exit status
	for line := range lines {
		if line.stderr {
			fmt.Fprintln(os.Stderr, line.text)
		} else {
			fmt.Fprintln(os.Stdout, line.text)
			stdoutLines = append(stdoutLines, line.text)
		}
	}

	outText := strings.TrimSpace(strings.Join(stdoutLines, "\n"))

	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return outText, CommandFailedError{
				Code:   exitErr.ExitCode(),
				Cmd:    spec.String(),
				Stdout: outText,
			}
		}

		return outText, LaunchFailedError{Cmd: spec.String(), Err: err}
	}

	return outText, nil
}
