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

package pipeline

import (
	"io"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supadeploy/supadeploy/internal/pkg/log"
	"github.com/supadeploy/supadeploy/internal/pkg/printer"
)

func init() {
	log.ConfigureLogger("none", false)
}

func TestMain(m *testing.M) {
	printer.SetOutput(io.Discard)
	code := m.Run()
	printer.SetOutput(os.Stdout)
	os.Exit(code)
}

func TestRunExecutesStagesInOrder(t *testing.T) {
	ran := make([]string, 0)
	record := func(name string) func() error {
		return func() error {
			ran = append(ran, name)
			return nil
		}
	}

	err := Run([]Stage{
		{Name: "first", Action: record("first")},
		{Name: "second", Action: record("second")},
		{Name: "third", Action: record("third")},
	})

	require.Nil(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, ran)
}

func TestRunAbortsOnFatalFailure(t *testing.T) {
	thirdRan := false

	err := Run([]Stage{
		{Name: "first", Action: func() error { return nil }},
		{Name: "second", Action: func() error { return errors.New("boom") }},
		{Name: "third", Action: func() error { thirdRan = true; return nil }},
	})

	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "Stage 'second' failed")
	assert.False(t, thirdRan)
}

func TestRunContinuesPastRecoverableFailure(t *testing.T) {
	thirdRan := false

	err := Run([]Stage{
		{Name: "first", Action: func() error { return nil }},
		{Name: "second", Recoverable: true,
			Action: func() error { return errors.New("boom") }},
		{Name: "third", Action: func() error { thirdRan = true; return nil }},
	})

	require.Nil(t, err)
	assert.True(t, thirdRan)
}
