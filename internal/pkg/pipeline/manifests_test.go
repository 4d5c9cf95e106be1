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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supadeploy/supadeploy/internal/pkg/mock"
)

func writeManifest(t *testing.T, dir string, name string) string {
	path := filepath.Join(dir, name)
	require.Nil(t, os.WriteFile(path, []byte("kind: ConfigMap\n"), 0644))
	return path
}

func TestApplyManifests(t *testing.T) {
	dir := t.TempDir()
	first := writeManifest(t, dir, "secretstore.yaml")
	second := writeManifest(t, dir, "externalsecret.yaml")

	inv := &mock.FakeInvoker{}

	err := ApplyManifests(inv, []string{first, second})
	require.Nil(t, err)
	assert.Len(t, inv.Invocations, 2)
}

// If any manifest is absent, nothing at all may be applied
func TestApplyManifestsMissingFileShortCircuits(t *testing.T) {
	dir := t.TempDir()
	first := writeManifest(t, dir, "secretstore.yaml")
	missing := filepath.Join(dir, "not-there.yaml")

	inv := &mock.FakeInvoker{}

	err := ApplyManifests(inv, []string{first, missing})
	require.NotNil(t, err)

	missingErr, ok := err.(ManifestMissingError)
	require.True(t, ok, "expected a ManifestMissingError, got %T", err)
	assert.Equal(t, missing, missingErr.Path)

	assert.Empty(t, inv.Invocations)
}

func TestApplyExistingManifestsSkipsAbsentFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeManifest(t, dir, "postgrest-hpa.yaml")
	missing := filepath.Join(dir, "realtime-hpa.yaml")

	inv := &mock.FakeInvoker{}

	err := ApplyExistingManifests(inv, []string{first, missing})
	require.Nil(t, err)

	require.Len(t, inv.Invocations, 1)
	assert.Contains(t, inv.Invocations[0].Command, "postgrest-hpa.yaml")
}
