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
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/supadeploy/supadeploy/internal/pkg/interfaces"
	"github.com/supadeploy/supadeploy/internal/pkg/invoker"
)

// Manifests wiring the External Secrets Operator to the vault plus the S3
// proxy the storage service talks to. These must all exist for a deploy.
var SecretsManifests = []string{
	filepath.Join("k8s", "eso", "secretstore.yaml"),
	filepath.Join("k8s", "eso", "externalsecret.yaml"),
	filepath.Join("k8s", "eso", "storage-externalsecret.yaml"),
	filepath.Join("k8s", "eso", "azure-storage-externalsecret.yaml"),
	filepath.Join("k8s", "s3proxy", "deployment.yaml"),
}

// Optional baseline policies applied by cluster configuration - autoscalers
// and a network policy. Absent files are skipped.
var BaselineManifests = []string{
	filepath.Join("k8s", "eso", "db-externalsecret.yaml"),
	filepath.Join("k8s", "hpa", "postgrest-hpa.yaml"),
	filepath.Join("k8s", "hpa", "realtime-hpa.yaml"),
	filepath.Join("k8s", "networkpolicy", "supabase-networkpolicy.yaml"),
}

// Raised when a referenced manifest file doesn't exist locally
type ManifestMissingError struct {
	Path string
}

func (e ManifestMissingError) Error() string {
	return fmt.Sprintf("Manifest missing: %s", e.Path)
}

// Applies the given manifests, first verifying that every file exists.
// Nothing at all is applied if any file is absent - failing fast beats a
// partial apply.
func ApplyManifests(inv interfaces.IInvoker, paths []string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return ManifestMissingError{Path: p}
		}
	}

	err := invoker.ApplyFiles(inv, paths)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Applies whichever of the given manifests exist locally, silently skipping
// the rest
func ApplyExistingManifests(inv interfaces.IInvoker, paths []string) error {
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}

	err := invoker.ApplyFiles(inv, existing)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}
