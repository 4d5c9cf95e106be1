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

// Resolves the application's secret set from several sources and idempotently
// upserts it into the key vault so the External Secrets Operator can pull the
// values into the cluster.
package secrets

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Names of the secrets the application expects to find in the vault
const (
	JwtSecretKey          = "jwt-secret"
	AnonKeyKey            = "anon-key"
	ServiceRoleKeyKey     = "service-role-key"
	PostgresConnStringKey = "postgres-connection-string"
	StorageCredsKey       = "supabase-storage-creds"
	StorageAccountNameKey = "azure-storage-account-name"
	StorageAccountKeyKey  = "azure-storage-account-key"
	StorageConnStringKey  = "storage-connection-string"
)

// A resolved mapping from secret name to value. Keys are unique, order is
// irrelevant.
type Set map[string]string

// Returns the set's keys in sorted order so callers iterate deterministically
func (s Set) SortedKeys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Raised when a required credential pair can't be resolved by any source.
// Names the keys that are absent so the operator knows exactly what to
// supply.
type MissingCredentialsError struct {
	Names []string
}

func (e MissingCredentialsError) Error() string {
	return fmt.Sprintf("Missing storage credentials: provide '%s' via a "+
		"secrets file or ensure the cloud CLI can list keys in the resource group",
		strings.Join(e.Names, "', '"))
}

// Raised when any resolved secret has an empty value. A silently-empty
// secret is worse than a missing one because it masks the real default
// downstream.
type EmptySecretValueError struct {
	Name string
}

func (e EmptySecretValueError) Error() string {
	return fmt.Sprintf("Secret '%s' has an empty value", e.Name)
}

// Loads explicit secret values from a JSON file mapping names to values
func LoadSecretsFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Error reading secrets file '%s'", path)
	}

	set := Set{}
	err = json.Unmarshal(data, &set)
	if err != nil {
		return nil, errors.Wrapf(err, "Error parsing secrets file '%s'", path)
	}

	return set, nil
}
