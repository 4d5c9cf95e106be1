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

// This package defines the interfaces consumed across component boundaries.
// Declaring them here lets us swap in fakes for testing instead of directly
// instantiating concrete implementations everywhere.
package interfaces

import (
	"github.com/supadeploy/supadeploy/internal/pkg/utils"
)

// Runs a local external command and returns its captured stdout
type IRunner interface {
	Run(spec utils.CommandSpec) (string, error)
}

// Submits a command (plus optional staged local files) for execution on the
// remote cluster control plane and returns the captured log. This is the only
// channel through which cluster state is inspected or mutated.
type IInvoker interface {
	Invoke(command string, files ...string) (string, error)
	ResourceGroup() string
	ClusterName() string
}

// Primitive operations against the managed secret vault
type IVaultClient interface {
	SecretExists(vault string, name string) (bool, error)
	SetSecret(vault string, name string, value string) error
}

// Identity details of a managed cluster, needed for RBAC grants
type ClusterIdentity struct {
	KubeletObjectId string
	SubscriptionId  string
}

// Read-only discovery of cloud resources plus role assignment
type ICloudClient interface {
	FirstStorageAccount(resourceGroup string) (string, error)
	StorageAccountKey(account string, resourceGroup string) (string, error)
	ClusterIdentity(resourceGroup string, clusterName string) (*ClusterIdentity, error)
	AssignVaultRole(objectId string, scope string) error
}
