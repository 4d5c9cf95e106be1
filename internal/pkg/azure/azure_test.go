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

package azure

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supadeploy/supadeploy/internal/pkg/log"
	"github.com/supadeploy/supadeploy/internal/pkg/mock"
	"github.com/supadeploy/supadeploy/internal/pkg/utils"
)

func init() {
	log.ConfigureLogger("none", false)
}

func TestSecretExists(t *testing.T) {
	tests := []struct {
		name     string
		runner   *mock.FakeRunner
		expected bool
	}{
		{
			"secret-present",
			&mock.FakeRunner{Responses: map[string]string{
				"secret show": "https://kv1.vault.azure.net/secrets/jwt-secret/abc",
			}},
			true,
		},
		{
			// a nonzero az exit means the secret is absent, not an error
			"secret-absent",
			&mock.FakeRunner{Errors: map[string]error{
				"secret show": utils.CommandFailedError{Code: 3, Cmd: "az"},
			}},
			false,
		},
		{
			"empty-output",
			&mock.FakeRunner{},
			false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			exists, err := NewAzClient(test.runner).SecretExists("kv1", "jwt-secret")
			require.Nil(t, err)
			assert.Equal(t, test.expected, exists)
		})
	}
}

func TestSecretExistsPropagatesLaunchFailures(t *testing.T) {
	runner := &mock.FakeRunner{Errors: map[string]error{
		"secret show": utils.LaunchFailedError{Cmd: "az", Err: errors.New("not found")},
	}}

	_, err := NewAzClient(runner).SecretExists("kv1", "jwt-secret")
	assert.NotNil(t, err)
}

func TestSetSecret(t *testing.T) {
	runner := &mock.FakeRunner{}

	err := NewAzClient(runner).SetSecret("kv1", "jwt-secret", "value1")
	require.Nil(t, err)

	require.Len(t, runner.Specs, 1)
	assert.Equal(t, []string{"keyvault", "secret", "set",
		"--vault-name", "kv1",
		"--name", "jwt-secret",
		"--value", "value1"}, runner.Specs[0].Args)
}

func TestFirstStorageAccount(t *testing.T) {
	runner := &mock.FakeRunner{Responses: map[string]string{
		"storage account list": "acct1\n",
	}}

	name, err := NewAzClient(runner).FirstStorageAccount("rg1")
	require.Nil(t, err)
	assert.Equal(t, "acct1", name)
}

func TestClusterIdentity(t *testing.T) {
	runner := &mock.FakeRunner{Responses: map[string]string{
		"aks show": `{
			"id": "/subscriptions/sub123/resourceGroups/rg1/providers/Microsoft.ContainerService/managedClusters/aks1",
			"identityProfile": {
				"kubeletidentity": {
					"objectId": "obj123"
				}
			}
		}`,
	}}

	identity, err := NewAzClient(runner).ClusterIdentity("rg1", "aks1")
	require.Nil(t, err)

	assert.Equal(t, "obj123", identity.KubeletObjectId)
	assert.Equal(t, "sub123", identity.SubscriptionId)
}

func TestClusterIdentityBadJson(t *testing.T) {
	runner := &mock.FakeRunner{Responses: map[string]string{
		"aks show": "WARNING: not json",
	}}

	_, err := NewAzClient(runner).ClusterIdentity("rg1", "aks1")
	assert.NotNil(t, err)
}

func TestAssignVaultRole(t *testing.T) {
	runner := &mock.FakeRunner{}

	err := NewAzClient(runner).AssignVaultRole("obj123",
		VaultScope("sub123", "rg1", "kv1"))
	require.Nil(t, err)

	require.Len(t, runner.Specs, 1)
	args := runner.Specs[0].Args
	assert.Contains(t, args, VaultSecretsUserRole)
	assert.Contains(t, args,
		"/subscriptions/sub123/resourceGroups/rg1/providers/Microsoft.KeyVault/vaults/kv1")
}

func TestVaultScope(t *testing.T) {
	assert.Equal(t,
		"/subscriptions/s/resourceGroups/g/providers/Microsoft.KeyVault/vaults/v",
		VaultScope("s", "g", "v"))
}
