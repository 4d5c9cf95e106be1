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

// Thin boundary around the `az` CLI for vault operations, resource discovery
// and role assignment.
package azure

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/supadeploy/supadeploy/internal/pkg/interfaces"
	"github.com/supadeploy/supadeploy/internal/pkg/utils"
)

// todo - make configurable
const AzPath = "az"

const VaultSecretsUserRole = "Key Vault Secrets User"

type AzClient struct {
	runner interfaces.IRunner
}

func NewAzClient(runner interfaces.IRunner) *AzClient {
	return &AzClient{
		runner: runner,
	}
}

func (c *AzClient) az(args ...string) (string, error) {
	return c.runner.Run(utils.NewCommandSpec(AzPath, args...))
}

// Returns whether the named secret already exists in the vault. A nonzero
// exit from `az keyvault secret show` means the secret is absent.
func (c *AzClient) SecretExists(vault string, name string) (bool, error) {
	out, err := c.az("keyvault", "secret", "show",
		"--vault-name", vault,
		"--name", name,
		"--query", "id",
		"-o", "tsv")
	if err != nil {
		if _, ok := errors.Cause(err).(utils.CommandFailedError); ok {
			return false, nil
		}

		return false, errors.Wrapf(err, "Error checking for secret '%s' in "+
			"vault '%s'", name, vault)
	}

	return strings.TrimSpace(out) != "", nil
}

func (c *AzClient) SetSecret(vault string, name string, value string) error {
	_, err := c.az("keyvault", "secret", "set",
		"--vault-name", vault,
		"--name", name,
		"--value", value)
	if err != nil {
		return errors.Wrapf(err, "Error setting secret '%s' in vault '%s'",
			name, vault)
	}

	return nil
}

// Returns the name of the first storage account in the resource group, or an
// empty string if there are none
func (c *AzClient) FirstStorageAccount(resourceGroup string) (string, error) {
	out, err := c.az("storage", "account", "list",
		"-g", resourceGroup,
		"--query", "[0].name",
		"-o", "tsv")
	if err != nil {
		return "", errors.Wrapf(err, "Error listing storage accounts in '%s'",
			resourceGroup)
	}

	return strings.TrimSpace(out), nil
}

func (c *AzClient) StorageAccountKey(account string, resourceGroup string) (string, error) {
	out, err := c.az("storage", "account", "keys", "list",
		"-n", account,
		"-g", resourceGroup,
		"--query", "[0].value",
		"-o", "tsv")
	if err != nil {
		return "", errors.Wrapf(err, "Error listing keys for storage account '%s'",
			account)
	}

	return strings.TrimSpace(out), nil
}

// subset of `az aks show` output we care about
type aksShowOutput struct {
	Id              string `json:"id"`
	IdentityProfile struct {
		KubeletIdentity struct {
			ObjectId string `json:"objectId"`
		} `json:"kubeletidentity"`
	} `json:"identityProfile"`
}

// Looks up the cluster's kubelet managed identity and the subscription it
// lives in (parsed from the cluster's resource id).
func (c *AzClient) ClusterIdentity(resourceGroup string, clusterName string) (
	*interfaces.ClusterIdentity, error) {

	out, err := c.az("aks", "show", "-g", resourceGroup, "-n", clusterName, "-o", "json")
	if err != nil {
		return nil, errors.Wrapf(err, "Error fetching details of cluster '%s'",
			clusterName)
	}

	var show aksShowOutput
	err = json.Unmarshal([]byte(out), &show)
	if err != nil {
		return nil, errors.Wrapf(err, "Error parsing 'az aks show' output: %s", out)
	}

	// resource ids look like /subscriptions/<id>/resourceGroups/...
	parts := strings.Split(show.Id, "/")
	if len(parts) < 3 {
		return nil, errors.New(fmt.Sprintf("Unexpected cluster resource id '%s'",
			show.Id))
	}

	return &interfaces.ClusterIdentity{
		KubeletObjectId: show.IdentityProfile.KubeletIdentity.ObjectId,
		SubscriptionId:  parts[2],
	}, nil
}

// Grants the 'Key Vault Secrets User' role to the given identity over the
// given scope
func (c *AzClient) AssignVaultRole(objectId string, scope string) error {
	_, err := c.az("role", "assignment", "create",
		"--assignee-object-id", objectId,
		"--assignee-principal-type", "ServicePrincipal",
		"--role", VaultSecretsUserRole,
		"--scope", scope)
	if err != nil {
		return errors.Wrapf(err, "Error assigning '%s' over '%s'",
			VaultSecretsUserRole, scope)
	}

	return nil
}

// Builds the resource id of a key vault for use as a role assignment scope
func VaultScope(subscriptionId string, resourceGroup string, vault string) string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.KeyVault/vaults/%s",
		subscriptionId, resourceGroup, vault)
}

var _ interfaces.IVaultClient = (*AzClient)(nil)
var _ interfaces.ICloudClient = (*AzClient)(nil)
