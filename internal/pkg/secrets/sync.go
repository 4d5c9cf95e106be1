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

package secrets

import (
	"github.com/pkg/errors"
	"github.com/supadeploy/supadeploy/internal/pkg/azure"
	"github.com/supadeploy/supadeploy/internal/pkg/config"
	"github.com/supadeploy/supadeploy/internal/pkg/interfaces"
	"github.com/supadeploy/supadeploy/internal/pkg/log"
	"github.com/supadeploy/supadeploy/internal/pkg/printer"
)

type Synchroniser struct {
	conf  *config.Conf
	vault interfaces.IVaultClient
	cloud interfaces.ICloudClient
}

func NewSynchroniser(conf *config.Conf, vault interfaces.IVaultClient,
	cloud interfaces.ICloudClient) (*Synchroniser, error) {

	if conf.KeyVault == "" {
		return nil, errors.New("A key vault name is required to sync secrets")
	}

	return &Synchroniser{
		conf:  conf,
		vault: vault,
		cloud: cloud,
	}, nil
}

// Outcome of the best-effort RBAC grant pre-step. Grant failure is a
// recoverable condition, not an error - callers log a warning and continue.
type GrantOutcome struct {
	Attempted bool
	Err       error
}

// Grants the cluster's kubelet managed identity read access to the vault so
// the in-cluster secrets operator can later fetch the synced values. The
// resource group, cluster and vault identifiers are all required together -
// if any is absent the grant is skipped with a warning since RBAC may be
// provisioned out-of-band.
func (s *Synchroniser) GrantVaultAccess() GrantOutcome {
	if s.conf.SkipRoleAssignment {
		log.Logger.Debug("Role assignment explicitly skipped")
		return GrantOutcome{}
	}

	if s.conf.ResourceGroup == "" || s.conf.ClusterName == "" || s.conf.KeyVault == "" {
		log.Logger.Warn("Skipping vault role assignment - it needs a resource " +
			"group, cluster name and key vault to all be configured")
		return GrantOutcome{}
	}

	identity, err := s.cloud.ClusterIdentity(s.conf.ResourceGroup, s.conf.ClusterName)
	if err != nil {
		return GrantOutcome{Attempted: true, Err: err}
	}

	if identity.KubeletObjectId == "" {
		log.Logger.Warn("Cluster has no kubelet managed identity. Skipping " +
			"vault role assignment")
		return GrantOutcome{}
	}

	scope := azure.VaultScope(identity.SubscriptionId, s.conf.ResourceGroup,
		s.conf.KeyVault)

	err = s.cloud.AssignVaultRole(identity.KubeletObjectId, scope)
	if err != nil {
		return GrantOutcome{Attempted: true, Err: err}
	}

	log.Logger.Infof("Granted '%s' to the kubelet identity over vault '%s'",
		azure.VaultSecretsUserRole, s.conf.KeyVault)

	return GrantOutcome{Attempted: true}
}

// Resolves the complete secret set by composing the ordered sources, then
// verifies completeness: the storage credential pair must have been resolved
// by some source and every value must be non-empty.
func (s *Synchroniser) Resolve(explicit Set) (Set, error) {
	generateDefaults := s.conf.GenerateDefaultSecrets || len(explicit) == 0

	sources := []Source{
		ExplicitSource(explicit),
		GeneratedSource(generateDefaults),
		CloudSource(s.cloud, s.conf.ResourceGroup),
		DerivedSource,
	}

	set := Set{}

	var err error
	for _, source := range sources {
		set, err = source(set)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	}

	missing := make([]string, 0)
	for _, key := range []string{StorageAccountNameKey, StorageAccountKeyKey} {
		if _, ok := set[key]; !ok {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return nil, MissingCredentialsError{Names: missing}
	}

	for _, name := range set.SortedKeys() {
		if set[name] == "" {
			return nil, EmptySecretValueError{Name: name}
		}
	}

	return set, nil
}

// Resolves the secret set and upserts every entry into the vault. Entries
// that already exist are never overwritten, so re-running a sync with the
// same inputs is safe and performs no writes.
func (s *Synchroniser) Sync(explicit Set) error {
	outcome := s.GrantVaultAccess()
	if outcome.Err != nil {
		log.Logger.Warnf("Failed to assign '%s' to the kubelet identity: %v",
			azure.VaultSecretsUserRole, outcome.Err)
		log.Logger.Warn("Proceeding to sync secrets, but the secrets operator " +
			"may 403 until RBAC is granted")
	}

	set, err := s.Resolve(explicit)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, name := range set.SortedKeys() {
		exists, err := s.vault.SecretExists(s.conf.KeyVault, name)
		if err != nil {
			return errors.WithStack(err)
		}

		if exists {
			log.Logger.Infof("Secret '%s' already exists in vault '%s'. Skipping",
				name, s.conf.KeyVault)
			continue
		}

		err = s.vault.SetSecret(s.conf.KeyVault, name, set[name])
		if err != nil {
			return errors.WithStack(err)
		}

		printer.Fprintf("Synced secret [bold]%s[reset] to vault %s\n", name,
			s.conf.KeyVault)
	}

	return nil
}
