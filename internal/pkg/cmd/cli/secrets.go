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

package cli

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/supadeploy/supadeploy/internal/pkg/azure"
	"github.com/supadeploy/supadeploy/internal/pkg/config"
	"github.com/supadeploy/supadeploy/internal/pkg/log"
	"github.com/supadeploy/supadeploy/internal/pkg/secrets"
	"github.com/supadeploy/supadeploy/internal/pkg/utils"
)

type secretsSyncCmd struct {
	out                    io.Writer
	keyVault               string
	resourceGroup          string
	clusterName            string
	secretsFile            string
	generateDefaultSecrets bool
	skipRoleAssignment     bool
}

func newSecretsSyncCmd(out io.Writer) *cobra.Command {
	c := &secretsSyncCmd{
		out: out,
	}

	cmd := &cobra.Command{
		Use:   "secrets-sync [flags]",
		Short: "Sync application secrets into a Key Vault",
		Long: `Resolve the application's secret set and upsert it into a Key Vault.

Values are resolved with a fixed precedence: explicit values from the
secrets file win, then generated defaults (when enabled), then storage
credentials discovered from the resource group, and finally composites
derived from already-resolved values. Secrets that already exist in the
vault are never overwritten, so running this repeatedly performs no writes
once the vault is populated.

Unless skipped, the cluster's kubelet managed identity is first granted
read access to the vault so the in-cluster secrets operator can fetch the
values. That grant is best-effort: a failure is logged and the sync still
proceeds, since RBAC may be provisioned out-of-band.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.WithStack(c.run())
		},
	}

	f := cmd.Flags()
	f.StringVar(&c.keyVault, "key-vault", "", "name of the Key Vault to sync secrets into")
	f.StringVarP(&c.resourceGroup, "resource-group", "g", "", "resource group used for discovery and RBAC")
	f.StringVarP(&c.clusterName, "cluster-name", "n", "", "cluster whose kubelet identity gets vault access")
	f.StringVar(&c.secretsFile, "secrets-file", "", "path to a JSON file of explicit secret values")
	f.BoolVar(&c.generateDefaultSecrets, "generate-default-secrets", false,
		"generate safe default values for secrets not otherwise supplied")
	f.BoolVar(&c.skipRoleAssignment, "skip-role-assignment", false,
		"skip granting the kubelet identity read access to the vault")

	cobra.MarkFlagRequired(f, "key-vault")

	return cmd
}

func (c *secretsSyncCmd) run() error {
	conf, err := mergedConf(&config.Conf{
		KeyVault:               c.keyVault,
		ResourceGroup:          c.resourceGroup,
		ClusterName:            c.clusterName,
		SecretsFile:            c.secretsFile,
		GenerateDefaultSecrets: c.generateDefaultSecrets,
		SkipRoleAssignment:     c.skipRoleAssignment,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	azClient := azure.NewAzClient(utils.CommandRunner{})

	sync, err := secrets.NewSynchroniser(conf, azClient, azClient)
	if err != nil {
		return errors.WithStack(err)
	}

	explicit := secrets.Set{}
	if conf.SecretsFile != "" {
		if _, err := os.Stat(conf.SecretsFile); err == nil {
			explicit, err = secrets.LoadSecretsFile(conf.SecretsFile)
			if err != nil {
				return errors.WithStack(err)
			}
		} else {
			log.Logger.Warnf("Secrets file '%s' doesn't exist. Continuing "+
				"without explicit secrets", conf.SecretsFile)
		}
	}

	return sync.Sync(explicit)
}
