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
	"github.com/spf13/cobra"
	"github.com/supadeploy/supadeploy/internal/pkg/cmd/version"
	"github.com/supadeploy/supadeploy/internal/pkg/config"
	"github.com/supadeploy/supadeploy/internal/pkg/log"
)

const longUsage = `Supadeploy deploys a managed Supabase stack onto an AKS cluster and keeps
its secrets and add-ons in sync.

The cluster is driven exclusively through the AKS run-command channel, so no
direct network line of sight to the API server is needed - only the Azure CLI
and helm need to be installed locally.

A typical flow:

  * 'aks-configure' applies the cluster baseline: namespace, the External
    Secrets Operator, an internally load-balanced nginx ingress, and any
    baseline manifests (autoscalers, network policies).
  * 'secrets-sync' resolves the application's secret set (explicit values,
    generated defaults, cloud-discovered storage credentials) and upserts it
    into a Key Vault. Existing secrets are never overwritten, so re-runs are
    safe.
  * 'deploy' runs the full pipeline: ensure the secrets operator, sync
    secrets, apply manifests, package the application chart from source and
    install it server-side.
  * 'diagnose' and 'smoke-test' inspect a deployment after the fact without
    mutating anything.

Settings can come from CLI flags, SUPADEPLOY_* environment variables or a
supadeploy.yaml config file, in that order of precedence.
`

func NewCommand(name string) *cobra.Command {

	var logLevel string
	var jsonLogs bool

	cmd := &cobra.Command{
		Use:   name,
		Short: "Supabase deployment for AKS clusters",
		Long:  longUsage,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := config.Load(config.ViperConfig)
			if err != nil {
				return err
			}

			if logLevel == "" {
				logLevel = config.Config.LogLevel
			}

			log.ConfigureLogger(logLevel, jsonLogs)

			return nil
		},
		SilenceUsage: true,
	}

	out := cmd.OutOrStdout()

	cmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "",
		"log level. One of none|debug|info|warn|error")
	cmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false,
		"emit logs as JSON")

	cmd.AddCommand(
		version.NewCommand(),
		newDeployCmd(out),
		newConfigureCmd(out),
		newSecretsSyncCmd(out),
		newDeployChartCmd(out),
		newDiagnoseCmd(out),
		newSmokeTestCmd(out),
	)

	return cmd
}
