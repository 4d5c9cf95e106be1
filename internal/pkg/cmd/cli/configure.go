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

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/supadeploy/supadeploy/internal/pkg/config"
	"github.com/supadeploy/supadeploy/internal/pkg/pipeline"
)

type configureCmd struct {
	out           io.Writer
	resourceGroup string
	clusterName   string
	namespace     string
}

func newConfigureCmd(out io.Writer) *cobra.Command {
	c := &configureCmd{
		out: out,
	}

	cmd := &cobra.Command{
		Use:     "aks-configure [flags]",
		Aliases: []string{"addon-configure"},
		Short:   "Apply the cluster baseline (namespace, add-ons, ingress, policies)",
		Long: `Configure an AKS cluster's baseline before deploying the application:
ensure the namespace exists, install the External Secrets Operator and the
nginx ingress controller, annotate the ingress for an internal load
balancer, and apply whichever baseline manifests exist locally.

Every step is idempotent, so re-running against an already-configured
cluster is safe.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.WithStack(c.run())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&c.resourceGroup, "resource-group", "g", "", "resource group containing the cluster")
	f.StringVarP(&c.clusterName, "cluster-name", "n", "", "name of the AKS cluster")
	f.StringVar(&c.namespace, "namespace", "", "application namespace to ensure")

	for _, flag := range []string{"resource-group", "cluster-name"} {
		cobra.MarkFlagRequired(f, flag)
	}

	return cmd
}

func (c *configureCmd) run() error {
	conf, err := mergedConf(&config.Conf{
		ResourceGroup: c.resourceGroup,
		ClusterName:   c.clusterName,
		Namespace:     c.namespace,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	inv, err := newInvoker(conf)
	if err != nil {
		return errors.WithStack(err)
	}

	return pipeline.Configure(conf, inv)
}
