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
	"github.com/supadeploy/supadeploy/internal/pkg/diagnostics"
	"github.com/supadeploy/supadeploy/internal/pkg/utils"
)

type diagnoseCmd struct {
	out           io.Writer
	resourceGroup string
	clusterName   string
	namespace     string
	release       string
}

func newDiagnoseCmd(out io.Writer) *cobra.Command {
	c := &diagnoseCmd{
		out: out,
	}

	cmd := &cobra.Command{
		Use:   "diagnose [flags]",
		Short: "Report the status of a deployment without changing anything",
		Long: `Run a set of read-only probes against the cluster and deployment: cluster
power/provisioning state, the helm release, the pod listing, the secrets
operator's custom resources and a tail of recent events. Probes are
independent - one failing doesn't stop the rest.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.WithStack(c.run())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&c.resourceGroup, "resource-group", "g", "", "resource group containing the cluster")
	f.StringVarP(&c.clusterName, "cluster-name", "n", "", "name of the AKS cluster")
	f.StringVar(&c.namespace, "namespace", "", "namespace of the release")
	f.StringVar(&c.release, "release", "", "name of the helm release")

	for _, flag := range []string{"resource-group", "cluster-name"} {
		cobra.MarkFlagRequired(f, flag)
	}

	return cmd
}

func (c *diagnoseCmd) run() error {
	conf, err := mergedConf(&config.Conf{
		ResourceGroup: c.resourceGroup,
		ClusterName:   c.clusterName,
		Namespace:     c.namespace,
		Release:       c.release,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	inv, err := newInvoker(conf)
	if err != nil {
		return errors.WithStack(err)
	}

	reporter := diagnostics.NewReporter(conf, inv, utils.CommandRunner{}, c.out)
	reporter.Report()

	return nil
}
