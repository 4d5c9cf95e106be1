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
	"github.com/supadeploy/supadeploy/internal/pkg/interfaces"
	"github.com/supadeploy/supadeploy/internal/pkg/smoketest"
)

type smokeTestCmd struct {
	out           io.Writer
	resourceGroup string
	clusterName   string
	baseUrl       string
	internal      bool
	openBrowser   bool
}

func newSmokeTestCmd(out io.Writer) *cobra.Command {
	c := &smokeTestCmd{
		out: out,
	}

	cmd := &cobra.Command{
		Use:   "smoke-test [flags]",
		Short: "Probe the deployed REST gateway",
		Long: `Verify a deployment responds. In internal mode a short-lived curl pod is
created in the cluster and probes the Kong service directly - useful when
the ingress is internal-only. In external mode the gateway is fetched
through the ingress; if no base URL is given the ingress IP is discovered
and a nip.io hostname is built from it.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.WithStack(c.run())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&c.resourceGroup, "resource-group", "g", "", "resource group containing the cluster")
	f.StringVarP(&c.clusterName, "cluster-name", "n", "", "name of the AKS cluster")
	f.StringVar(&c.baseUrl, "base-url", "", "base URL to test against (discovered from the ingress if empty)")
	f.BoolVar(&c.internal, "internal", false, "probe from inside the cluster instead of via the ingress")
	f.BoolVar(&c.openBrowser, "open", false, "open the probed URL in a browser afterwards")

	return cmd
}

func (c *smokeTestCmd) run() error {
	conf, err := mergedConf(&config.Conf{
		ResourceGroup: c.resourceGroup,
		ClusterName:   c.clusterName,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	// only cluster-side probes need the remote invoker - an external test
	// against an explicit base URL runs entirely locally
	var inv interfaces.IInvoker
	if c.internal || c.baseUrl == "" {
		inv, err = newInvoker(conf)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	if c.internal {
		return smoketest.RunInternal(conf, inv)
	}

	return smoketest.RunExternal(inv, c.baseUrl, c.openBrowser)
}
