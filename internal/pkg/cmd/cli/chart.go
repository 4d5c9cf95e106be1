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

type deployChartCmd struct {
	out           io.Writer
	resourceGroup string
	clusterName   string
	namespace     string
	release       string
	chartTgz      string
	valuesFile    string
}

func newDeployChartCmd(out io.Writer) *cobra.Command {
	c := &deployChartCmd{
		out: out,
	}

	cmd := &cobra.Command{
		Use:   "deploy-chart [flags]",
		Short: "Install a pre-packaged chart (.tgz) on the cluster",
		Long: `Install an already-packaged application chart server-side, skipping the
add-on, secret and packaging stages of the full pipeline. Useful when the
chart was packaged earlier or built elsewhere.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.WithStack(c.run())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&c.resourceGroup, "resource-group", "g", "", "resource group containing the cluster")
	f.StringVarP(&c.clusterName, "cluster-name", "n", "", "name of the AKS cluster")
	f.StringVar(&c.namespace, "namespace", "", "namespace to install the release into")
	f.StringVar(&c.release, "release", "", "name of the helm release")
	f.StringVar(&c.chartTgz, "chart-tgz", "", "path to the packaged chart .tgz")
	f.StringVar(&c.valuesFile, "values-file", "", "path to the helm values file")

	for _, flag := range []string{"resource-group", "cluster-name", "chart-tgz", "values-file"} {
		cobra.MarkFlagRequired(f, flag)
	}

	return cmd
}

func (c *deployChartCmd) run() error {
	conf, err := mergedConf(&config.Conf{
		ResourceGroup: c.resourceGroup,
		ClusterName:   c.clusterName,
		Namespace:     c.namespace,
		Release:       c.release,
		ValuesFile:    c.valuesFile,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	inv, err := newInvoker(conf)
	if err != nil {
		return errors.WithStack(err)
	}

	deployer := pipeline.NewDeployer(conf, inv, nil, nil)

	return deployer.DeployChart(c.chartTgz)
}
