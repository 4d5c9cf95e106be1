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

package pipeline

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/supadeploy/supadeploy/internal/pkg/addons"
	"github.com/supadeploy/supadeploy/internal/pkg/chart"
	"github.com/supadeploy/supadeploy/internal/pkg/config"
	"github.com/supadeploy/supadeploy/internal/pkg/interfaces"
	"github.com/supadeploy/supadeploy/internal/pkg/invoker"
	"github.com/supadeploy/supadeploy/internal/pkg/log"
	"github.com/supadeploy/supadeploy/internal/pkg/printer"
	"github.com/supadeploy/supadeploy/internal/pkg/secrets"
)

// Runs the end-to-end deployment workflow against a cluster
type Deployer struct {
	conf     *config.Conf
	inv      interfaces.IInvoker
	sync     *secrets.Synchroniser
	packager *chart.Packager
}

func NewDeployer(conf *config.Conf, inv interfaces.IInvoker,
	sync *secrets.Synchroniser, packager *chart.Packager) *Deployer {

	return &Deployer{
		conf:     conf,
		inv:      inv,
		sync:     sync,
		packager: packager,
	}
}

// Deploys the full stack: ensure the secrets operator is present, sync vault
// secrets, apply the baseline manifests, package the application chart and
// install it. Stages run strictly in order and the first fatal failure
// aborts the rest.
func (d *Deployer) Deploy() error {
	if _, err := os.Stat(d.conf.ValuesFile); err != nil {
		return errors.New("Values file not found: " + d.conf.ValuesFile)
	}

	var chartTgz string

	stages := []Stage{
		{
			Name: StageEnsureAddon,
			Action: func() error {
				return addons.EnsureExternalSecrets(d.inv)
			},
		},
		{
			Name: StageSyncSecrets,
			Action: func() error {
				explicit, err := d.loadExplicitSecrets()
				if err != nil {
					return errors.WithStack(err)
				}

				return d.sync.Sync(explicit)
			},
		},
		{
			Name: StageApplyManifests,
			Action: func() error {
				return ApplyManifests(d.inv, SecretsManifests)
			},
		},
		{
			Name: StagePackageChart,
			Action: func() error {
				tgz, err := d.packager.PackageFromZip(d.conf.ChartZipUrl)
				if err != nil {
					return errors.WithStack(err)
				}

				chartTgz = tgz

				return nil
			},
		},
		{
			Name: StageInstallChart,
			Action: func() error {
				defer os.RemoveAll(filepath.Dir(chartTgz))

				out, err := InstallChart(d.inv, d.conf, chartTgz, d.conf.ValuesFile)
				if err != nil {
					return errors.WithStack(err)
				}

				printer.Fprintln(out)

				return nil
			},
		},
	}

	return Run(stages)
}

// Installs a pre-packaged chart directly, skipping the earlier stages
func (d *Deployer) DeployChart(chartTgz string) error {
	if _, err := os.Stat(chartTgz); err != nil {
		return errors.New("Chart package not found: " + chartTgz)
	}

	if _, err := os.Stat(d.conf.ValuesFile); err != nil {
		return errors.New("Values file not found: " + d.conf.ValuesFile)
	}

	out, err := InstallChart(d.inv, d.conf, chartTgz, d.conf.ValuesFile)
	if err != nil {
		return errors.WithStack(err)
	}

	printer.Fprintln(out)

	return nil
}

func (d *Deployer) loadExplicitSecrets() (secrets.Set, error) {
	if d.conf.SecretsFile == "" {
		return secrets.Set{}, nil
	}

	if _, err := os.Stat(d.conf.SecretsFile); err != nil {
		log.Logger.Warnf("Secrets file '%s' doesn't exist. Continuing without "+
			"explicit secrets", d.conf.SecretsFile)
		return secrets.Set{}, nil
	}

	return secrets.LoadSecretsFile(d.conf.SecretsFile)
}

// Applies the cluster baseline: namespace, add-ons, ingress controller and
// whichever baseline manifests exist locally. The internal load balancer
// annotation is best-effort.
func Configure(conf *config.Conf, inv interfaces.IInvoker) error {
	printer.Fprintf("Configuring cluster [bold]%s/%s[reset]...\n",
		conf.ResourceGroup, conf.ClusterName)

	stages := []Stage{
		{
			Name: "ensure-namespace",
			Action: func() error {
				return invoker.EnsureNamespace(inv, conf.Namespace)
			},
		},
		{
			Name: StageEnsureAddon,
			Action: func() error {
				return addons.EnsureExternalSecrets(inv)
			},
		},
		{
			Name: "install-ingress",
			Action: func() error {
				err := addons.InstallIngressNginx(inv)
				if err != nil {
					return errors.WithStack(err)
				}

				addons.AnnotateIngressInternal(inv)

				return nil
			},
		},
		{
			Name: StageApplyManifests,
			Action: func() error {
				manifests := append(append([]string{}, SecretsManifests...),
					BaselineManifests...)
				return ApplyExistingManifests(inv, manifests)
			},
		},
	}

	err := Run(stages)
	if err != nil {
		return errors.WithStack(err)
	}

	printer.Fprintln("Cluster baseline configuration complete.")

	return nil
}
