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

// Read-only multi-probe status reporting for a deployment. Probes never
// mutate cluster state and are individually isolated so one broken probe
// (e.g. the add-on CRDs not being installed yet) can't hide the others'
// results.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/supadeploy/supadeploy/internal/pkg/azure"
	"github.com/supadeploy/supadeploy/internal/pkg/config"
	"github.com/supadeploy/supadeploy/internal/pkg/interfaces"
	"github.com/supadeploy/supadeploy/internal/pkg/invoker"
	"github.com/supadeploy/supadeploy/internal/pkg/utils"
)

const maxPodsListed = 10

type Reporter struct {
	conf   *config.Conf
	inv    interfaces.IInvoker
	runner interfaces.IRunner
	out    io.Writer
}

func NewReporter(conf *config.Conf, inv interfaces.IInvoker,
	runner interfaces.IRunner, out io.Writer) *Reporter {

	return &Reporter{
		conf:   conf,
		inv:    inv,
		runner: runner,
		out:    out,
	}
}

// Runs every probe in turn. A failing probe prints a single error line and
// the remaining probes still run.
func (r *Reporter) Report() {
	fmt.Fprintln(r.out, "=== Deployment Diagnostics ===")

	if err := r.clusterProbe(); err != nil {
		fmt.Fprintf(r.out, "cluster info error: %v\n", err)
	}

	if err := r.releaseProbe(); err != nil {
		fmt.Fprintf(r.out, "helm list error: %v\n", err)
	}

	if err := r.podsProbe(); err != nil {
		fmt.Fprintf(r.out, "pods error: %v\n", err)
	}

	if err := r.addonProbe(); err != nil {
		fmt.Fprintf(r.out, "secrets operator error: %v\n", err)
	}

	if err := r.eventsProbe(); err != nil {
		fmt.Fprintf(r.out, "events error: %v\n", err)
	}
}

type clusterInfo struct {
	Name              string `json:"name"`
	PowerState        string `json:"powerState"`
	ProvisioningState string `json:"provisioningState"`
	KubernetesVersion string `json:"kubernetesVersion"`
}

func (r *Reporter) clusterProbe() error {
	out, err := r.runner.Run(utils.NewCommandSpec(azure.AzPath, "aks", "show",
		"-g", r.conf.ResourceGroup,
		"-n", r.conf.ClusterName,
		"--query", "{name:name, powerState:powerState.code, "+
			"provisioningState:provisioningState, kubernetesVersion:kubernetesVersion}",
		"-o", "json"))
	if err != nil {
		return errors.WithStack(err)
	}

	var info clusterInfo
	err = json.Unmarshal([]byte(out), &info)
	if err != nil {
		return errors.Wrapf(err, "Error parsing cluster info: %s", out)
	}

	fmt.Fprintf(r.out, "Cluster: %s | Power: %s | State: %s | K8s: %s\n",
		info.Name, info.PowerState, info.ProvisioningState, info.KubernetesVersion)

	return nil
}

type helmRelease struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Status    string `json:"status"`
	Chart     string `json:"chart"`
	Revision  string `json:"revision"`
}

func (r *Reporter) releaseProbe() error {
	out, err := invoker.HelmListAll(r.inv)
	if err != nil {
		return errors.WithStack(err)
	}

	releases := make([]helmRelease, 0)
	if out != "" {
		err = json.Unmarshal([]byte(out), &releases)
		if err != nil {
			return errors.Wrapf(err, "Error parsing helm releases: %s", out)
		}
	}

	for _, release := range releases {
		if release.Name == r.conf.Release && release.Namespace == r.conf.Namespace {
			fmt.Fprintf(r.out, "Release %s in %s: %s | chart %s rev %s\n",
				release.Name, release.Namespace, release.Status, release.Chart,
				release.Revision)
			return nil
		}
	}

	fmt.Fprintf(r.out, "Release %s not found in %s.\n", r.conf.Release,
		r.conf.Namespace)

	return nil
}

type podList struct {
	Items []struct {
		Metadata struct {
			Name string `json:"name"`
		} `json:"metadata"`
		Status struct {
			Phase string `json:"phase"`
		} `json:"status"`
	} `json:"items"`
}

func (r *Reporter) podsProbe() error {
	out, err := invoker.KubectlGetJson(r.inv, r.conf.Namespace, "pods")
	if err != nil {
		return errors.WithStack(err)
	}

	var pods podList
	err = json.Unmarshal([]byte(out), &pods)
	if err != nil {
		return errors.Wrapf(err, "Error parsing pod listing: %s", out)
	}

	fmt.Fprintf(r.out, "Pods in %s: %d\n", r.conf.Namespace, len(pods.Items))

	for i, pod := range pods.Items {
		if i >= maxPodsListed {
			break
		}

		fmt.Fprintf(r.out, "  %s: %s\n", pod.Metadata.Name, pod.Status.Phase)
	}

	return nil
}

func (r *Reporter) addonProbe() error {
	out, err := invoker.KubectlGetText(r.inv, r.conf.Namespace,
		"secretstore,externalsecret")
	if err != nil {
		return errors.WithStack(err)
	}

	fmt.Fprintln(r.out, out)

	return nil
}

func (r *Reporter) eventsProbe() error {
	out, err := r.inv.Invoke(fmt.Sprintf(
		"kubectl -n %s get events --sort-by='.lastTimestamp' | tail -20",
		invoker.ShellQuote(r.conf.Namespace)))
	if err != nil {
		return errors.WithStack(err)
	}

	fmt.Fprintf(r.out, "Recent events:\n%s\n", out)

	return nil
}
