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

package invoker

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/supadeploy/supadeploy/internal/pkg/config"
	"github.com/supadeploy/supadeploy/internal/pkg/interfaces"
	"github.com/supadeploy/supadeploy/internal/pkg/utils"
)

// todo - make configurable
const AzPath = "az"

// The AKS run-command executor relocates staged files to this directory
// before running the submitted command, so remote commands must reference
// them by this path, never by their original local path.
const MountPath = "/command-files"

// Invokes commands on the AKS control plane via `az aks command invoke`.
// There is no persistent remote connection - every operation is a
// self-contained command string whose captured log is returned once the
// remote run finishes. Multi-step remote logic (check-then-create, polling)
// is expressed as shell conditionals inside a single submitted command since
// no shell state survives between invocations.
type AksInvoker struct {
	resourceGroup string
	clusterName   string
	runner        interfaces.IRunner
}

func NewAksInvoker(conf *config.Conf, runner interfaces.IRunner) (*AksInvoker, error) {
	if conf.ResourceGroup == "" || conf.ClusterName == "" {
		return nil, errors.New("Both a resource group and cluster name are " +
			"required to invoke commands on a cluster")
	}

	return &AksInvoker{
		resourceGroup: conf.ResourceGroup,
		clusterName:   conf.ClusterName,
		runner:        runner,
	}, nil
}

func (i *AksInvoker) ResourceGroup() string {
	return i.resourceGroup
}

func (i *AksInvoker) ClusterName() string {
	return i.clusterName
}

// Submits the command for remote execution, staging any given local files
// alongside it, and blocks until the captured log text is returned.
func (i *AksInvoker) Invoke(command string, files ...string) (string, error) {
	args := []string{"aks", "command", "invoke",
		"-g", i.resourceGroup,
		"-n", i.clusterName,
		"--command", command,
		"--query", "logs",
		"-o", "tsv",
	}

	for _, f := range files {
		args = append(args, "--file", f)
	}

	out, err := i.runner.Run(utils.NewCommandSpec(AzPath, args...))
	if err != nil {
		return out, errors.WithStack(err)
	}

	return out, nil
}

// The path a staged local file will be mounted at on the remote executor
func StagedPath(localPath string) string {
	return MountPath + "/" + filepath.Base(localPath)
}

// Wraps a string in single quotes for safe embedding in a remote shell
// command
func ShellQuote(s string) string {
	return "'" + strings.Replace(s, "'", `'"'"'`, -1) + "'"
}

// Idempotently creates a namespace. Expressed as a remote shell conditional
// because a bare `kubectl create ns` fails if the namespace already exists.
func EnsureNamespace(inv interfaces.IInvoker, namespace string) error {
	ns := ShellQuote(namespace)
	cmd := fmt.Sprintf("kubectl get ns %s >/dev/null 2>&1 || kubectl create ns %s",
		ns, ns)

	_, err := inv.Invoke(cmd)
	if err != nil {
		return errors.Wrapf(err, "Error ensuring namespace '%s' exists", namespace)
	}

	return nil
}

// Applies local manifest files one at a time by staging each and referencing
// its mount path. Piping manifests over stdin trips up the remote executor
// ('no objects passed to apply'), hence the staged-file approach.
func ApplyFiles(inv interfaces.IInvoker, files []string) error {
	for _, f := range files {
		cmd := fmt.Sprintf("kubectl apply -f %s", StagedPath(f))

		_, err := inv.Invoke(cmd, f)
		if err != nil {
			return errors.Wrapf(err, "Error applying manifest '%s'", f)
		}
	}

	return nil
}

// Lists all helm releases across namespaces as JSON
func HelmListAll(inv interfaces.IInvoker) (string, error) {
	return inv.Invoke("helm list -A -o json")
}

// Fetches the named resources in a namespace as JSON
func KubectlGetJson(inv interfaces.IInvoker, namespace string, what string) (string, error) {
	return inv.Invoke(fmt.Sprintf("kubectl -n %s get %s -o json",
		ShellQuote(namespace), what))
}

// Fetches the named resources in a namespace in kubectl's table format
func KubectlGetText(inv interfaces.IInvoker, namespace string, what string) (string, error) {
	return inv.Invoke(fmt.Sprintf("kubectl -n %s get %s",
		ShellQuote(namespace), what))
}
