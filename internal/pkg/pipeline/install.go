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
	"bytes"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	shellwords "github.com/mattn/go-shellwords"
	"github.com/pkg/errors"
	"github.com/supadeploy/supadeploy/internal/pkg/config"
	"github.com/supadeploy/supadeploy/internal/pkg/interfaces"
	"github.com/supadeploy/supadeploy/internal/pkg/invoker"
	"github.com/supadeploy/supadeploy/internal/pkg/log"
	yaml "gopkg.in/yaml.v2"
)

// The script runs entirely server-side in a single invocation: it ensures
// the namespace, runs the upgrade-or-install, and on failure gathers the
// release status, pod listing and recent events itself so the operator never
// has to re-run diagnostics after a failed install.
const installScriptTemplate = `#!/usr/bin/env bash
set -euo pipefail
NS={{ .Namespace | squote }}
REL={{ .Release | squote }}
CHART={{ .ChartPath | squote }}
VALS={{ .ValuesPath | squote }}

kubectl create namespace "$NS" --dry-run=client -o yaml | kubectl apply -f -
helm upgrade --install "$REL" "$CHART" \
  --namespace "$NS" \
  --create-namespace \
  -f "$VALS" \
  --timeout={{ .Timeout }} \
  --wait \
  --debug{{ range .ExtraArgs }} {{ . | squote }}{{ end }} || INSTALL_ERR=$?

if [ -n "${INSTALL_ERR:-}" ]; then
  echo "--- Status ---"; helm -n "$NS" status "$REL" || true
  echo "--- Pods ---"; kubectl -n "$NS" get pods || true
  echo "--- Events ---"; kubectl -n "$NS" get events --sort-by='.lastTimestamp' | tail -20 || true
  exit 1
fi

helm -n "$NS" status "$REL"
kubectl -n "$NS" get pods
`

type installScriptVars struct {
	Namespace  string
	Release    string
	ChartPath  string
	ValuesPath string
	Timeout    string
	ExtraArgs  []string
}

// Renders the server-side install script for the given chart package and
// values file. Staged files are referenced by their remote mount path.
func renderInstallScript(conf *config.Conf, chartTgz string, valuesFile string) (string, error) {
	extraArgs := make([]string, 0)
	if conf.HelmExtraArgs != "" {
		parsed, err := shellwords.Parse(conf.HelmExtraArgs)
		if err != nil {
			return "", errors.Wrapf(err, "Error parsing helm extra args '%s'",
				conf.HelmExtraArgs)
		}

		extraArgs = parsed
	}

	tmpl, err := template.New("install").Funcs(sprig.TxtFuncMap()).
		Parse(installScriptTemplate)
	if err != nil {
		return "", errors.WithStack(err)
	}

	var rendered bytes.Buffer
	err = tmpl.Execute(&rendered, installScriptVars{
		Namespace:  conf.Namespace,
		Release:    conf.Release,
		ChartPath:  invoker.StagedPath(chartTgz),
		ValuesPath: invoker.StagedPath(valuesFile),
		Timeout:    conf.InstallTimeout,
		ExtraArgs:  extraArgs,
	})
	if err != nil {
		return "", errors.Wrap(err, "Error rendering the install script")
	}

	return rendered.String(), nil
}

// Verifies the values file parses as YAML before it's shipped to the
// cluster. A malformed file would otherwise only surface as a cryptic remote
// helm error.
func ValidateValuesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "Error reading values file '%s'", path)
	}

	var parsed map[interface{}]interface{}
	err = yaml.Unmarshal(data, &parsed)
	if err != nil {
		return errors.Wrapf(err, "Values file '%s' isn't valid YAML", path)
	}

	return nil
}

// Installs the packaged chart on the cluster by staging the install script,
// the chart package and the values file, then running the script remotely.
// Returns the remote log.
func InstallChart(inv interfaces.IInvoker, conf *config.Conf, chartTgz string,
	valuesFile string) (string, error) {

	err := ValidateValuesFile(valuesFile)
	if err != nil {
		return "", errors.WithStack(err)
	}

	script, err := renderInstallScript(conf, chartTgz, valuesFile)
	if err != nil {
		return "", errors.WithStack(err)
	}

	scratchDir, err := os.MkdirTemp("", "supadeploy-install-")
	if err != nil {
		return "", errors.Wrap(err, "Error creating scratch directory")
	}
	defer os.RemoveAll(scratchDir)

	scriptPath := filepath.Join(scratchDir, "install.sh")
	err = os.WriteFile(scriptPath, []byte(script), 0755)
	if err != nil {
		return "", errors.Wrapf(err, "Error writing install script '%s'", scriptPath)
	}

	log.Logger.Infof("Installing release '%s' into namespace '%s'",
		conf.Release, conf.Namespace)

	out, err := inv.Invoke("bash "+invoker.StagedPath(scriptPath),
		scriptPath, chartTgz, valuesFile)
	if err != nil {
		return out, errors.Wrapf(err, "Error installing release '%s'", conf.Release)
	}

	return out, nil
}
