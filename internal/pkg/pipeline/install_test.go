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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supadeploy/supadeploy/internal/pkg/config"
	"github.com/supadeploy/supadeploy/internal/pkg/mock"
)

func installConf() *config.Conf {
	return &config.Conf{
		Namespace:      "supabase",
		Release:        "supabase",
		InstallTimeout: "15m",
	}
}

func TestRenderInstallScript(t *testing.T) {
	conf := installConf()
	conf.HelmExtraArgs = "--set studio.enabled=true --atomic"

	script, err := renderInstallScript(conf, "/tmp/scratch/supabase-0.1.0.tgz",
		"/home/user/values.yaml")
	require.Nil(t, err)

	// staged files are referenced by their remote mount path
	assert.Contains(t, script, "CHART='/command-files/supabase-0.1.0.tgz'")
	assert.Contains(t, script, "VALS='/command-files/values.yaml'")
	assert.Contains(t, script, "NS='supabase'")
	assert.Contains(t, script, "REL='supabase'")
	assert.Contains(t, script, "--timeout=15m")
	assert.Contains(t, script, "'--set' 'studio.enabled=true' '--atomic'")
	assert.Contains(t, script, "helm upgrade --install")
	assert.Contains(t, script, "set -euo pipefail")
}

func TestRenderInstallScriptNoExtraArgs(t *testing.T) {
	script, err := renderInstallScript(installConf(), "chart.tgz", "values.yaml")
	require.Nil(t, err)
	assert.Contains(t, script, "--debug ||")
}

func TestRenderInstallScriptBadExtraArgs(t *testing.T) {
	conf := installConf()
	conf.HelmExtraArgs = "--set 'unterminated"

	_, err := renderInstallScript(conf, "chart.tgz", "values.yaml")
	assert.NotNil(t, err)
}

func TestValidateValuesFile(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "values.yaml")
	require.Nil(t, os.WriteFile(valid,
		[]byte("studio:\n  enabled: true\n"), 0644))
	assert.Nil(t, ValidateValuesFile(valid))

	invalid := filepath.Join(dir, "broken.yaml")
	require.Nil(t, os.WriteFile(invalid,
		[]byte("studio:\n\tenabled: true\n"), 0644))
	assert.NotNil(t, ValidateValuesFile(invalid))

	assert.NotNil(t, ValidateValuesFile(filepath.Join(dir, "missing.yaml")))
}

func TestInstallChartStagesAllThreeFiles(t *testing.T) {
	dir := t.TempDir()

	chartTgz := filepath.Join(dir, "supabase-0.1.0.tgz")
	require.Nil(t, os.WriteFile(chartTgz, []byte("tgz"), 0644))

	valuesFile := filepath.Join(dir, "values.yaml")
	require.Nil(t, os.WriteFile(valuesFile, []byte("studio: {}\n"), 0644))

	inv := &mock.FakeInvoker{
		Responses: map[string]string{"install.sh": "deployed"},
	}

	out, err := InstallChart(inv, installConf(), chartTgz, valuesFile)
	require.Nil(t, err)
	assert.Equal(t, "deployed", out)

	require.Len(t, inv.Invocations, 1)
	invocation := inv.Invocations[0]
	assert.Equal(t, "bash /command-files/install.sh", invocation.Command)

	require.Len(t, invocation.Files, 3)
	assert.Contains(t, invocation.Files[0], "install.sh")
	assert.Equal(t, chartTgz, invocation.Files[1])
	assert.Equal(t, valuesFile, invocation.Files[2])
}

func TestInstallChartRejectsBadValuesFile(t *testing.T) {
	dir := t.TempDir()

	chartTgz := filepath.Join(dir, "supabase-0.1.0.tgz")
	require.Nil(t, os.WriteFile(chartTgz, []byte("tgz"), 0644))

	valuesFile := filepath.Join(dir, "values.yaml")
	require.Nil(t, os.WriteFile(valuesFile, []byte("a:\n\tb: c\n"), 0644))

	inv := &mock.FakeInvoker{}

	_, err := InstallChart(inv, installConf(), chartTgz, valuesFile)
	require.NotNil(t, err)
	assert.Empty(t, inv.Invocations)
}
