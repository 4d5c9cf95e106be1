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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supadeploy/supadeploy/internal/pkg/config"
	"github.com/supadeploy/supadeploy/internal/pkg/log"
	"github.com/supadeploy/supadeploy/internal/pkg/mock"
)

func init() {
	log.ConfigureLogger("none", false)
}

func testConf() *config.Conf {
	return &config.Conf{
		ResourceGroup: "rg1",
		ClusterName:   "aks1",
		Namespace:     "supabase",
	}
}

func TestNewAksInvokerRequiresTarget(t *testing.T) {
	tests := []struct {
		name string
		conf *config.Conf
	}{
		{"no-resource-group", &config.Conf{ClusterName: "aks1"}},
		{"no-cluster-name", &config.Conf{ResourceGroup: "rg1"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewAksInvoker(test.conf, &mock.FakeRunner{})
			assert.NotNil(t, err)
		})
	}
}

func TestInvokeBuildsAzCommand(t *testing.T) {
	runner := &mock.FakeRunner{
		Responses: map[string]string{"command invoke": "pod/thing created"},
	}

	inv, err := NewAksInvoker(testConf(), runner)
	require.Nil(t, err)

	out, err := inv.Invoke("kubectl get pods")
	require.Nil(t, err)
	assert.Equal(t, "pod/thing created", out)

	require.Len(t, runner.Specs, 1)
	spec := runner.Specs[0]
	assert.Equal(t, AzPath, spec.Command)
	assert.Equal(t, []string{"aks", "command", "invoke",
		"-g", "rg1", "-n", "aks1",
		"--command", "kubectl get pods",
		"--query", "logs", "-o", "tsv"}, spec.Args)
}

func TestInvokeStagesFiles(t *testing.T) {
	runner := &mock.FakeRunner{}

	inv, err := NewAksInvoker(testConf(), runner)
	require.Nil(t, err)

	_, err = inv.Invoke("bash /command-files/install.sh",
		"/tmp/work/install.sh", "/tmp/work/values.yaml")
	require.Nil(t, err)

	require.Len(t, runner.Specs, 1)
	args := runner.Specs[0].Args
	assert.Contains(t, args, "--file")
	assert.Contains(t, args, "/tmp/work/install.sh")
	assert.Contains(t, args, "/tmp/work/values.yaml")

	// each file gets its own --file flag
	flags := 0
	for _, arg := range args {
		if arg == "--file" {
			flags++
		}
	}
	assert.Equal(t, 2, flags)
}

func TestStagedPath(t *testing.T) {
	assert.Equal(t, "/command-files/values.yaml",
		StagedPath("/some/deep/local/dir/values.yaml"))
	assert.Equal(t, "/command-files/chart.tgz", StagedPath("chart.tgz"))
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "supabase", "'supabase'"},
		{"spaces", "a b", "'a b'"},
		{"single-quote", "it's", `'it'"'"'s'`},
		{"empty", "", "''"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, ShellQuote(test.input))
		})
	}
}

// The namespace is always shell-quoted into the remote command string
func TestEnsureNamespace(t *testing.T) {
	inv := &mock.FakeInvoker{}

	err := EnsureNamespace(inv, "supabase")
	require.Nil(t, err)

	require.Len(t, inv.Invocations, 1)
	cmd := inv.Invocations[0].Command
	assert.Contains(t, cmd, "kubectl get ns 'supabase'")
	assert.Contains(t, cmd, "kubectl create ns 'supabase'")
}

func TestApplyFiles(t *testing.T) {
	inv := &mock.FakeInvoker{}

	err := ApplyFiles(inv, []string{
		"/local/k8s/eso/secretstore.yaml",
		"/local/k8s/s3proxy/deployment.yaml",
	})
	require.Nil(t, err)

	require.Len(t, inv.Invocations, 2)
	assert.Equal(t, "kubectl apply -f /command-files/secretstore.yaml",
		inv.Invocations[0].Command)
	assert.Equal(t, []string{"/local/k8s/eso/secretstore.yaml"},
		inv.Invocations[0].Files)
	assert.Equal(t, "kubectl apply -f /command-files/deployment.yaml",
		inv.Invocations[1].Command)
}

func TestHelmListAll(t *testing.T) {
	inv := &mock.FakeInvoker{
		Responses: map[string]string{"helm list": `[]`},
	}

	out, err := HelmListAll(inv)
	require.Nil(t, err)
	assert.Equal(t, "[]", out)
	assert.Equal(t, "helm list -A -o json", inv.Invocations[0].Command)
}
