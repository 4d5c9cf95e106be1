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

package smoketest

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supadeploy/supadeploy/internal/pkg/config"
	"github.com/supadeploy/supadeploy/internal/pkg/log"
	"github.com/supadeploy/supadeploy/internal/pkg/mock"
	"github.com/supadeploy/supadeploy/internal/pkg/printer"
)

func init() {
	log.ConfigureLogger("none", false)
}

func TestRunInternal(t *testing.T) {
	var out bytes.Buffer
	printer.SetOutput(&out)
	defer printer.SetOutput(os.Stdout)

	inv := &mock.FakeInvoker{
		Responses: map[string]string{"smoke.sh": "CODE:200"},
	}

	err := RunInternal(&config.Conf{Namespace: "supabase"}, inv)
	require.Nil(t, err)

	require.Len(t, inv.Invocations, 1)
	invocation := inv.Invocations[0]
	assert.Equal(t, "bash /command-files/smoke.sh", invocation.Command)
	require.Len(t, invocation.Files, 1)
	assert.Contains(t, invocation.Files[0], "smoke.sh")

	assert.Contains(t, out.String(), "CODE:200")
}

func TestRunExternal(t *testing.T) {
	var out bytes.Buffer
	printer.SetOutput(&out)
	defer printer.SetOutput(os.Stdout)

	requested := ""
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requested = r.URL.Path
			w.Write([]byte(`[]`))
		}))
	defer server.Close()

	err := RunExternal(nil, server.URL, false)
	require.Nil(t, err)
	assert.Equal(t, "/rest/v1/", requested)
	assert.Contains(t, out.String(), "HTTP 200")
}

func TestRunExternalNon200(t *testing.T) {
	var out bytes.Buffer
	printer.SetOutput(&out)
	defer printer.SetOutput(os.Stdout)

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
	defer server.Close()

	err := RunExternal(nil, server.URL, false)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestRunExternalDiscoversIngressIp(t *testing.T) {
	var out bytes.Buffer
	printer.SetOutput(&out)
	defer printer.SetOutput(os.Stdout)

	inv := &mock.FakeInvoker{
		Responses: map[string]string{"ingress-nginx-controller": "'203.0.113.7'"},
	}

	// 203.0.113.7.nip.io isn't resolvable in tests, so the probe itself
	// fails, but by then the discovered URL has been printed
	err := RunExternal(inv, "", false)
	require.NotNil(t, err)

	assert.Contains(t, out.String(), "http://203.0.113.7.nip.io/rest/v1/")
	require.Len(t, inv.Invocations, 1)
	assert.Contains(t, inv.Invocations[0].Command, "ingress-nginx get svc")
}

func TestRunExternalNoIngressIp(t *testing.T) {
	inv := &mock.FakeInvoker{}

	err := RunExternal(inv, "", false)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "No ingress IP found")
}
