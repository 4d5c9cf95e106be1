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

// Fakes for the interfaces package, shared by tests across the repo
package mock

import (
	"strings"

	"github.com/supadeploy/supadeploy/internal/pkg/interfaces"
	"github.com/supadeploy/supadeploy/internal/pkg/utils"
)

// Records every spec it's asked to run and replies from canned responses
// keyed on a substring of the command line. Commands with no matching key
// succeed with empty output.
type FakeRunner struct {
	Specs     []utils.CommandSpec
	Responses map[string]string
	Errors    map[string]error

	// called after each run, e.g. to create files a real tool would produce
	OnRun func(spec utils.CommandSpec)
}

func (r *FakeRunner) Run(spec utils.CommandSpec) (string, error) {
	r.Specs = append(r.Specs, spec)

	if r.OnRun != nil {
		r.OnRun(spec)
	}

	cmdLine := spec.String()

	for key, err := range r.Errors {
		if strings.Contains(cmdLine, key) {
			return "", err
		}
	}

	for key, out := range r.Responses {
		if strings.Contains(cmdLine, key) {
			return out, nil
		}
	}

	return "", nil
}

// A remote invocation to the fake invoker
type Invocation struct {
	Command string
	Files   []string
}

type FakeInvoker struct {
	Invocations []Invocation
	Responses   map[string]string
	Errors      map[string]error
}

func (i *FakeInvoker) Invoke(command string, files ...string) (string, error) {
	i.Invocations = append(i.Invocations, Invocation{
		Command: command,
		Files:   files,
	})

	for key, err := range i.Errors {
		if strings.Contains(command, key) {
			return "", err
		}
	}

	for key, out := range i.Responses {
		if strings.Contains(command, key) {
			return out, nil
		}
	}

	return "", nil
}

func (i *FakeInvoker) ResourceGroup() string {
	return "fake-rg"
}

func (i *FakeInvoker) ClusterName() string {
	return "fake-aks"
}

// In-memory vault that counts writes so tests can assert idempotency
type FakeVaultClient struct {
	Secrets  map[string]string
	SetCalls int
}

func NewFakeVaultClient() *FakeVaultClient {
	return &FakeVaultClient{
		Secrets: map[string]string{},
	}
}

func (v *FakeVaultClient) SecretExists(vault string, name string) (bool, error) {
	_, ok := v.Secrets[name]
	return ok, nil
}

func (v *FakeVaultClient) SetSecret(vault string, name string, value string) error {
	v.SetCalls++
	v.Secrets[name] = value
	return nil
}

type FakeCloudClient struct {
	StorageAccount string
	StorageKey     string
	Identity       *interfaces.ClusterIdentity

	IdentityErr error
	AssignErr   error

	AssignedObjectIds []string
	AssignedScopes    []string
}

func (c *FakeCloudClient) FirstStorageAccount(resourceGroup string) (string, error) {
	return c.StorageAccount, nil
}

func (c *FakeCloudClient) StorageAccountKey(account string, resourceGroup string) (string, error) {
	return c.StorageKey, nil
}

func (c *FakeCloudClient) ClusterIdentity(resourceGroup string, clusterName string) (
	*interfaces.ClusterIdentity, error) {

	if c.IdentityErr != nil {
		return nil, c.IdentityErr
	}

	if c.Identity == nil {
		return &interfaces.ClusterIdentity{}, nil
	}

	return c.Identity, nil
}

func (c *FakeCloudClient) AssignVaultRole(objectId string, scope string) error {
	if c.AssignErr != nil {
		return c.AssignErr
	}

	c.AssignedObjectIds = append(c.AssignedObjectIds, objectId)
	c.AssignedScopes = append(c.AssignedScopes, scope)

	return nil
}

var _ interfaces.IRunner = (*FakeRunner)(nil)
var _ interfaces.IInvoker = (*FakeInvoker)(nil)
var _ interfaces.IVaultClient = (*FakeVaultClient)(nil)
var _ interfaces.ICloudClient = (*FakeCloudClient)(nil)
