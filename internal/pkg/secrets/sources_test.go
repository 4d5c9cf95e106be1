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

package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supadeploy/supadeploy/internal/pkg/log"
	"github.com/supadeploy/supadeploy/internal/pkg/mock"
)

func init() {
	log.ConfigureLogger("none", false)
}

func TestMergeNeverOverwrites(t *testing.T) {
	base := Set{"a": "1"}

	merged := merge(base, Set{"a": "2", "b": "3"})

	assert.Equal(t, Set{"a": "1", "b": "3"}, merged)
	// input untouched
	assert.Equal(t, Set{"a": "1"}, base)
}

func TestGeneratedSourceDisabled(t *testing.T) {
	set, err := GeneratedSource(false)(Set{"a": "1"})
	require.Nil(t, err)
	assert.Equal(t, Set{"a": "1"}, set)
}

func TestGeneratedSourceValues(t *testing.T) {
	set, err := GeneratedSource(true)(Set{})
	require.Nil(t, err)

	for _, key := range []string{JwtSecretKey, AnonKeyKey, ServiceRoleKeyKey} {
		// 48 random bytes, hex encoded
		assert.Len(t, set[key], 96, key)
	}

	assert.Equal(t, defaultPostgresConnString, set[PostgresConnStringKey])
	assert.Equal(t, defaultStorageCreds, set[StorageCredsKey])
}

func TestGeneratedSourceKeepsExplicitValues(t *testing.T) {
	set, err := GeneratedSource(true)(Set{JwtSecretKey: "keepme"})
	require.Nil(t, err)
	assert.Equal(t, "keepme", set[JwtSecretKey])
}

func TestCloudSourceDiscoversStorageCreds(t *testing.T) {
	cloud := &mock.FakeCloudClient{
		StorageAccount: "acct1",
		StorageKey:     "key123",
	}

	set, err := CloudSource(cloud, "rg1")(Set{})
	require.Nil(t, err)

	assert.Equal(t, "acct1", set[StorageAccountNameKey])
	assert.Equal(t, "key123", set[StorageAccountKeyKey])
}

func TestCloudSourceSkipsWhenResolved(t *testing.T) {
	cloud := &mock.FakeCloudClient{
		StorageAccount: "acct1",
		StorageKey:     "key123",
	}

	explicit := Set{
		StorageAccountNameKey: "explicit-acct",
		StorageAccountKeyKey:  "explicit-key",
	}

	set, err := CloudSource(cloud, "rg1")(explicit)
	require.Nil(t, err)

	assert.Equal(t, "explicit-acct", set[StorageAccountNameKey])
	assert.Equal(t, "explicit-key", set[StorageAccountKeyKey])
}

func TestCloudSourceSkipsWithoutResourceGroup(t *testing.T) {
	cloud := &mock.FakeCloudClient{StorageAccount: "acct1", StorageKey: "k"}

	set, err := CloudSource(cloud, "")(Set{})
	require.Nil(t, err)
	assert.Empty(t, set)
}

func TestDerivedSource(t *testing.T) {
	tests := []struct {
		name     string
		input    Set
		expected string
	}{
		{
			"derives-from-pair",
			Set{StorageAccountNameKey: "acct1", StorageAccountKeyKey: "key123"},
			"DefaultEndpointsProtocol=https;AccountName=acct1;" +
				"AccountKey=key123;EndpointSuffix=core.windows.net",
		},
		{
			"keeps-existing",
			Set{
				StorageAccountNameKey: "acct1",
				StorageAccountKeyKey:  "key123",
				StorageConnStringKey:  "custom",
			},
			"custom",
		},
		{
			"skipped-without-pair",
			Set{StorageAccountNameKey: "acct1"},
			"",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			set, err := DerivedSource(test.input)
			require.Nil(t, err)
			assert.Equal(t, test.expected, set[StorageConnStringKey])
		})
	}
}
