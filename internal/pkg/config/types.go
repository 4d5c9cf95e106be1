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

package config

import (
	"github.com/imdario/mergo"
	"github.com/pkg/errors"
)

// Conf is the explicit configuration object threaded through every component
// constructor. No component reads ambient environment variables directly -
// anything from the environment arrives here via viper.
type Conf struct {
	JsonLogs bool   `mapstructure:"json-logs"`
	LogLevel string `mapstructure:"log-level"`

	ResourceGroup string `mapstructure:"resource-group"`
	ClusterName   string `mapstructure:"cluster-name"`
	Namespace     string `mapstructure:"namespace"`
	KeyVault      string `mapstructure:"key-vault"`
	Release       string `mapstructure:"release"`
	ValuesFile    string `mapstructure:"values-file"`
	SecretsFile   string `mapstructure:"secrets-file"`

	// where to fetch the application chart source archive from
	ChartZipUrl string `mapstructure:"chart-zip-url"`

	// extra args appended to `helm upgrade --install`, parsed with shellwords
	HelmExtraArgs string `mapstructure:"helm-extra-args"`

	// passed through to helm's own --timeout on install
	InstallTimeout string `mapstructure:"install-timeout"`

	GenerateDefaultSecrets bool `mapstructure:"generate-default-secrets"`
	SkipRoleAssignment     bool `mapstructure:"skip-role-assignment"`
}

// Merges values from the given overrides into this config. Non-empty override
// values win, so CLI flags take precedence over file/env settings.
func (c *Conf) Merge(overrides *Conf) error {
	if overrides == nil {
		return nil
	}

	err := mergo.Merge(c, overrides, mergo.WithOverride)
	if err != nil {
		return errors.Wrapf(err, "Error merging config overrides")
	}

	return nil
}
