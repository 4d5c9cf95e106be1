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

package cli

import (
	"github.com/pkg/errors"
	"github.com/supadeploy/supadeploy/internal/pkg/config"
	"github.com/supadeploy/supadeploy/internal/pkg/interfaces"
	"github.com/supadeploy/supadeploy/internal/pkg/invoker"
	"github.com/supadeploy/supadeploy/internal/pkg/log"
	"github.com/supadeploy/supadeploy/internal/pkg/utils"
)

// Merges CLI flag overrides over the loaded file/env config, returning the
// effective config for this invocation
func mergedConf(overrides *config.Conf) (*config.Conf, error) {
	if config.Config == nil {
		return nil, errors.New("Configuration hasn't been loaded")
	}

	conf := *config.Config

	err := conf.Merge(overrides)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	log.Logger.Debugf("Effective config: %#v", conf)

	return &conf, nil
}

func newInvoker(conf *config.Conf) (interfaces.IInvoker, error) {
	return invoker.NewAksInvoker(conf, utils.CommandRunner{})
}
