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

// Orchestrates the ordered deployment workflow. Stages run strictly one
// after another because each stage's side effects are preconditions for the
// next - there is no parallelism at this level.
package pipeline

import (
	"github.com/pkg/errors"
	"github.com/supadeploy/supadeploy/internal/pkg/log"
	"github.com/supadeploy/supadeploy/internal/pkg/printer"
)

// A named unit of work in the pipeline. A failing stage aborts all
// subsequent stages unless it's marked recoverable, in which case the
// failure is downgraded to a warning and the run continues.
type Stage struct {
	Name        string
	Action      func() error
	Recoverable bool
}

// Stage names, in execution order
const (
	StageEnsureAddon    = "ensure-addon"
	StageSyncSecrets    = "sync-secrets"
	StageApplyManifests = "apply-manifests"
	StagePackageChart   = "package-chart"
	StageInstallChart   = "install-chart"
)

// Runs the stages in order. The first fatal failure is returned immediately
// and no later stage runs.
func Run(stages []Stage) error {
	for _, stage := range stages {
		printer.Fprintf("[bold]==>[reset] %s\n", stage.Name)

		err := stage.Action()
		if err != nil {
			if stage.Recoverable {
				log.Logger.Warnf("Stage '%s' failed (continuing): %v", stage.Name, err)
				continue
			}

			return errors.Wrapf(err, "Stage '%s' failed", stage.Name)
		}
	}

	return nil
}
