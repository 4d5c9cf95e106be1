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

// Cluster add-ons required before the application workload can run: the
// External Secrets Operator that pulls vault secrets into the cluster, and
// the nginx ingress controller.
package addons

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/supadeploy/supadeploy/internal/pkg/interfaces"
	"github.com/supadeploy/supadeploy/internal/pkg/log"
)

const esoRepoUrl = "https://charts.external-secrets.io"
const ingressRepoUrl = "https://kubernetes.github.io/ingress-nginx"

// Idempotently installs the External Secrets Operator and its CRDs. A single
// remote command chains the repo add/update and install because each
// invocation has dispatch latency and no shell state survives between them.
func EnsureExternalSecrets(inv interfaces.IInvoker) error {
	cmd := strings.Join([]string{
		"helm repo add external-secrets " + esoRepoUrl,
		"helm repo update",
		"helm upgrade --install external-secrets external-secrets/external-secrets " +
			"--namespace external-secrets --create-namespace --set installCRDs=true " +
			"--wait --timeout=10m",
	}, " && ")

	_, err := inv.Invoke(cmd)
	if err != nil {
		return errors.Wrap(err, "Error installing the External Secrets Operator")
	}

	return nil
}

// Installs the nginx ingress controller with 2 replicas
func InstallIngressNginx(inv interfaces.IInvoker) error {
	cmd := strings.Join([]string{
		"helm repo add ingress-nginx " + ingressRepoUrl,
		"helm repo update",
		"helm upgrade --install ingress-nginx ingress-nginx/ingress-nginx " +
			"-n ingress-nginx --create-namespace --set controller.replicaCount=2",
	}, " && ")

	_, err := inv.Invoke(cmd)
	if err != nil {
		return errors.Wrap(err, "Error installing ingress-nginx")
	}

	return nil
}

// Annotates the ingress controller's service so Azure provisions an internal
// load balancer. The service can lag behind the helm install, so a bounded
// readiness poll (30 attempts, 2s apart) runs remotely first. Failure is
// non-fatal - the operator can re-annotate out-of-band.
func AnnotateIngressInternal(inv interfaces.IInvoker) {
	wait := "bash -lc 'for i in {1..30}; do " +
		"kubectl -n ingress-nginx get svc ingress-nginx-controller >/dev/null 2>&1 && exit 0; " +
		"sleep 2; done; exit 1'"

	_, err := inv.Invoke(wait)
	if err != nil {
		log.Logger.Warnf("Ingress controller service didn't appear in time. "+
			"Skipping internal load balancer annotation: %v", err)
		return
	}

	_, err = inv.Invoke("kubectl -n ingress-nginx annotate svc ingress-nginx-controller " +
		"service.beta.kubernetes.io/azure-load-balancer-internal=true --overwrite")
	if err != nil {
		log.Logger.Warnf("Error annotating the ingress controller service: %v", err)
	}
}
