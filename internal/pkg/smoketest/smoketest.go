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

// Post-deploy smoke testing of the REST gateway, either from inside the
// cluster (a short-lived curl pod) or externally through the ingress.
package smoketest

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/skratchdot/open-golang/open"
	"github.com/supadeploy/supadeploy/internal/pkg/config"
	"github.com/supadeploy/supadeploy/internal/pkg/interfaces"
	"github.com/supadeploy/supadeploy/internal/pkg/invoker"
	"github.com/supadeploy/supadeploy/internal/pkg/log"
	"github.com/supadeploy/supadeploy/internal/pkg/printer"
)

const httpTimeout = 10 * time.Second

// The whole internal probe is one self-contained remote script: create a
// short-lived curl pod, wait for it, exec curl against the discovered Kong
// service, then delete the pod. The service name is release-dependent so
// it's resolved dynamically with a legacy kong-proxy fallback.
const internalScriptTemplate = `#!/usr/bin/env bash
set -e
NS={{ .Namespace | squote }}
POD={{ .PodName | squote }}
KONG=$(kubectl -n "$NS" get svc -l app.kubernetes.io/name=supabase-kong -o jsonpath='{.items[0].metadata.name}' 2>/dev/null || true)
if [ -z "$KONG" ]; then
  KONG=$(kubectl -n "$NS" get svc -o jsonpath='{range .items[*]}{.metadata.name}{"\n"}{end}' | grep -i kong | head -n1 || true)
fi
[ -n "$KONG" ] || KONG=kong-proxy
PORT=$(kubectl -n "$NS" get svc "$KONG" -o jsonpath='{.spec.ports[?(@.name=="http")].port}' 2>/dev/null)
[ -n "$PORT" ] || PORT=$(kubectl -n "$NS" get svc "$KONG" -o jsonpath='{.spec.ports[0].port}' 2>/dev/null || echo 80)
BASE="http://$KONG.$NS.svc.cluster.local:${PORT}/rest/v1/"
kubectl -n "$NS" delete pod "$POD" --ignore-not-found >/dev/null 2>&1 || true
cat <<EOF | kubectl apply -f - >/dev/null
apiVersion: v1
kind: Pod
metadata:
  name: $POD
  namespace: $NS
  labels:
    app.kubernetes.io/part-of: supabase
    app: curltest
spec:
  restartPolicy: Never
  containers:
  - name: curl
    image: curlimages/curl
    command: ["sh","-c","sleep 3600"]
EOF
kubectl -n "$NS" wait --for=condition=Ready pod/"$POD" --timeout=120s || true
ANON=$(kubectl -n "$NS" get secret supabase-env -o jsonpath='{.data.ANON_KEY}' 2>/dev/null | base64 -d || true)
if [ -n "$ANON" ]; then
  OUT=$(kubectl -n "$NS" exec "$POD" -- sh -lc "curl -sS -o /dev/null -w CODE:%{http_code}\n -H \"apikey: ${ANON}\" -H \"Authorization: Bearer ${ANON}\" $BASE")
else
  OUT=$(kubectl -n "$NS" exec "$POD" -- sh -lc "curl -sS -o /dev/null -w CODE:%{http_code}\n $BASE")
fi
echo "$OUT"
kubectl -n "$NS" delete pod "$POD" --ignore-not-found >/dev/null 2>&1 || true
`

type internalScriptVars struct {
	Namespace string
	PodName   string
}

// Probes the REST gateway from inside the cluster and prints the remote log
func RunInternal(conf *config.Conf, inv interfaces.IInvoker) error {
	tmpl, err := template.New("smoke").Funcs(sprig.TxtFuncMap()).
		Parse(internalScriptTemplate)
	if err != nil {
		return errors.WithStack(err)
	}

	var rendered bytes.Buffer
	err = tmpl.Execute(&rendered, internalScriptVars{
		Namespace: conf.Namespace,
		PodName:   "curlpod-" + uuid.NewString(),
	})
	if err != nil {
		return errors.Wrap(err, "Error rendering the smoke test script")
	}

	scratchDir, err := os.MkdirTemp("", "supadeploy-smoke-")
	if err != nil {
		return errors.Wrap(err, "Error creating scratch directory")
	}
	defer os.RemoveAll(scratchDir)

	scriptPath := filepath.Join(scratchDir, "smoke.sh")
	err = os.WriteFile(scriptPath, rendered.Bytes(), 0755)
	if err != nil {
		return errors.Wrapf(err, "Error writing smoke test script '%s'", scriptPath)
	}

	logs, err := inv.Invoke("bash "+invoker.StagedPath(scriptPath), scriptPath)
	if err != nil {
		return errors.Wrap(err, "Smoke test failed")
	}

	printer.Fprintln(logs)

	return nil
}

// Probes the REST gateway through the ingress. If no base URL is given the
// ingress controller's public IP is discovered remotely and a nip.io name is
// built from it. With openBrowser the probed URL is also opened in the
// operator's browser.
func RunExternal(inv interfaces.IInvoker, baseUrl string, openBrowser bool) error {
	if baseUrl == "" {
		ip, err := inv.Invoke("kubectl -n ingress-nginx get svc ingress-nginx-controller " +
			"-o jsonpath='{.status.loadBalancer.ingress[0].ip}'")
		if err != nil {
			return errors.Wrap(err, "Failed to detect the ingress IP")
		}

		ip = strings.Trim(strings.TrimSpace(ip), `'"`)
		if ip == "" {
			return errors.New("No ingress IP found")
		}

		baseUrl = fmt.Sprintf("http://%s.nip.io", ip)
	}

	url := strings.TrimRight(baseUrl, "/") + "/rest/v1/"

	printer.Fprintf("Testing [bold]%s[reset]\n", url)

	client := &http.Client{Timeout: httpTimeout}

	resp, err := client.Get(url)
	if err != nil {
		return errors.Wrapf(err, "Error fetching '%s'", url)
	}
	defer resp.Body.Close()

	printer.Fprintf("HTTP %d\n", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return errors.New(fmt.Sprintf("Unexpected status code: %d", resp.StatusCode))
	}

	if openBrowser {
		err = open.Run(url)
		if err != nil {
			log.Logger.Warnf("Couldn't open '%s' in a browser: %v", url, err)
		}
	}

	return nil
}
