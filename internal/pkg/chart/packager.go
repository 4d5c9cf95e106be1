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

// Fetches the application chart source as a zip archive and turns it into an
// installable .tgz package. Working from the zip avoids symlink extraction
// problems that a git checkout hits on some platforms.
package chart

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/supadeploy/supadeploy/internal/pkg/interfaces"
	"github.com/supadeploy/supadeploy/internal/pkg/log"
	"github.com/supadeploy/supadeploy/internal/pkg/utils"
)

// todo - make configurable
const HelmPath = "helm"

// GitHub archive zips extract to '<repo>-<ref>' whose exact name we can't
// predict, so the root is discovered by scanning for this prefix
const ExtractedRootPrefix = "supabase-kubernetes-"

const chartSubdir = "charts/supabase"
const packageGlob = "supabase-*.tgz"

// Raised when the expected chart directory is absent after extraction
type ChartNotFoundError struct {
	Path string
}

func (e ChartNotFoundError) Error() string {
	return fmt.Sprintf("Chart directory not found at '%s'", e.Path)
}

// Raised when no packaged artifact appears after `helm package`
type PackageNotProducedError struct {
	Dir string
}

func (e PackageNotProducedError) Error() string {
	return fmt.Sprintf("No packaged chart matching '%s' found in '%s'",
		packageGlob, e.Dir)
}

type Packager struct {
	runner interfaces.IRunner
}

func NewPackager(runner interfaces.IRunner) *Packager {
	return &Packager{
		runner: runner,
	}
}

// Downloads and packages the chart in a fresh scratch directory under the OS
// temp area. The scratch directory (containing the returned .tgz) is left for
// the caller to clean up.
func (p *Packager) PackageFromZip(zipUrl string) (string, error) {
	scratchDir, err := os.MkdirTemp("", "supadeploy-chart-")
	if err != nil {
		return "", errors.Wrap(err, "Error creating scratch directory")
	}

	return p.Package(zipUrl, scratchDir)
}

// Downloads the source archive, extracts it, locates the chart subdirectory,
// builds its dependencies and packages it, returning the path to the .tgz in
// the scratch directory.
func (p *Packager) Package(zipUrl string, scratchDir string) (string, error) {
	zipPath, err := downloadZip(zipUrl, scratchDir)
	if err != nil {
		return "", errors.WithStack(err)
	}

	root, err := ExtractZip(zipPath, scratchDir)
	if err != nil {
		return "", errors.WithStack(err)
	}

	chartDir := filepath.Join(root, filepath.FromSlash(chartSubdir))
	if _, err := os.Stat(chartDir); err != nil {
		return "", ChartNotFoundError{Path: chartDir}
	}

	log.Logger.Infof("Building dependencies for chart in '%s'", chartDir)

	_, err = p.runner.Run(utils.NewCommandSpec(HelmPath, "dependency", "build", chartDir))
	if err != nil {
		return "", errors.Wrap(err, "Error building chart dependencies")
	}

	_, err = p.runner.Run(utils.NewCommandSpec(HelmPath, "package", chartDir, "-d", scratchDir))
	if err != nil {
		return "", errors.Wrap(err, "Error packaging chart")
	}

	matches, err := filepath.Glob(filepath.Join(scratchDir, packageGlob))
	if err != nil {
		return "", errors.WithStack(err)
	}

	if len(matches) == 0 {
		return "", PackageNotProducedError{Dir: scratchDir}
	}

	log.Logger.Infof("Packaged chart at '%s'", matches[0])

	return matches[0], nil
}

func downloadZip(url string, destDir string) (string, error) {
	log.Logger.Infof("Downloading chart source from '%s'", url)

	zipPath := filepath.Join(destDir, "src.zip")

	resp, err := http.Get(url)
	if err != nil {
		return "", errors.Wrapf(err, "Error downloading '%s'", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New(fmt.Sprintf("Unexpected status %d downloading '%s'",
			resp.StatusCode, url))
	}

	fh, err := os.Create(zipPath)
	if err != nil {
		return "", errors.Wrapf(err, "Error creating '%s'", zipPath)
	}
	defer fh.Close()

	_, err = io.Copy(fh, resp.Body)
	if err != nil {
		return "", errors.Wrapf(err, "Error writing '%s'", zipPath)
	}

	return zipPath, nil
}

// Extracts the archive into destDir and returns the discovered extraction
// root. The root's exact name is unpredictable so it's found by prefix scan.
func ExtractZip(zipPath string, destDir string) (string, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", errors.Wrapf(err, "Error opening zip '%s'", zipPath)
	}
	defer reader.Close()

	for _, f := range reader.File {
		target := filepath.Join(destDir, filepath.FromSlash(f.Name))

		// guard against entries escaping the destination directory
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return "", errors.New(fmt.Sprintf("Illegal path '%s' in zip '%s'",
				f.Name, zipPath))
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", errors.WithStack(err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return "", errors.WithStack(err)
		}

		if err := extractFile(f, target); err != nil {
			return "", errors.WithStack(err)
		}
	}

	return FindExtractedRoot(destDir)
}

func extractFile(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, "Error opening zip entry '%s'", f.Name)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return errors.Wrapf(err, "Error creating '%s'", target)
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	if err != nil {
		return errors.Wrapf(err, "Error extracting '%s'", target)
	}

	return nil
}

// Scans destDir for a directory whose name starts with the known prefix
func FindExtractedRoot(destDir string) (string, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", errors.Wrapf(err, "Error listing '%s'", destDir)
	}

	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), ExtractedRootPrefix) {
			return filepath.Join(destDir, entry.Name()), nil
		}
	}

	return "", errors.New(fmt.Sprintf("Failed to locate an extracted '%s*' "+
		"directory under '%s'", ExtractedRootPrefix, destDir))
}
