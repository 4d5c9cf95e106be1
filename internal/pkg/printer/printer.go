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

package printer

import (
	"io"
	"os"

	"github.com/mitchellh/colorstring"
)

var writer io.Writer = os.Stdout

func SetOutput(out io.Writer) {
	writer = out
}

func Fprint(text string) (int, error) {
	return colorstring.Fprint(writer, text)
}

func Fprintf(format string, args ...interface{}) (int, error) {
	return colorstring.Fprintf(writer, format, args...)
}

func Fprintln(text string) (int, error) {
	return colorstring.Fprintln(writer, text)
}
