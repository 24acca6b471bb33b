/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel(" DEBUG "))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("verbose"))
}

func TestJSONFormatterLiftsAccessFields(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "HTTP"}
	entry := &logrus.Entry{
		Time:    time.Now(),
		Level:   logrus.InfoLevel,
		Message: "request completed",
		Data: logrus.Fields{
			"req_method":  "GET",
			"req_uri":     "/company/1",
			"status_code": 200,
			"error":       errors.New("boom"),
		},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(out, &rec))
	assert.Equal(t, "HTTP", rec["logger"])
	assert.Equal(t, "GET", rec["method"])
	assert.Equal(t, "/company/1", rec["path"])
	assert.Equal(t, float64(200), rec["status_code"])
	assert.Equal(t, map[string]any{"error": "boom"}, rec["fields"])
}

func TestTextFormatterWritesSortedFields(t *testing.T) {
	f := &TextLogFormatter{LoggerName: "DATABASE", NameWidth: 10}
	out, err := f.Format(&logrus.Entry{
		Time:    time.Now(),
		Level:   logrus.WarnLevel,
		Message: "slow query",
		Data:    logrus.Fields{"b": 2, "a": 1},
	})
	require.NoError(t, err)

	line := string(out)
	assert.Contains(t, line, "slow query")
	assert.Less(t, strings.Index(line, "a="), strings.Index(line, "b="))
	assert.True(t, bytes.HasSuffix(out, []byte("\n")))
}

func TestConfigureLogLevelReachesRegisteredLoggers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("UTILS_TEST")
	l.SetOutput(&buf)

	ConfigureLogLevel("error")
	t.Cleanup(func() { ConfigureLogLevel("info") })

	l.Info("hidden")
	assert.Empty(t, buf.String())
	l.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("UTILS_TEST_BOOL", "yes")
	t.Setenv("UTILS_TEST_DURATION", "250ms")
	assert.True(t, EnvDefaultBool("UTILS_TEST_BOOL", true))
	assert.False(t, EnvDefaultBool("UTILS_TEST_MISSING", false))
	assert.Equal(t, 250*time.Millisecond, EnvDefaultDuration("UTILS_TEST_DURATION", time.Second))
	assert.Equal(t, "x", EnvDefaultString("UTILS_TEST_MISSING", "x"))

	t.Setenv("UTILS_TEST_INT", "42")
	t.Setenv("UTILS_TEST_BAD_INT", "4x")
	assert.Equal(t, 42, EnvDefaultInt("UTILS_TEST_INT", 1))
	assert.Equal(t, 1, EnvDefaultInt("UTILS_TEST_BAD_INT", 1))
}

func TestLogOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staffing.log")
	out, closeOutput, err := OpenLogOutput(path)
	require.NoError(t, err)

	l := NewLogger("OUTPUT_TEST")
	ConfigureLogOutput(out)
	t.Cleanup(func() { ConfigureLogOutput(os.Stdout) })

	l.Warn("written to file")
	require.NoError(t, closeOutput())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "written to file")

	w, closeStd, err := OpenLogOutput(" STDERR ")
	require.NoError(t, err)
	assert.Same(t, os.Stderr, w)
	require.NoError(t, closeStd())

	_, _, err = OpenLogOutput(filepath.Join(t.TempDir(), "missing", "x.log"))
	require.Error(t, err)
}
