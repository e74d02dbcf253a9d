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
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"trace":   logrus.TraceLevel,
		"DEBUG":   logrus.DebugLevel,
		"":        logrus.InfoLevel,
		"warning": logrus.WarnLevel,
		" error ": logrus.ErrorLevel,
		"bogus":   logrus.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestNewLoggerIsRegisteredOnce(t *testing.T) {
	a := NewLogger("utils-test")
	b := NewLogger("utils-test")
	assert.Same(t, a, b)

	assert.True(t, SetLoggerLevel("utils-test", "error"))
	assert.Equal(t, logrus.ErrorLevel, a.GetLevel())
	assert.False(t, SetLoggerLevel("missing-logger", "debug"))
}

func TestLog4jColorFormatter(t *testing.T) {
	f := &Log4jColorFormatter{LoggerName: "REPO", NameWidth: 6}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "scope disabled",
		Data:    logrus.Fields{"scope": "active", "table": "accounts"},
	}
	out, err := f.Format(entry)
	require.NoError(t, err)
	line := string(out)
	assert.Contains(t, line, "2025-01-02 03:04:05.000")
	assert.Contains(t, line, "scope disabled scope=active table=accounts")
	assert.Contains(t, line, "REPO")
}

func TestJSONLogFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&JSONLogFormatter{LoggerName: "DATABASE"})
	l.WithField("rows", 2).Info("bulk update")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "DATABASE", rec["logger"])
	assert.Equal(t, "bulk update", rec["message"])
	assert.Equal(t, float64(2), rec["fields"].(map[string]interface{})["rows"])
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("BUNREPO_TEST_BOOL", "true")
	t.Setenv("BUNREPO_TEST_DURATION", "3")
	t.Setenv("BUNREPO_TEST_BAD_BOOL", "maybe")

	assert.True(t, EnvDefaultBool("BUNREPO_TEST_BOOL", false))
	assert.True(t, EnvDefaultBool("BUNREPO_TEST_BAD_BOOL", true))
	assert.Equal(t, "fallback", EnvDefaultString("BUNREPO_TEST_UNSET", "fallback"))
	assert.Equal(t, 3*time.Second, EnvDefaultDuration("BUNREPO_TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, EnvDefaultDuration("BUNREPO_TEST_UNSET", time.Second))
}
