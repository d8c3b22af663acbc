// Copyright (c) 2026 The Tinyfix Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateLoggerAsLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tinyfix.log")
	logger, flush, err := CreateLoggerAsLocalFile(path, InfoLevel)
	require.NoError(t, err)

	logger.Debugf("dropped below level %d", 1)
	logger.Errorf("bind socket error: %s (errno: %d)", "address already in use", 98)
	_ = flush()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[tinyfix]")
	require.Contains(t, string(data), "bind socket error: address already in use (errno: 98)")
	require.NotContains(t, string(data), "dropped below level")
}

func TestCreateLoggerAsLocalFileRejectsEmptyPath(t *testing.T) {
	_, _, err := CreateLoggerAsLocalFile("", InfoLevel)
	require.Error(t, err)
}

func TestDefaults(t *testing.T) {
	require.NotNil(t, GetDefaultLogger())
	require.NotEmpty(t, LogLevel())
	NopLogger().Errorf("never printed %v", t.Name())
}
