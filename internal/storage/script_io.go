/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"goscreenwriter/internal/script"
)

// ScriptFileName is the canonical script file under <project>/script/.
const ScriptFileName = "screenplay.gsw"

// LoadScript reads the project's script text. A missing script file is not an
// error; it yields an empty document.
func LoadScript(ph *ProjectHandle) (string, error) {
	if ph == nil {
		return "", errors.New("nil ProjectHandle")
	}
	b, err := os.ReadFile(ph.ScriptPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(b), nil
}

// SaveScript writes the script text transactionally, keeping a timestamped
// backup of the previous version. Structured documents are schema-validated
// before anything touches disk.
func SaveScript(ph *ProjectHandle, text string) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	if t := strings.TrimLeft(text, " \t\r\n"); t != "" && t[0] == '{' {
		if err := ValidateEnvelope([]byte(text)); err != nil {
			return err
		}
	}
	path := ph.ScriptPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure script dir: %w", err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		bdir := filepath.Join(ph.Root, BackupsDirName)
		if err := os.MkdirAll(bdir, 0o755); err != nil {
			return fmt.Errorf("ensure backups dir: %w", err)
		}
		stamp := time.Now().Format("20060102-150405")
		bname := fmt.Sprintf("%s.%s.bak", ScriptFileName, stamp)
		if err := copyFile(path, filepath.Join(bdir, bname)); err != nil {
			return fmt.Errorf("backup current script: %w", err)
		}
	}
	return replaceFile(path, []byte(text))
}

// LoadScriptLines reads and decodes the script into the line model.
func LoadScriptLines(ph *ProjectHandle) ([]script.Line, error) {
	text, err := LoadScript(ph)
	if err != nil {
		return nil, err
	}
	return script.Parse(text)
}
