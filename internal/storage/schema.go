/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed screenplay.schema.json
var manifestSchema []byte

//go:embed envelope.schema.json
var envelopeSchema []byte

// ValidateManifest checks screenplay.json bytes against the manifest schema.
func ValidateManifest(data []byte) error {
	return validateAgainst(manifestSchema, data, "manifest")
}

// ValidateEnvelope checks a structured script document against the envelope schema.
func ValidateEnvelope(data []byte) error {
	return validateAgainst(envelopeSchema, data, "envelope")
}

func validateAgainst(schema, data []byte, what string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate %s: %w", what, err)
	}
	if result.Valid() {
		return nil
	}
	var sb strings.Builder
	for i, e := range result.Errors() {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.String())
	}
	return fmt.Errorf("%s does not conform to schema: %s", what, sb.String())
}
