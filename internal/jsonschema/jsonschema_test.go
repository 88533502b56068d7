// SPDX-License-Identifier: Apache-2.0

package jsonschema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testSchema = `{
  "type": "object",
  "properties": {
    "searchPaths": {
      "type": "array",
      "items": {"type": "string"}
    }
  },
  "additionalProperties": false
}`

func decode(t *testing.T, doc string) any {
	t.Helper()
	var v any
	assert.NoError(t, json.Unmarshal([]byte(doc), &v))
	return v
}

func TestValidateAcceptsMatchingDocument(t *testing.T) {
	v := decode(t, `{"searchPaths": ["./db", "./schemas"]}`)
	assert.NoError(t, Validate([]byte(testSchema), v))
}

func TestValidateRejectsUnknownProperty(t *testing.T) {
	v := decode(t, `{"unexpected": true}`)
	assert.Error(t, Validate([]byte(testSchema), v))
}

func TestValidateRejectsWrongType(t *testing.T) {
	v := decode(t, `{"searchPaths": "not-an-array"}`)
	assert.Error(t, Validate([]byte(testSchema), v))
}
