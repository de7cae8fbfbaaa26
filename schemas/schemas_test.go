package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			data, err := Load(name)
			require.NoError(t, err)

			var schemaObj map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &schemaObj), "schema should be valid JSON")

			assert.Equal(t, "object", schemaObj["type"])
			assert.Contains(t, schemaObj, "$schema")
			assert.Contains(t, schemaObj, "properties")
		})
	}
}

func TestLoad_Unknown(t *testing.T) {
	_, err := Load("job_profile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown schema")
}
