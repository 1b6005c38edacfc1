package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotationFieldsMarshal(t *testing.T) {
	f := AnnotationFields{
		Checks: map[string]int{"theme_success": 0, "roleplaying": 1, "theme_quality": 1},
		Notes:  `says "hi"`,
	}
	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, `{"roleplaying":1,"theme_quality":1,"theme_success":0,"notes":"says \"hi\""}`, string(data))

	empty, err := json.Marshal(AnnotationFields{})
	require.NoError(t, err)
	assert.Equal(t, `{"notes":""}`, string(empty))
}

func TestAnnotationFieldsUnmarshal(t *testing.T) {
	var f AnnotationFields
	err := json.Unmarshal([]byte(`{"clarity": 1, "creativity": "0", "language": true, "message": null, "notes": "ok"}`), &f)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"clarity": 1, "creativity": 0, "language": 1, "message": 0}, f.Checks)
	assert.Equal(t, "ok", f.Notes)
	assert.Equal(t, 2, f.Checked([]string{"clarity", "creativity", "language", "missing"}))
}

func TestAnnotationFieldsUnmarshalRejectsGarbage(t *testing.T) {
	var f AnnotationFields
	assert.Error(t, json.Unmarshal([]byte(`not json`), &f))
	assert.Error(t, json.Unmarshal([]byte(`{"clarity": [1]}`), &f))
	assert.Error(t, json.Unmarshal([]byte(`{"notes": 3}`), &f))
}
