package commands

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/plancoach/internal/model"
)

func TestDecodeOperations(t *testing.T) {
	tests := map[string]struct {
		data      string
		expOps    []model.Operation
		expErr    bool
		expNotVal bool
	}{
		"A list of operations should be decoded.": {
			data:   `[{"type":"update_status","taskId":"w1t1","status":"done"}]`,
			expOps: []model.Operation{model.UpdateStatus("w1t1", model.TaskStatusDone)},
		},
		"An object with operations should be decoded.": {
			data:   ` {"operations":[{"type":"delete_task","taskId":"w2t1"}]}`,
			expOps: []model.Operation{model.DeleteTask("w2t1")},
		},
		"An empty list should fail.": {
			data:      `[]`,
			expErr:    true,
			expNotVal: true,
		},
		"A missing operations key should fail.": {
			data:      `{}`,
			expErr:    true,
			expNotVal: true,
		},
		"Malformed JSON should fail.": {
			data:   `[{`,
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ops, err := decodeOperations([]byte(test.data))

			if test.expErr {
				require.Error(t, err)
				assert.Equal(t, test.expNotVal, errors.Is(err, model.ErrNotValid))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expOps, ops)
		})
	}
}
