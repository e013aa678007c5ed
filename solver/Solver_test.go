package solver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolverJSON(t *testing.T) {
	adam, err := NewDefaultAdam(1e-3, 1)
	require.NoError(t, err)

	data, err := json.Marshal(adam)
	require.NoError(t, err)

	var decoded Solver
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Adam, decoded.Type)
	assert.Equal(t, adam.Config, decoded.Config)
	assert.NotNil(t, decoded.Solver)
}

func TestSolverUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Config
		wantErr bool
	}{
		{
			name: "Vanilla",
			data: `{"Type": "Vanilla", "Config": {"StepSize": 0.1, "Batch": 1}}`,
			want: VanillaConfig{StepSize: 0.1, Batch: 1},
		},
		{
			name: "RMSProp",
			data: `{"Type": "RMSProp", "Config": {"StepSize": 0.01, ` +
				`"Epsilon": 1e-7, "Rho": 0.9, "Batch": 1, "Clip": 5}}`,
			want: RMSPropConfig{StepSize: 0.01, Epsilon: 1e-7, Rho: 0.9,
				Batch: 1, Clip: 5},
		},
		{
			name:    "UnknownType",
			data:    `{"Type": "Lion", "Config": {}}`,
			wantErr: true,
		},
		{
			name:    "MissingType",
			data:    `{"Config": {}}`,
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var s Solver
			err := json.Unmarshal([]byte(test.data), &s)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, s.Config)
			assert.NotNil(t, s.Solver)
		})
	}
}
