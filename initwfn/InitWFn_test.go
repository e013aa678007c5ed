package initwfn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWFnJSON(t *testing.T) {
	init, err := NewGlorotU(1.0)
	require.NoError(t, err)

	data, err := json.Marshal(init)
	require.NoError(t, err)

	var decoded InitWFn
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, GlorotU, decoded.Type)
	assert.Equal(t, GlorotUConfig{Gain: 1.0}, decoded.Config)
	assert.NotNil(t, decoded.InitWFn())
}

func TestInitWFnUnmarshalJSON(t *testing.T) {
	var zeroes InitWFn
	require.NoError(t, json.Unmarshal([]byte(`{"Type": "Zeroes"}`), &zeroes))
	assert.Equal(t, ZeroesConfig{}, zeroes.Config)

	var constant InitWFn
	require.NoError(t, json.Unmarshal(
		[]byte(`{"Type": "Constant", "Config": {"Value": 0.5}}`), &constant))
	assert.Equal(t, ConstantConfig{Value: 0.5}, constant.Config)

	var unknown InitWFn
	assert.Error(t, json.Unmarshal([]byte(`{"Type": "Orthogonal"}`), &unknown))
}
