package discovery

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceKey(t *testing.T) {
	inst := &ServiceInstance{Name: "restaurant", ID: "a1b2"}
	assert.Equal(t, "/services/restaurant/a1b2", instanceKey("/services/", inst))
}

func TestInstanceRoundTrip(t *testing.T) {
	inst := &ServiceInstance{Name: "restaurant", ID: "a1b2", HTTPAddr: "10.0.0.5:8080"}
	raw, err := json.Marshal(inst)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "grpcAddr")

	got, err := decodeInstance(raw)
	require.NoError(t, err)
	assert.Equal(t, inst, got)
}

func TestDecodeInstanceRejectsGarbage(t *testing.T) {
	_, err := decodeInstance([]byte("10.0.0.5:8080"))
	assert.Error(t, err)
}
