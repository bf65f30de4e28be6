package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"snowfight/internal/object"
)

func TestPeekTypePingFastPath(t *testing.T) {
	raw := []byte(`{"type":"ping","clientTime":1000}`)
	msgType, _, err := PeekType(raw)
	require.NoError(t, err)
	assert.Equal(t, TypePing, msgType)
}

func TestPeekTypeJoin(t *testing.T) {
	raw := []byte(`{"type":"join","id":"A"}`)
	msgType, _, err := PeekType(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeJoin, msgType)
}

func TestDecodeJoinAppliesDefaults(t *testing.T) {
	raw := []byte(`{"type":"join","id":"A","position":{"x":200,"y":200}}`)
	j, err := DecodeJoin(raw)
	require.NoError(t, err)

	assert.Equal(t, object.DefaultUsername, j.Username)
	assert.Equal(t, object.DefaultPlayerHealth, j.Health)
	assert.Equal(t, object.DefaultPlayerSize, j.Size)
	assert.Equal(t, 200.0, j.Position.X)
}

func TestDecodeJoinKeepsExplicitValues(t *testing.T) {
	raw := []byte(`{"type":"join","id":"A","username":"alice","health":50,"size":15,"position":{"x":1,"y":2}}`)
	j, err := DecodeJoin(raw)
	require.NoError(t, err)

	assert.Equal(t, "alice", j.Username)
	assert.Equal(t, 50, j.Health)
	assert.Equal(t, 15.0, j.Size)
}

func TestDecodePlayerMovementDirectionVariant(t *testing.T) {
	raw := []byte(`{"type":"movement","objectType":"player","id":"A","timeUpdate":5,"direction":{"left":false,"right":true,"up":false,"down":false}}`)
	m, err := DecodePlayerMovement(raw)
	require.NoError(t, err)

	require.NotNil(t, m.Direction)
	assert.True(t, m.Direction.Right)
	assert.Nil(t, m.Position)
}

func TestDecodePlayerMovementExplicitPositionVariant(t *testing.T) {
	raw := []byte(`{"type":"movement","objectType":"player","id":"A","position":{"x":5,"y":6}}`)
	m, err := DecodePlayerMovement(raw)
	require.NoError(t, err)

	require.NotNil(t, m.Position)
	assert.Equal(t, 5.0, m.Position.X)
	assert.Nil(t, m.Direction)
}

func TestEncodePongContainsFields(t *testing.T) {
	raw, err := EncodePong(5000, 1000)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"messageType":"pong"`)
	assert.Contains(t, string(raw), `"clientTime":1000`)
}

func TestEncodeBatchUpdateMsgpackRoundTrip(t *testing.T) {
	p := object.NewPlayer("B", "bob", 10, 10, 20, 100, 0)
	snap := p.Snapshot(0)

	raw, err := EncodeBatchUpdate(1234, []object.Snapshot{snap})
	require.NoError(t, err)

	var decoded BatchUpdate
	require.NoError(t, msgpack.Unmarshal(raw, &decoded))

	assert.Equal(t, MessageTypeBatchUpdate, decoded.MessageType)
	assert.Equal(t, int64(1234), decoded.Timestamp)
	require.Len(t, decoded.Updates, 1)
	assert.Equal(t, "B", decoded.Updates[0].ID)
	assert.Equal(t, "player", decoded.Updates[0].ObjectType)
}
