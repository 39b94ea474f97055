package modal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taeu.kr/kirosumi/internal/platform/apperr"
)

func TestStack_OpenDeduplicatesTop(t *testing.T) {
	st := NewStack()

	require.NoError(t, st.Open(CaptureDetails, "CAP-1", "milk", true))
	require.NoError(t, st.Open(CaptureDetails, "CAP-1", "milk", false))
	assert.Len(t, st.Modals, 1, "same type, id and label is a no-op")

	require.NoError(t, st.Open(CaptureDetails, "CAP-1", "oat milk", true))
	require.NoError(t, st.Open(ConvertCaptureToTask, "CAP-1", "oat milk", false))
	require.NoError(t, st.Open(CaptureDetails, "CAP-1", "oat milk", true))
	assert.Len(t, st.Modals, 4, "only the top is compared")

	err := st.Open("SETTINGS", "", "", true)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Len(t, st.Modals, 4)
}

func TestStack_CloseVariants(t *testing.T) {
	st := NewStack()
	st.Close()
	assert.Empty(t, st.Modals, "closing an empty stack stays empty")

	for _, ct := range []ContentType{CreateCapture, CaptureDetails, ConvertCaptureToTask} {
		require.NoError(t, st.Open(ct, "", "", true))
	}

	st.CloseN(0)
	st.CloseN(-3)
	assert.Len(t, st.Modals, 3)

	st.Close()
	require.Len(t, st.Modals, 2)
	assert.Equal(t, CaptureDetails, st.Modals[1].ContentType)

	st.CloseN(10)
	assert.Empty(t, st.Modals)

	require.NoError(t, st.Open(CreateCapture, "", "", true))
	st.SetState("CREATE_CAPTURE", json.RawMessage(`{"draft":"x"}`))
	st.Clear()
	assert.Empty(t, st.Modals)
	_, ok := st.State("CREATE_CAPTURE")
	assert.True(t, ok, "clear keeps the state bag")
}

func TestStack_States(t *testing.T) {
	st := NewStack()
	st.SetState("a", json.RawMessage(`1`))
	st.SetState("b", json.RawMessage(`2`))

	v, ok := st.State("a")
	require.True(t, ok)
	assert.JSONEq(t, `1`, string(v))

	st.ClearState("a")
	_, ok = st.State("a")
	assert.False(t, ok)

	st.ClearStates()
	assert.Empty(t, st.States)
}

func TestStack_View(t *testing.T) {
	st := NewStack()
	v := st.View()
	assert.False(t, v.IsOpen)
	assert.Nil(t, v.Current)
	assert.Nil(t, v.ContentType)
	assert.Equal(t, "", v.EntityID)
	assert.True(t, v.CloseOnClickOutside)

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"contentType":null`)

	require.NoError(t, st.Open(CaptureDetails, "CAP-1", "milk", false))
	v = st.View()
	assert.True(t, v.IsOpen)
	require.NotNil(t, v.ContentType)
	assert.Equal(t, CaptureDetails, *v.ContentType)
	assert.Equal(t, "CAP-1", v.EntityID)
	assert.False(t, v.CloseOnClickOutside)
	assert.Equal(t, 1, v.Depth)
}
