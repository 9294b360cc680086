package cache

import (
	"bytes"
	"math"
	"testing"

	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(t *testing.T) *model.Group {
	t.Helper()
	r := model.NewResult()
	require.NoError(t, r.AppendValue(model.TimelineField, model.FloatValue(0.016)))
	require.NoError(t, r.AppendValue(model.TimelineField, model.FloatValue(0.033)))
	require.NoError(t, r.AppendValue(model.CoreTimestampField, model.IntValue(123)))
	require.NoError(t, r.AppendValue(model.CoreTimestampField, model.IntValue(140)))

	eye, err := r.EnsureGroup("EyeTracker")
	require.NoError(t, err)
	gaze := model.VectorValue([]string{"X", "Y", "Z"},
		[]model.Value{model.FloatValue(1), model.FloatValue(-0.5), model.FloatValue(math.Copysign(0, -1))})
	require.NoError(t, eye.AppendValue("COMBINEDGazeDir", gaze))
	require.NoError(t, eye.AppendValue("COMBINEDValid", model.BoolValue(true)))
	require.NoError(t, eye.AppendValue("Label", model.StringValue("left eye")))
	require.NoError(t, eye.AppendValue("Samples", model.ListValue([]model.Value{model.IntValue(1), model.IntValue(2)})))
	require.NoError(t, eye.AppendValue("Empty", model.ListValue(nil)))

	ca, err := r.EnsureGroup(model.SideChannelGroup)
	require.NoError(t, err)
	_, err = ca.EnsureField("Name")
	require.NoError(t, err)
	return r
}

func TestCodecRoundTrip(t *testing.T) {
	codec, err := NewCodec()
	require.NoError(t, err)
	defer codec.Close()

	original := sampleResult(t)
	meta := Meta{SourcePath: "/data/exp1.txt", SourceSize: 42, ModTime: 1700000000, Inode: 7, Fingerprint: "abc-42"}

	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, meta, original))

	gotMeta, got, err := codec.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, meta, gotMeta)
	assert.Equal(t, original, got)
	assert.Equal(t, original.Keys(), got.Keys())

	eye, ok := got.Group("EyeTracker")
	require.True(t, ok)
	gaze, ok := eye.Field("COMBINEDGazeDir")
	require.True(t, ok)
	assert.True(t, math.Signbit(gaze.Values[0].Elems[2].Float))
}

func TestCodecDecodeMetaOnly(t *testing.T) {
	codec, err := NewCodec()
	require.NoError(t, err)
	defer codec.Close()

	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, Meta{SourcePath: "a.txt", Fingerprint: "f"}, model.NewResult()))

	meta, err := codec.DecodeMeta(&buf)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", meta.SourcePath)
	assert.Equal(t, "f", meta.Fingerprint)
}

func TestCodecRejectsForeignData(t *testing.T) {
	codec, err := NewCodec()
	require.NoError(t, err)
	defer codec.Close()

	_, _, err = codec.Decode(bytes.NewReader([]byte("NOTACACHEBLOB")))
	assert.ErrorIs(t, err, ErrInvalidHeader)

	_, _, err = codec.Decode(bytes.NewReader([]byte("DRV")))
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestCodecTruncatedBody(t *testing.T) {
	codec, err := NewCodec()
	require.NoError(t, err)
	defer codec.Close()

	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, Meta{}, sampleResult(t)))

	truncated := buf.Bytes()[:buf.Len()-5]
	_, _, err = codec.Decode(bytes.NewReader(truncated))
	assert.Error(t, err)
}

func TestCheckBodySize(t *testing.T) {
	assert.NoError(t, checkBodySize(0))
	assert.NoError(t, checkBodySize(maxSectionSize))

	err := checkBodySize(maxSectionSize + 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBlobTooLarge)
	assert.ErrorIs(t, checkBodySize(math.MaxUint32+1), ErrBlobTooLarge)
}
