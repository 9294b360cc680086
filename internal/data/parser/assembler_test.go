package parser

import (
	"testing"

	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleRowEyeTracker(t *testing.T) {
	root := model.NewResult()
	line := "EyeTracker:{TimestampDevice:5,FrameSequence:1,COMBINED:{GazeDir:X=1.0 Y=0.0 Z=0.0,Valid:True},LEFT:{PupilDiam:3.5}}"

	group, err := AssembleRow(root, line, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "EyeTracker", group)

	eye, ok := root.Group("EyeTracker")
	require.True(t, ok)
	assert.Equal(t, []string{"TimestampDevice", "FrameSequence", "COMBINEDGazeDir", "COMBINEDValid", "LEFTPupilDiam"}, eye.Keys())

	gaze, _ := eye.Field("COMBINEDGazeDir")
	rows, err := gaze.Matrix()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0, 0}}, rows)

	pupil, _ := eye.Field("LEFTPupilDiam")
	assert.Equal(t, []model.Value{model.FloatValue(3.5)}, pupil.Values)
}

func TestAssembleRowSubtitleResetsOnEmptyChunk(t *testing.T) {
	root := model.NewGroup()
	_, err := AssembleRow(root, "Ego:{Cam:{Loc:1},Speed:2}", "", nil)
	require.NoError(t, err)

	ego, _ := root.Group("Ego")
	assert.Equal(t, []string{"CamLoc", "Speed"}, ego.Keys())
}

func TestAssembleRowBareValue(t *testing.T) {
	root := model.NewResult()
	_, err := AssembleRow(root, "TimestampCarla:123", "", nil)
	require.NoError(t, err)

	ts, ok := root.Group(model.CoreTimestampField)
	require.True(t, ok)
	bare, ok := ts.Field(model.BareValueField)
	require.True(t, ok)
	assert.Equal(t, []model.Value{model.IntValue(123)}, bare.Values)
}

func TestAssembleRowLocationVector(t *testing.T) {
	root := model.NewGroup()
	_, err := AssembleRow(root, "EgoVariables:{Location:X=1.0 Y=2.0 Z=3.0}", "", nil)
	require.NoError(t, err)

	ego, _ := root.Group("EgoVariables")
	loc, ok := ego.Field("Location")
	require.True(t, ok)
	rows, err := loc.Matrix()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3}}, rows)
}

func TestAssembleRowBracedVector(t *testing.T) {
	root := model.NewResult()
	for _, line := range []string{
		"Location:{X=1.0 Y=2.0 Z=3.0}",
		"Location:{X=4.0 Y=5.0 Z=-6.5}",
	} {
		group, err := AssembleRow(root, line, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "Location", group)
	}

	loc, ok := root.Group("Location")
	require.True(t, ok)
	assert.Equal(t, []string{model.BareValueField}, loc.Keys())

	root.CollapseStandalone()
	field, ok := root.Field("Location")
	require.True(t, ok, "a group of bare vectors collapses to a top-level field")
	rows, err := field.Matrix()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, -6.5}}, rows)
	assert.Equal(t, []string{"X", "Y", "Z"}, field.Values[0].Axes)
}

func TestAssembleRowLinkedGroup(t *testing.T) {
	root := model.NewGroup()
	link := model.IntValue(4242)

	group, err := AssembleRow(root, "Name:PeriphTarget,Location:X=1 Y=2 Z=3", model.SideChannelGroup, &link)
	require.NoError(t, err)
	assert.Equal(t, model.SideChannelGroup, group)

	ca, _ := root.Group(model.SideChannelGroup)
	assert.Equal(t, []string{model.LinkField, "Name", "Location"}, ca.Keys())
	tf, _ := ca.Field(model.LinkField)
	assert.Equal(t, []model.Value{link}, tf.Values)
}

func TestAssembleRowMalformedChunk(t *testing.T) {
	root := model.NewGroup()
	_, err := AssembleRow(root, "UserInputs:{A:B:C}", "", nil)

	require.ErrorIs(t, err, ErrMalformedChunk)
	var chunkErr *ChunkError
	require.ErrorAs(t, err, &chunkErr)
	assert.Equal(t, "A:B:C", chunkErr.Chunk)
	assert.Equal(t, 3, chunkErr.Segments)
}

func TestAssembleRowGroupNameClash(t *testing.T) {
	root := model.NewResult()
	_, err := AssembleRow(root, model.TimelineField+":1", "", nil)

	var shapeErr *model.ShapeError
	assert.ErrorAs(t, err, &shapeErr)
}
