package model

// Well-known names in a parsed recording.
const (
	// TimelineField holds the elapsed seconds of every "Frame" line and defines N.
	TimelineField = "TimeElapsed"
	// CoreTimestampField is the core group whose latest value stamps side-channel records.
	CoreTimestampField = "TimestampCarla"
	// SideChannelGroup collects custom actor records.
	SideChannelGroup = "CustomActor"
	// BareValueField keeps values that appear without a key.
	BareValueField = "data_single"
	// LinkField links group entries to the core timeline.
	LinkField = "t"
)
