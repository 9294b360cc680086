package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Line prefixes written by the DReyeVR recorder.
const (
	FramePrefix       = "Frame "
	CorePrefix        = "[DReyeVR]"
	SideChannelPrefix = "[DReyeVR_CA]"
)

// LineKind is the category of one raw recording line.
type LineKind int

const (
	LineIgnored LineKind = iota
	LineFrame
	LineCore
	LineSideChannel
)

func (k LineKind) String() string {
	switch k {
	case LineFrame:
		return "frame"
	case LineCore:
		return "core"
	case LineSideChannel:
		return "side-channel"
	default:
		return "ignored"
	}
}

// Classify trims leading blanks and the line terminator, matches the known
// prefixes and returns the payload. Record prefixes are stripped; frame lines
// are returned whole.
func Classify(raw string) (LineKind, string) {
	line := strings.TrimLeft(raw, " \t")
	line = strings.TrimRight(line, "\r\n")

	switch {
	case strings.HasPrefix(line, FramePrefix):
		return LineFrame, line
	case strings.HasPrefix(line, CorePrefix):
		return LineCore, line[len(CorePrefix):]
	case strings.HasPrefix(line, SideChannelPrefix):
		return LineSideChannel, line[len(SideChannelPrefix):]
	default:
		return LineIgnored, ""
	}
}

// ParseFrame reads "Frame <n> at <seconds> seconds".
func ParseFrame(line string) (frame int64, seconds float64, err error) {
	fields := strings.Fields(line)
	if len(fields) < 4 || fields[0] != "Frame" || fields[2] != "at" {
		return 0, 0, fmt.Errorf("unexpected frame line %q", line)
	}
	frame, err = strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad frame number in %q: %w", line, err)
	}
	seconds, err = strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad elapsed time in %q: %w", line, err)
	}
	return frame, seconds, nil
}
