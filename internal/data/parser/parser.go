package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/penwyp/go-dreyevr-parser/internal/core/model"
	"github.com/penwyp/go-dreyevr-parser/internal/data/validator"
	"github.com/penwyp/go-dreyevr-parser/internal/util"
)

const (
	maxLineSize      = 16 * 1024 * 1024
	progressInterval = 500
)

// ToEnd as a range end reads through the last line of the file.
const ToEnd = -1

// Parser accumulates one recording (or one line range of it) into a result.
// A Parser is not safe for concurrent use; parallel ingestion gives every
// worker its own.
type Parser struct {
	result *model.Group
	debug  bool

	lastTimestamp *model.Value

	frames      int
	skipped     int
	sideChannel int
}

// NewParser creates a Parser. With debug set the result is validated after every record.
func NewParser(debug bool) *Parser {
	return &Parser{
		result: model.NewResult(),
		debug:  debug,
	}
}

// Result returns the structure built so far.
func (p *Parser) Result() *model.Group {
	return p.result
}

// HandleLine classifies one raw line and folds it into the result.
func (p *Parser) HandleLine(raw string) error {
	kind, payload := Classify(raw)
	switch kind {
	case LineFrame:
		_, seconds, err := ParseFrame(payload)
		if err != nil {
			p.skipped++
			util.LogDebug(fmt.Sprintf("Skip frame line: %v", err))
			return nil
		}
		p.frames++
		return p.result.AppendValue(model.TimelineField, model.FloatValue(seconds))

	case LineCore:
		group, err := AssembleRow(p.result, payload, "", nil)
		if err != nil {
			return err
		}
		if group == model.CoreTimestampField {
			p.refreshTimestamp(p.result)
		}

	case LineSideChannel:
		if p.lastTimestamp == nil {
			p.skipped++
			util.LogWarn("Skip custom actor record seen before any core timestamp")
			return nil
		}
		link := *p.lastTimestamp
		if _, err := AssembleRow(p.result, payload, model.SideChannelGroup, &link); err != nil {
			return err
		}
		p.sideChannel++

	default:
		return nil
	}

	if p.debug {
		return validator.ValidateResult(p.result)
	}
	return nil
}

// TrackLine looks at a line outside the assigned range: it only keeps the
// latest core timestamp so side-channel records at the start of a range are
// linked exactly as a full sequential pass would link them.
func (p *Parser) TrackLine(raw string) {
	kind, payload := Classify(raw)
	if kind != LineCore {
		return
	}
	if !strings.HasPrefix(payload, model.CoreTimestampField+":") {
		return
	}
	scratch := model.NewGroup()
	if _, err := AssembleRow(scratch, payload, "", nil); err != nil {
		return
	}
	p.refreshTimestamp(scratch)
}

func (p *Parser) refreshTimestamp(root *model.Group) {
	g, ok := root.Group(model.CoreTimestampField)
	if !ok {
		return
	}
	f, ok := g.Field(model.BareValueField)
	if !ok {
		return
	}
	if v, ok := f.Last(); ok {
		p.lastTimestamp = &v
	}
}

// NewLineScanner returns a scanner that splits r into lines the way every
// parser pass sees them, allowing lines up to 16MB.
func NewLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}

// ParseFile parses a whole recording.
func (p *Parser) ParseFile(path string) (*model.Group, error) {
	return p.ParseRange(path, 0, ToEnd)
}

// ParseRange parses lines with index in [start, end) of the file at path.
// Earlier lines are only tracked for the core timestamp; reading stops at end.
func (p *Parser) ParseRange(path string, start, end int) (*model.Group, error) {
	util.LogDebug(fmt.Sprintf("Start parsing file: %s, lines [%d, %d)", path, start, end))

	file, err := os.Open(path)
	if err != nil {
		util.LogDebug(fmt.Sprintf("Failed to open file: %s - %v", path, err))
		return nil, err
	}
	defer file.Close()

	scanner := NewLineScanner(file)

	startTime := time.Now()
	index := 0
	for scanner.Scan() {
		if end != ToEnd && index >= end {
			break
		}
		if index < start {
			p.TrackLine(scanner.Text())
		} else if err := p.HandleLine(scanner.Text()); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, index+1, err)
		}
		index++

		if index%progressInterval == 0 {
			util.LogDebugf("Lines read: %d @ %.3fs", index, time.Since(startTime).Seconds())
		}
	}

	if err := scanner.Err(); err != nil {
		util.LogDebug(fmt.Sprintf("Error scanning file: %s - %v", path, err))
		return nil, err
	}

	util.LogDebug(fmt.Sprintf("Parsed %s lines [%d, %d): %d frames, %d custom actor records, %d skipped in %v",
		path, start, index, p.frames, p.sideChannel, p.skipped, time.Since(startTime)))
	return p.result, nil
}
