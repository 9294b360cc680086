package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RecordingOptions controls the shape of a synthetic DReyeVR recording.
type RecordingOptions struct {
	Frames int
	// CustomActorEvery emits custom actor records on every n-th frame; 0 disables them.
	CustomActorEvery int
	// CustomActorsPerFrame is the number of records emitted on those frames.
	CustomActorsPerFrame int
	// Header adds the CARLA recorder preamble lines that the parser ignores.
	Header bool
}

// RecordingGenerator writes synthetic recordings in the recorder's text format.
type RecordingGenerator struct {
	baseDir string
}

// NewRecordingGenerator creates a generator writing under baseDir.
func NewRecordingGenerator(baseDir string) *RecordingGenerator {
	return &RecordingGenerator{baseDir: baseDir}
}

// Generate writes name under the base directory and returns its path.
func (g *RecordingGenerator) Generate(name string, opts RecordingOptions) (string, error) {
	if err := os.MkdirAll(g.baseDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(g.baseDir, name)
	if err := os.WriteFile(path, []byte(strings.Join(RecordingLines(opts), "\n")+"\n"), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// RecordingLines returns the lines of a synthetic recording.
func RecordingLines(opts RecordingOptions) []string {
	var lines []string
	if opts.Header {
		lines = append(lines,
			"Version: 1",
			"Map: Town03",
			"Date: 02/16/22 14:20:11",
		)
	}

	for i := 0; i < opts.Frames; i++ {
		carla := 1000 + i*33
		lines = append(lines,
			fmt.Sprintf("Frame %d at %.6f seconds", i+1, float64(i+1)*0.033333),
			fmt.Sprintf("  [DReyeVR]TimestampCarla:%d", carla),
			EyeTrackerLine(i),
			EgoVariablesLine(i),
			UserInputsLine(i),
		)
		if opts.CustomActorEvery > 0 && i%opts.CustomActorEvery == 0 {
			for j := 0; j < opts.CustomActorsPerFrame; j++ {
				lines = append(lines, CustomActorLine(i, j))
			}
		}
	}
	return lines
}

func EyeTrackerLine(i int) string {
	return fmt.Sprintf("  [DReyeVR]EyeTracker:{TimestampDevice:%d,FrameSequence:%d,"+
		"COMBINED:{GazeRay:X=%.4f Y=%.4f Z=%.4f,Vergence:%.3f,Valid:%s},"+
		"LEFT:{GazeRay:X=0.9 Y=0.1 Z=0.0,EyeOpenness:%.2f,PupilDiameter:%.3f,Valid:True},"+
		"RIGHT:{GazeRay:X=0.9 Y=-0.1 Z=0.0,EyeOpenness:%.2f,PupilDiameter:%.3f,Valid:True}}",
		5000+i*8, i,
		1.0, float64(i%7)*0.01, -float64(i%5)*0.02, 2.5+float64(i%3),
		pyBool(i%11 != 0),
		1.0-float64(i%4)*0.1, 3.5+float64(i%6)*0.05,
		1.0-float64(i%3)*0.1, 3.4+float64(i%5)*0.05,
	)
}

func EgoVariablesLine(i int) string {
	return fmt.Sprintf("  [DReyeVR]EgoVariables:{VehicleLoc:X=%.2f Y=%.2f Z=0.30,"+
		"VehicleRot:P=0.000000 Y=%.6f R=0.000000,VehicleVel:%.3f,"+
		"CameraLocAbs:X=%.2f Y=%.2f Z=1.20,CameraRotAbs:P=%.3f Y=%.3f R=0.000}",
		float64(i)*1.25, -2.5, float64(i%360), 12.0+float64(i%10)*0.1,
		float64(i)*1.25+0.1, -2.4, float64(i%9)*0.5, float64(i%360)+0.25,
	)
}

func UserInputsLine(i int) string {
	return fmt.Sprintf("  [DReyeVR]UserInputs:{Throttle:%.2f,Steering:%.3f,Brake:%.2f,"+
		"ToggledReverse:False,TurnSignalLeft:%s,TurnSignalRight:%s,HoldHandbrake:False}",
		float64(i%10)*0.1, float64(i%7-3)*0.01, 0.0,
		pyBool(i%13 == 0), pyBool(i%17 == 0),
	)
}

func CustomActorLine(frame, n int) string {
	name := "PeriphTarget"
	if n%2 == 1 {
		name = "PeriphCross"
	}
	return fmt.Sprintf("  [DReyeVR_CA]Name:%s,Location:X=%.2f Y=%.2f Z=%.2f,"+
		"Rotation:P=0.0 Y=%.1f R=0.0,Scale3D:X=0.1 Y=0.1 Z=0.1,MaterialParams:{Opacity:1.0,Metallic:0.0}",
		name, float64(frame)*1.25+20, float64(n)*3, 1.5, float64(frame%90))
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
