package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/omotivaudio/vocalbooth/internal/service"
)

// executePipeline continues the pipeline after the given completed step.
// The take and mix paths carry that step's outputs into the next ones.
func executePipeline(svc service.Booth, backingPath, takePath, mixPath string, completedStep rune) error {
	if pipeline == "" {
		return nil
	}

	steps := []rune(strings.ToLower(pipeline))

	startIndex := -1
	for i, step := range steps {
		if step == completedStep {
			startIndex = i
			break
		}
	}
	if startIndex == -1 {
		return fmt.Errorf("step '%c' not found in pipeline '%s'", completedStep, pipeline)
	}

	return runSteps(svc, backingPath, takePath, mixPath, steps[startIndex+1:])
}

// runSteps executes pipeline steps in order. 'r' records until Enter is
// pressed, 'm' mixes the most recent take over the backing track, 'p'
// plays the mix output (or the backing track when nothing was mixed).
func runSteps(svc service.Booth, backingPath, takePath, mixPath string, steps []rune) error {
	for i, step := range steps {
		fmt.Printf("Pipeline: executing step %d/%d: '%c'...\n", i+1, len(steps), step)

		switch step {
		case 'r':
			if err := svc.StartRecording(); err != nil {
				return fmt.Errorf("pipeline record failed: %w", err)
			}

			fmt.Println("Pipeline: recording... Press Enter to stop")
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Scan()

			path, err := svc.StopRecording()
			if err != nil {
				return fmt.Errorf("pipeline record stop failed: %w", err)
			}
			takePath = path
			fmt.Printf("Pipeline: recording completed: %s\n", path)

		case 'm':
			backing := backingPath
			if backing == "" {
				bt, err := svc.GetSelectedBackingtrack()
				if err != nil {
					return fmt.Errorf("pipeline mix failed: %w", err)
				}
				if bt == nil {
					return fmt.Errorf("pipeline mix failed: no backing track given or selected")
				}
				backing = bt.Path
			}

			take := takePath
			if take == "" {
				takes, err := svc.ListTakes()
				if err != nil {
					return fmt.Errorf("pipeline mix failed: %w", err)
				}
				if len(takes) == 0 {
					return fmt.Errorf("pipeline mix failed: no recorded takes found")
				}
				take = takes[0].Path
			}

			path, err := svc.MixTake(backing, take, service.MixOptions{
				BackingGain: 1.0,
				TakeGain:    1.0,
			})
			if err != nil {
				return fmt.Errorf("pipeline mix failed: %w", err)
			}
			mixPath = path
			fmt.Printf("Pipeline: mixing completed: %s\n", path)

		case 'p':
			target := mixPath
			if target == "" {
				target = backingPath
			}
			if target == "" {
				return fmt.Errorf("pipeline play failed: nothing to play")
			}

			if err := svc.LoadTrack(target); err != nil {
				return fmt.Errorf("pipeline play failed: %w", err)
			}
			if err := playUntilDone(svc); err != nil {
				return fmt.Errorf("pipeline play failed: %w", err)
			}
			fmt.Println("Pipeline: playback completed")

		default:
			return fmt.Errorf("unknown pipeline step: '%c' (valid: r=record, m=mix, p=play)", step)
		}
	}

	return nil
}
