package build

import (
	"strings"
)

// maxStepLength bounds the step text shown next to the spinner.
const maxStepLength = 60

// FindStages returns the names of every "FROM <image> AS <name>" stage in a
// Containerfile, in order of appearance.
func FindStages(containerfile string) []string {
	var stages []string
	for _, line := range strings.Split(containerfile, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		if !strings.HasPrefix(lower, "from") {
			continue
		}
		i := strings.Index(lower, " as ")
		if i < 0 {
			continue
		}
		// Anything after the stage name, such as a comment, is ignored.
		if fields := strings.Fields(line[i+4:]); len(fields) > 0 {
			stages = append(stages, fields[0])
		}
	}
	return stages
}

// HasStage reports whether name is one of stages.
func HasStage(stages []string, name string) bool {
	for _, s := range stages {
		if s == name {
			return true
		}
	}
	return false
}

// ExtractStepInfo pulls the instruction out of a build progress line.
// Recognised forms:
//
//	STEP 1/5: FROM debian:bookworm-slim   (podman)
//	#5 [stage 2/3] RUN apt-get update      (docker buildkit)
//	[2/3] RUN curl ...                     (docker)
func ExtractStepInfo(line string) (string, bool) {
	line = strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(line, "STEP "):
		_, rest, ok := strings.Cut(line, ":")
		if !ok {
			return "", false
		}
		return truncateStep(rest), true
	case strings.HasPrefix(line, "#") && strings.Contains(line, "["),
		strings.HasPrefix(line, "[") && strings.Contains(line, "]"):
		_, rest, ok := strings.Cut(line, "]")
		if !ok {
			return "", false
		}
		return truncateStep(rest), true
	}
	return "", false
}

func truncateStep(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStepLength {
		return s[:maxStepLength] + "..."
	}
	return s
}
