package build

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindStages(t *testing.T) {
	containerfile := `
FROM debian:bookworm-slim AS base
RUN apt-get update

FROM base AS claude
RUN install-claude

from base as opencode  # with comment
RUN install-opencode

FROM scratch
`
	assert.Equal(t, []string{"base", "claude", "opencode"}, FindStages(containerfile))
	assert.Empty(t, FindStages("RUN echo hi"))
}

func TestHasStage(t *testing.T) {
	stages := []string{"base", "claude"}
	assert.True(t, HasStage(stages, "claude"))
	assert.False(t, HasStage(stages, "opencode"))
}

func TestExtractStepInfo(t *testing.T) {
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"STEP 1/5: FROM debian:bookworm-slim", "FROM debian:bookworm-slim", true},
		{"STEP 3/5: RUN apt-get update && apt-get install -y git", "RUN apt-get update && apt-get install -y git", true},
		{"#5 [stage 2/3] RUN apt-get update", "RUN apt-get update", true},
		{"[2/3] RUN curl -fsSL example.com", "RUN curl -fsSL example.com", true},
		{"  STEP 2/5: USER agent  ", "USER agent", true},
		{"Some random output", "", false},
		{"Successfully built image", "", false},
		{"#7 DONE 0.3s", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ExtractStepInfo(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractStepInfo_Truncates(t *testing.T) {
	long := "RUN " + strings.Repeat("x", 100)
	got, ok := ExtractStepInfo("STEP 1/1: " + long)
	assert.True(t, ok)
	assert.Equal(t, long[:maxStepLength]+"...", got)
}
