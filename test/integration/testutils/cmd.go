package testutils

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

var multiSpaceRegex = regexp.MustCompile(" +")

// RunPlancoach executes a plancoach command with the given arguments string (split by spaces).
// Use RunPlancoachArgs when arguments contain spaces that should be preserved.
func RunPlancoach(ctx context.Context, env []string, binary, cmdArgs, stdin string) (stdout, stderr []byte, err error) {
	cmdArgs = strings.TrimSpace(cmdArgs)
	cmdArgs = multiSpaceRegex.ReplaceAllString(cmdArgs, " ")

	var args []string
	if cmdArgs != "" {
		args = strings.Split(cmdArgs, " ")
	}

	return RunPlancoachArgs(ctx, env, binary, args, stdin)
}

// RunPlancoachArgs executes a plancoach command with pre-split arguments, logs are
// always disabled.
func RunPlancoachArgs(ctx context.Context, env []string, binary string, args []string, stdin string) (stdout, stderr []byte, err error) {
	var outData, errData bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Stdout = &outData
	cmd.Stderr = &errData

	// Custom env overrides the inherited one, last key wins.
	newEnv := append([]string{}, os.Environ()...)
	newEnv = append(newEnv, env...)
	newEnv = append(newEnv, "PLANCOACH_NO_LOG=true")
	cmd.Env = newEnv

	err = cmd.Run()

	return outData.Bytes(), errData.Bytes(), err
}
