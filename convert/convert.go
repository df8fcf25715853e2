package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Converter is the interface for turning an equirectangular image in to a
// horizontal-cross cubemap image.
type Converter interface {
	// EquirectangularToCubemap converts the image at 'source' in to a cubemap
	// written to 'target' whose faces are squares of edge length 'size'.
	EquirectangularToCubemap(ctx context.Context, source string, target string, size int) error
}

// commandContext is a seam for tests to intercept the external process.
var commandContext = exec.CommandContext

// CLI invokes a convert360-style command-line projector. Unlike a plain shell
// invocation the exit status is inspected and the presence of the output file
// is confirmed, so a failed conversion surfaces here rather than later as an
// unreadable cubemap.
type CLI struct {
	binary string
}

// CLIOption is a function for assigning optional properties to a CLI.
type CLIOption func(*CLI)

// WithBinary overrides the projector binary invoked by a CLI.
func WithBinary(binary string) CLIOption {
	return func(c *CLI) {
		if strings.TrimSpace(binary) != "" {
			c.binary = binary
		}
	}
}

// NewCLI returns a CLI which invokes the "convert360" binary found on the
// current PATH, unless overridden with WithBinary.
func NewCLI(opts ...CLIOption) *CLI {

	c := &CLI{
		binary: "convert360",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// EquirectangularToCubemap implements the Converter interface using an
// external process.
func (c *CLI) EquirectangularToCubemap(ctx context.Context, source string, target string, size int) error {

	if source == "" {
		return errors.New("Missing source path")
	}

	if target == "" {
		return errors.New("Missing target path")
	}

	if size <= 0 {
		return fmt.Errorf("Invalid face size %d", size)
	}

	args := []string{
		"--convert", "e2c",
		"--i", source,
		"--o", target,
		"--w", strconv.Itoa(size),
	}

	cmd := commandContext(ctx, c.binary, args...)

	out, err := cmd.CombinedOutput()

	if err != nil {
		return fmt.Errorf("Failed to run %s, %w (%s)", c.binary, err, strings.TrimSpace(string(out)))
	}

	_, err = os.Stat(target)

	if err != nil {
		return fmt.Errorf("Projector exited cleanly but did not produce %s, %w", target, err)
	}

	return nil
}
