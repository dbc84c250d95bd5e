package publisher

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultCommand publishes the note read from stdin with noscl.
const DefaultCommand = "noscl publish -"

// CommandPublisher pipes the note into the standard input of an external
// command.
type CommandPublisher struct {
	Path string
	Args []string
	// Stdout receives the standard output of the command.
	Stdout io.Writer
}

// NewCommandPublisher returns a CommandPublisher for a whitespace separated
// command line such as DefaultCommand.
func NewCommandPublisher(commandLine string) (*CommandPublisher, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, errors.Errorf("publish command is empty")
	}
	return &CommandPublisher{
		Path:   fields[0],
		Args:   fields[1:],
		Stdout: os.Stderr,
	}, nil
}

// Publish runs the command with text on its standard input and waits for it
// to exit.
func (p *CommandPublisher) Publish(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, p.Path, p.Args...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = p.Stdout

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.WithField("command", cmd.String()).Debug("running publish command")
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "publish command %q failed: %s", p.Path, strings.TrimSpace(stderr.String()))
	}
	return nil
}
