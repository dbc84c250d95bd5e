package publisher

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommandPublisher(t *testing.T) {
	p, err := NewCommandPublisher(DefaultCommand)
	require.NoError(t, err)
	assert.Equal(t, "noscl", p.Path)
	assert.Equal(t, []string{"publish", "-"}, p.Args)

	_, err = NewCommandPublisher("   ")
	assert.Error(t, err)
}

func TestCommandPublisher_PipesNote(t *testing.T) {
	out := filepath.Join(t.TempDir(), "note.md")
	var stdout bytes.Buffer
	p := &CommandPublisher{
		Path:   "sh",
		Args:   []string{"-c", "tee " + out},
		Stdout: &stdout,
	}

	note := "Date: Sat, 04 Feb 2023 18:30:05 +0000\n\n---\n"
	require.NoError(t, p.Publish(context.Background(), note))

	b, err := ioutil.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, note, string(b))
	assert.Equal(t, note, stdout.String())
}

func TestCommandPublisher_Failure(t *testing.T) {
	p := &CommandPublisher{
		Path:   "sh",
		Args:   []string{"-c", "echo 'relay unreachable' >&2; exit 3"},
		Stdout: ioutil.Discard,
	}

	err := p.Publish(context.Background(), "note")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay unreachable")
}

func TestCommandPublisher_MissingBinary(t *testing.T) {
	p := &CommandPublisher{Path: "mempoolnote-does-not-exist", Stdout: ioutil.Discard}
	assert.Error(t, p.Publish(context.Background(), "note"))
}
