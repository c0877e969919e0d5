package iojson

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// ErrNoInput is returned when neither -f nor piped stdin supplies a value.
var ErrNoInput = errors.New("no input provided (stdin is a terminal); use -f or pipe JSON")

// FileReader binds a -f/--file flag and reads a T from that file or, when
// the flag is unset, from piped stdin.
type FileReader[T any] struct {
	path string

	// Stdin overrides os.Stdin.
	Stdin io.Reader
}

func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to JSON file (reads from stdin if not provided)",
		TakesFile:   true,
		Destination: &fr.path,
	}
}

func (fr *FileReader[T]) Read() (T, error) {
	if fr.path != "" {
		f, err := os.Open(fr.path)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		return Decode[T](f)
	}

	in := fr.Stdin
	if in == nil {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			var zero T
			return zero, ErrNoInput
		}
		in = os.Stdin
	}
	return Decode[T](in)
}
