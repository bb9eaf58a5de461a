package config

import (
	"flag"
	"fmt"
	"io"
)

// Flags holds the command-line arguments. Zero values mean "not given".
type Flags struct {
	RoomCode       string
	ServerURL      string
	Volume         int
	IncludeBedroom bool
	ConfigPath     string
	Debug          bool
}

// ParseFlags parses the command line: an optional positional room code plus options
func ParseFlags(name string, args []string, output io.Writer) (Flags, error) {
	var f Flags

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] [room_code]\n", name)
		fs.PrintDefaults()
	}
	fs.StringVar(&f.ServerURL, "server", "", "Game server URL")
	fs.IntVar(&f.Volume, "volume", -1, "Speaker volume (0-100)")
	fs.BoolVar(&f.IncludeBedroom, "include-bedroom", false, "Include bedroom speakers")
	fs.StringVar(&f.ConfigPath, "config", "", "Path to a YAML configuration file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	switch fs.NArg() {
	case 0:
	case 1:
		f.RoomCode = fs.Arg(0)
	default:
		return Flags{}, fmt.Errorf("expected at most one room code, got %d arguments", fs.NArg())
	}

	return f, nil
}
