// Package osclip reads and writes the system clipboard by spawning the
// platform's command line utility. It is the last-resort tier used when no
// in-process clipboard API is reachable.
//
// The utilities are fixed per operating system:
//
//	windows: clip                          | powershell -command Get-Clipboard
//	darwin:  pbcopy                        | pbpaste
//	other:   xclip -selection clipboard    | xclip -selection clipboard -o
//	         (xsel --clipboard --input)    | (xsel --clipboard --output)
//
// The xsel commands are only tried when xclip cannot be started at all.
package osclip

import "strings"

// Command is an argv to spawn.
type Command struct {
	Name string
	Args []string
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Platform is one row of the dispatch table.
type Platform struct {
	Write Command
	Read  Command

	// FallbackWrite and FallbackRead are tried only when the primary
	// command fails to start.
	FallbackWrite *Command
	FallbackRead  *Command

	// StripTrailingNewline removes one line terminator the read command
	// appends to its output.
	StripTrailingNewline bool
}

var (
	windowsPlatform = Platform{
		Write:                Command{Name: "clip"},
		Read:                 Command{Name: "powershell", Args: []string{"-command", "Get-Clipboard"}},
		StripTrailingNewline: true,
	}

	darwinPlatform = Platform{
		Write: Command{Name: "pbcopy"},
		Read:  Command{Name: "pbpaste"},
	}

	unixPlatform = Platform{
		Write:         Command{Name: "xclip", Args: []string{"-selection", "clipboard"}},
		Read:          Command{Name: "xclip", Args: []string{"-selection", "clipboard", "-o"}},
		FallbackWrite: &Command{Name: "xsel", Args: []string{"--clipboard", "--input"}},
		FallbackRead:  &Command{Name: "xsel", Args: []string{"--clipboard", "--output"}},
	}
)

// PlatformFor returns the dispatch row for a GOOS value.
func PlatformFor(goos string) Platform {
	switch goos {
	case "windows":
		return windowsPlatform
	case "darwin":
		return darwinPlatform
	default:
		return unixPlatform
	}
}

// utilities lists every binary the platform may spawn, primary first.
func (p Platform) utilities() []string {
	names := []string{p.Write.Name}
	if p.Read.Name != p.Write.Name {
		names = append(names, p.Read.Name)
	}
	if p.FallbackWrite != nil {
		names = append(names, p.FallbackWrite.Name)
	}
	return names
}
