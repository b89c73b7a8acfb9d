package terminal

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ShellType names a shell the backend can launch.
type ShellType string

// Known shells.
const (
	ShellBash       ShellType = "bash"
	ShellZsh        ShellType = "zsh"
	ShellFish       ShellType = "fish"
	ShellSh         ShellType = "sh"
	ShellPowerShell ShellType = "powershell"
	ShellWSL        ShellType = "wsl"
	ShellCmd        ShellType = "cmd"
)

// LookPathFunc resolves an executable name. exec.LookPath satisfies it.
type LookPathFunc func(file string) (string, error)

var unixShells = []ShellType{ShellBash, ShellZsh, ShellFish, ShellSh}

// ParseShell converts a name such as "Bash" or "pwsh" to a ShellType.
func ParseShell(name string) (ShellType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bash":
		return ShellBash, nil
	case "zsh":
		return ShellZsh, nil
	case "fish":
		return ShellFish, nil
	case "sh":
		return ShellSh, nil
	case "powershell", "pwsh":
		return ShellPowerShell, nil
	case "wsl":
		return ShellWSL, nil
	case "cmd":
		return ShellCmd, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownShell, name)
	}
}

// DetectShells lists the shells available on goos. Bash is always listed on
// Unix systems and Cmd on Windows; the others only when lookPath finds them.
func DetectShells(goos string, lookPath LookPathFunc) []ShellType {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	var shells []ShellType
	if goos == "windows" {
		if _, err := lookPath("powershell.exe"); err == nil {
			shells = append(shells, ShellPowerShell)
		}
		if _, err := lookPath("wsl.exe"); err == nil {
			shells = append(shells, ShellWSL)
		}
		return append(shells, ShellCmd)
	}

	shells = append(shells, ShellBash)
	for _, sh := range unixShells[1:] {
		if _, err := lookPath(string(sh)); err == nil {
			shells = append(shells, sh)
		}
	}
	return shells
}

// PlatformDefaultShell returns the preferred shell on goos.
func PlatformDefaultShell(goos string) ShellType {
	if goos == "windows" {
		return ShellPowerShell
	}
	return ShellBash
}

// LocalShells detects the shells of the running platform.
func LocalShells() []ShellType {
	return DetectShells(runtime.GOOS, exec.LookPath)
}

// Command returns the executable and arguments that launch shell on goos.
// Unix shells start as login shells.
func Command(shell ShellType, goos string) (string, []string, error) {
	if goos == "windows" {
		switch shell {
		case ShellPowerShell:
			return "powershell.exe", []string{"-NoLogo"}, nil
		case ShellWSL:
			return "wsl.exe", nil, nil
		case ShellCmd:
			return "cmd.exe", nil, nil
		}
		return "", nil, fmt.Errorf("%w: %s on %s", ErrShellNotFound, shell, goos)
	}

	switch shell {
	case ShellBash, ShellZsh, ShellFish:
		return string(shell), []string{"-l"}, nil
	case ShellSh:
		return "sh", nil, nil
	}
	return "", nil, fmt.Errorf("%w: %s on %s", ErrShellNotFound, shell, goos)
}
