package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sqweek/dialog"

	"duskvault/reportui"
)

func printBanner() {
	banner := `
	██████╗ ██╗   ██╗███████╗██╗  ██╗██╗   ██╗ █████╗ ██╗   ██╗██╗  ████████╗
	██╔══██╗██║   ██║██╔════╝██║ ██╔╝██║   ██║██╔══██╗██║   ██║██║  ╚══██╔══╝
	██║  ██║██║   ██║███████╗█████╔╝ ██║   ██║███████║██║   ██║██║     ██║
	██║  ██║██║   ██║╚════██║██╔═██╗ ╚██╗ ██╔╝██╔══██║██║   ██║██║     ██║
	██████╔╝╚██████╔╝███████║██║  ██╗ ╚████╔╝ ██║  ██║╚██████╔╝███████╗██║
	╚═════╝  ╚═════╝ ╚══════╝╚═╝  ╚═╝  ╚═══╝  ╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚═╝
`
	color.New(color.FgCyan, color.Bold).Println(banner)
}

// isGUIAvailable mirrors the teacher's best-effort display-server probe:
// never crash interactive mode over a GUI toolkit failing to initialize.
func isGUIAvailable() bool {
	defer func() { recover() }()
	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return false
	}
	return true
}

func guiDirectoryPicker(title string) (dir string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gui picker panicked: %v", r)
		}
	}()
	dir, err = dialog.Directory().Title(title).Browse()
	if err != nil {
		return "", err
	}
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		return "", fmt.Errorf("%q is not a directory", dir)
	}
	return dir, nil
}

func promptDirectory(label string, useGUI bool) string {
	if useGUI && isGUIAvailable() {
		if dir, err := guiDirectoryPicker(label); err == nil {
			return dir
		}
		reportui.Warning("GUI picker unavailable, falling back to text prompt")
	}

	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if info, err := os.Stat(input); err != nil || !info.IsDir() {
				return fmt.Errorf("not a valid directory")
			}
			return nil
		},
	}
	dir, err := prompt.Run()
	if err == promptui.ErrInterrupt {
		color.New(color.FgRed, color.Bold).Println("\nInterrupted. Exiting cleanly.")
		os.Exit(130)
	} else if err != nil {
		reportui.Error("directory prompt failed: %v", err)
		os.Exit(2)
	}
	return dir
}

// runInteractive drives the no-args CLI experience: pick an operation, then
// the directories it needs, then dispatch into the same run* functions the
// flag-driven subcommands use.
func runInteractive() {
	printBanner()
	fmt.Println()
	color.New(color.FgWhite).Println("   duskvault keeps a destination tree in sync with a set of inputs,")
	color.New(color.FgWhite).Println("   or packages/restores a deduplicated off-site snapshot chain.")
	fmt.Println()

	opSelect := promptui.Select{
		Label: "What would you like to do?",
		Items: []string{
			"Mirror a destination to match my inputs",
			"Package an off-site snapshot",
			"Restore from an off-site snapshot chain",
			"Exit",
		},
	}
	idx, _, err := opSelect.Run()
	if err == promptui.ErrInterrupt {
		os.Exit(130)
	} else if err != nil {
		reportui.Error("operation prompt failed: %v", err)
		os.Exit(2)
	}

	useGUI := true
	switch idx {
	case 0:
		source := promptDirectory("Source directory", useGUI)
		dest := promptDirectory("Destination directory", useGUI)
		so := scanOptions{inputs: []string{source}}
		if err := runMirror(so, dest, false, false, false, false, false, ""); err != nil {
			reportui.Error("%v", err)
			os.Exit(2)
		}
	case 1:
		source := promptDirectory("Source directory", useGUI)
		output := promptDirectory("Snapshot output directory", useGUI)
		so := scanOptions{inputs: []string{source}}
		if err := runOffsite(so, output, "default", defaultDataDir(), false, false, false, false, false, ""); err != nil {
			reportui.Error("%v", err)
			os.Exit(2)
		}
	case 2:
		snapshots := promptDirectory("Snapshot chain directory", useGUI)
		if err := runOffsiteRestore(snapshots, nil, false, false, ""); err != nil {
			reportui.Error("%v", err)
			os.Exit(2)
		}
	default:
		color.New(color.FgYellow).Println("\n👋 Okay, nothing to do.")
	}
}
