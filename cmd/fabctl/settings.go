package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mattjoyce/fabctl/internal/settings"
)

func runSettingsNoun(args []string) int {
	if len(args) < 1 {
		printSettingsNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSettingsNounHelp(os.Stdout)
		return 0
	}

	switch args[0] {
	case "show":
		return runSettingsShow(args[1:])
	case "style":
		return runSettingsStyle(args[1:])
	case "definitions":
		return runSettingsDefinitions(args[1:])
	case "help":
		printSettingsNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown settings action: %s\n", args[0])
		return 1
	}
}

func printSettingsNounHelp(w *os.File) {
	fmt.Fprint(w, `Usage: fabctl settings <action> [flags]

Actions:
  show                       Print current settings
  style [tree|list]          Get or set the tree display style
  definitions [on|off]       Get or set definition-file nodes in the tree
`)
}

func runSettingsShow(args []string) int {
	fs := flag.NewFlagSet("settings show", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	style, err := a.store.DisplayStyle(ctx)
	if err != nil {
		return report(err)
	}
	showDefs, err := a.store.ShowDefinitions(ctx)
	if err != nil {
		return report(err)
	}
	hidden, err := a.store.HiddenWorkspaces(ctx)
	if err != nil {
		return report(err)
	}

	fmt.Printf("Display style:      %s\n", style)
	fmt.Printf("Show definitions:   %t\n", showDefs)
	fmt.Printf("Hidden workspaces:  %d\n", len(hidden))
	return 0
}

func runSettingsStyle(args []string) int {
	fs := flag.NewFlagSet("settings style", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	if fs.NArg() == 0 {
		style, err := a.store.DisplayStyle(ctx)
		if err != nil {
			return report(err)
		}
		fmt.Println(style)
		return 0
	}

	style := settings.DisplayStyle(fs.Arg(0))
	if err := a.store.SetDisplayStyle(ctx, style); err != nil {
		return report(err)
	}
	fmt.Printf("Display style set to %s\n", style)
	return 0
}

func runSettingsDefinitions(args []string) int {
	fs := flag.NewFlagSet("settings definitions", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	if fs.NArg() == 0 {
		show, err := a.store.ShowDefinitions(ctx)
		if err != nil {
			return report(err)
		}
		if show {
			fmt.Println("on")
		} else {
			fmt.Println("off")
		}
		return 0
	}

	var show bool
	switch fs.Arg(0) {
	case "on":
		show = true
	case "off":
		show = false
	default:
		fmt.Fprintf(os.Stderr, "Expected 'on' or 'off', got %q\n", fs.Arg(0))
		return 1
	}
	if err := a.store.SetShowDefinitions(ctx, show); err != nil {
		return report(err)
	}
	fmt.Printf("Show definitions: %s\n", fs.Arg(0))
	return 0
}
