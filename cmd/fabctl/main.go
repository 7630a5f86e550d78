package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
)

var version = "0.1.0-dev"

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	// --- NOUNS ---
	case "workspace":
		return runWorkspaceNoun(args)
	case "item":
		return runItemNoun(args)
	case "definition":
		return runDefinitionNoun(args)
	case "folder":
		return runFolderNoun(args)
	case "capacity":
		return runCapacityNoun(args)
	case "tree":
		return runTreeNoun(args)
	case "settings":
		return runSettingsNoun(args)

	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func isHelpToken(s string) bool {
	return s == "help" || s == "--help" || s == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return true
		}
	}
	return false
}

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	info := versionInfo{Version: strings.TrimSpace(version), Commit: readBuildSetting("vcs.revision")}
	if info.Commit == "" {
		info.Commit = "unknown"
	} else if len(info.Commit) > 12 {
		info.Commit = info.Commit[:12]
	}

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("fabctl %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	return 0
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printUsage() {
	fmt.Print(`fabctl - Microsoft Fabric workspace client

Usage:
  fabctl <noun> <action> [flags]

Core Resources (Nouns):
  workspace   Fabric workspaces
  item        Items within a workspace
  definition  Item definition sync (pull/push/diff/status)
  folder      Workspace folders
  capacity    Capacities visible to the caller
  tree        Workspace tree (print or interactive browse)
  settings    Persisted UI settings

Workspace Commands:
  workspace list                    List workspaces (personal first)
  workspace show --id <id>          Show one workspace
  workspace create --name <n>       Create a workspace
  workspace update --id <id>        Rename or re-describe a workspace
  workspace delete --id <id>        Delete a workspace
  workspace hide --id <id>          Hide a workspace from the tree
  workspace unhide --id <id>        Unhide a workspace

Item Commands:
  item list --workspace <id>        List items, optionally by --type
  item show --workspace <id> --id <id> --type <t>
  item create --workspace <id> --name <n> --type <t> [--from <dir>]
  item update --workspace <id> --id <id> --type <t> [--name] [--description]
  item delete --workspace <id> --id <id> --type <t>

Definition Commands:
  definition pull --workspace <id> --id <id> --type <t> [--dir <dir>]
  definition push --workspace <id> --id <id> --type <t> [--dir <dir>]
  definition diff --workspace <id> --id <id> --type <t> [--dir <dir>]
  definition status --id <id>

Tree Commands:
  tree show                         Print the workspace tree
  tree browse                       Interactive tree browser (TUI)

General:
  version                           Show version information
  help                              Show this help message

All actions accept --config <path>; otherwise FABCTL_CONFIG and the standard
locations are searched.

Use 'fabctl <noun> help' for resource-specific flags.
`)
}
