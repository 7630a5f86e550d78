package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mattjoyce/fabctl/internal/fabric"
)

func runFolderNoun(args []string) int {
	if len(args) < 1 {
		printFolderNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printFolderNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "list":
		return runFolderList(actionArgs)
	case "create":
		return runFolderCreate(actionArgs)
	case "rename":
		return runFolderRename(actionArgs)
	case "move":
		return runFolderMove(actionArgs)
	case "delete":
		return runFolderDelete(actionArgs)
	case "help":
		printFolderNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown folder action: %s\n", action)
		return 1
	}
}

func printFolderNounHelp(w *os.File) {
	fmt.Fprint(w, `Usage: fabctl folder <action> [flags]

Actions:
  list      List all folders in a workspace
  create    Create a folder, optionally under a parent
  rename    Change a folder's display name
  move      Move a folder under another (or to the root with no target)
  delete    Delete an empty folder
`)
}

func runFolderList(args []string) int {
	fs := flag.NewFlagSet("folder list", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	workspaceID := fs.String("workspace", "", "Workspace id")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *workspaceID == "" {
		fmt.Fprintln(os.Stderr, "Usage: fabctl folder list --workspace <id>")
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	folders, err := a.client.ListFolders(ctx, *workspaceID)
	if err != nil {
		return report(err)
	}

	for _, f := range folders {
		parent := "(root)"
		if f.ParentFolderID != "" {
			parent = f.ParentFolderID
		}
		fmt.Printf("%-36s  %-36s  %s\n", f.ID, parent, f.DisplayName)
	}
	return 0
}

func runFolderCreate(args []string) int {
	fs := flag.NewFlagSet("folder create", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	workspaceID := fs.String("workspace", "", "Workspace id")
	name := fs.String("name", "", "Display name")
	parentID := fs.String("parent", "", "Parent folder id")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *workspaceID == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "Usage: fabctl folder create --workspace <id> --name <n> [--parent <id>]")
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	folder, err := a.client.CreateFolder(ctx, *workspaceID, fabric.CreateFolderRequest{
		DisplayName:    *name,
		ParentFolderID: *parentID,
	})
	if err != nil {
		return report(err)
	}

	fmt.Printf("Created folder %s (%s)\n", folder.DisplayName, folder.ID)
	return 0
}

func runFolderRename(args []string) int {
	fs := flag.NewFlagSet("folder rename", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	workspaceID := fs.String("workspace", "", "Workspace id")
	id := fs.String("id", "", "Folder id")
	name := fs.String("name", "", "New display name")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *workspaceID == "" || *id == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "Usage: fabctl folder rename --workspace <id> --id <id> --name <n>")
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	folder, err := a.client.UpdateFolder(ctx, *workspaceID, *id, fabric.UpdateFolderRequest{DisplayName: *name})
	if err != nil {
		return report(err)
	}

	fmt.Printf("Renamed folder to %s\n", folder.DisplayName)
	return 0
}

func runFolderMove(args []string) int {
	fs := flag.NewFlagSet("folder move", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	workspaceID := fs.String("workspace", "", "Workspace id")
	id := fs.String("id", "", "Folder id")
	target := fs.String("target", "", "Target parent folder id (empty moves to the workspace root)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *workspaceID == "" || *id == "" {
		fmt.Fprintln(os.Stderr, "Usage: fabctl folder move --workspace <id> --id <id> [--target <id>]")
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	folder, err := a.client.MoveFolder(ctx, *workspaceID, *id, fabric.MoveFolderRequest{TargetFolderID: *target})
	if err != nil {
		return report(err)
	}

	if folder.ParentFolderID == "" {
		fmt.Printf("Moved folder %s to the workspace root\n", folder.DisplayName)
	} else {
		fmt.Printf("Moved folder %s under %s\n", folder.DisplayName, folder.ParentFolderID)
	}
	return 0
}

func runFolderDelete(args []string) int {
	fs := flag.NewFlagSet("folder delete", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	workspaceID := fs.String("workspace", "", "Workspace id")
	id := fs.String("id", "", "Folder id")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *workspaceID == "" || *id == "" {
		fmt.Fprintln(os.Stderr, "Usage: fabctl folder delete --workspace <id> --id <id> [--yes]")
		return 1
	}

	if !*yes && !confirm(fmt.Sprintf("Delete folder %s?", *id)) {
		return 0
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	if err := a.client.DeleteFolder(ctx, *workspaceID, *id); err != nil {
		return report(err)
	}

	fmt.Printf("Deleted folder %s\n", *id)
	return 0
}
