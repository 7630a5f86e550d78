package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mattjoyce/fabctl/internal/fabric"
)

func runWorkspaceNoun(args []string) int {
	if len(args) < 1 {
		printWorkspaceNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printWorkspaceNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "list":
		return runWorkspaceList(actionArgs)
	case "show":
		return runWorkspaceShow(actionArgs)
	case "create":
		return runWorkspaceCreate(actionArgs)
	case "update":
		return runWorkspaceUpdate(actionArgs)
	case "delete":
		return runWorkspaceDelete(actionArgs)
	case "hide":
		return runWorkspaceHidden(actionArgs, true)
	case "unhide":
		return runWorkspaceHidden(actionArgs, false)
	case "help":
		printWorkspaceNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown workspace action: %s\n", action)
		return 1
	}
}

func printWorkspaceNounHelp(w *os.File) {
	fmt.Fprint(w, `Usage: fabctl workspace <action> [flags]

Actions:
  list      List workspaces, personal workspace first
  show      Show one workspace by id
  create    Create a workspace (optionally on a capacity)
  update    Change display name or description
  delete    Delete a workspace
  hide      Hide a workspace from the tree views
  unhide    Make a hidden workspace visible again
`)
}

func runWorkspaceList(args []string) int {
	fs := flag.NewFlagSet("workspace list", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	showHidden := fs.Bool("all", false, "Include workspaces hidden from the tree")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	workspaces, err := a.client.ListWorkspaces(ctx)
	if err != nil {
		return report(err)
	}

	hidden := map[string]bool{}
	if !*showHidden {
		if hidden, err = a.store.HiddenWorkspaces(ctx); err != nil {
			return report(err)
		}
	}

	for _, ws := range workspaces {
		if hidden[ws.ID] {
			continue
		}
		marker := " "
		if ws.Type == fabric.WorkspaceTypePersonal {
			marker = "*"
		}
		fmt.Printf("%s %-36s  %s\n", marker, ws.ID, ws.DisplayName)
	}
	return 0
}

func runWorkspaceShow(args []string) int {
	fs := flag.NewFlagSet("workspace show", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	id := fs.String("id", "", "Workspace id")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *id == "" {
		fmt.Fprintln(os.Stderr, "Usage: fabctl workspace show --id <id>")
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	ws, err := a.client.GetWorkspace(ctx, *id)
	if err != nil {
		return report(err)
	}

	fmt.Printf("id:          %s\n", ws.ID)
	fmt.Printf("name:        %s\n", ws.DisplayName)
	fmt.Printf("type:        %s\n", ws.Type)
	if ws.Description != "" {
		fmt.Printf("description: %s\n", ws.Description)
	}
	if ws.CapacityID != "" {
		fmt.Printf("capacity:    %s\n", ws.CapacityID)
	}
	return 0
}

func runWorkspaceCreate(args []string) int {
	fs := flag.NewFlagSet("workspace create", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	name := fs.String("name", "", "Display name")
	description := fs.String("description", "", "Description")
	capacityID := fs.String("capacity", "", "Capacity id to assign")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *name == "" {
		fmt.Fprintln(os.Stderr, "Usage: fabctl workspace create --name <name> [--description <d>] [--capacity <id>]")
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	ws, err := a.client.CreateWorkspace(ctx, fabric.CreateWorkspaceRequest{
		DisplayName: *name,
		Description: *description,
		CapacityID:  *capacityID,
	})
	if err != nil {
		return report(err)
	}

	fmt.Printf("Created workspace %s (%s)\n", ws.DisplayName, ws.ID)
	return 0
}

func runWorkspaceUpdate(args []string) int {
	fs := flag.NewFlagSet("workspace update", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	id := fs.String("id", "", "Workspace id")
	name := fs.String("name", "", "New display name")
	description := fs.String("description", "", "New description")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *id == "" || (*name == "" && *description == "") {
		fmt.Fprintln(os.Stderr, "Usage: fabctl workspace update --id <id> [--name <n>] [--description <d>]")
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	ws, err := a.client.UpdateWorkspace(ctx, *id, fabric.UpdateWorkspaceRequest{
		DisplayName: *name,
		Description: *description,
	})
	if err != nil {
		return report(err)
	}

	fmt.Printf("Updated workspace %s (%s)\n", ws.DisplayName, ws.ID)
	return 0
}

func runWorkspaceDelete(args []string) int {
	fs := flag.NewFlagSet("workspace delete", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	id := fs.String("id", "", "Workspace id")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *id == "" {
		fmt.Fprintln(os.Stderr, "Usage: fabctl workspace delete --id <id> [--yes]")
		return 1
	}

	if !*yes && !confirm(fmt.Sprintf("Delete workspace %s and everything in it?", *id)) {
		return 0
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	release, err := a.guard.Begin("workspace delete")
	if err != nil {
		return report(err)
	}
	defer release()

	if err := a.client.DeleteWorkspace(ctx, *id); err != nil {
		return report(err)
	}

	fmt.Printf("Deleted workspace %s\n", *id)
	return 0
}

func runWorkspaceHidden(args []string, hide bool) int {
	verb := "hide"
	if !hide {
		verb = "unhide"
	}

	fs := flag.NewFlagSet("workspace "+verb, flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	id := fs.String("id", "", "Workspace id")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *id == "" {
		fmt.Fprintf(os.Stderr, "Usage: fabctl workspace %s --id <id>\n", verb)
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	if err := a.store.SetWorkspaceHidden(ctx, *id, hide); err != nil {
		return report(err)
	}

	if hide {
		fmt.Printf("Workspace %s hidden from tree views\n", *id)
	} else {
		fmt.Printf("Workspace %s visible again\n", *id)
	}
	return 0
}

// confirm asks a y/N question on stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	var answer string
	_, _ = fmt.Scanln(&answer)
	return answer == "y" || answer == "Y" || answer == "yes"
}
