package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mattjoyce/fabctl/internal/fabric"
)

func runItemNoun(args []string) int {
	if len(args) < 1 {
		printItemNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printItemNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "list":
		return runItemList(actionArgs)
	case "show":
		return runItemShow(actionArgs)
	case "create":
		return runItemCreate(actionArgs)
	case "update":
		return runItemUpdate(actionArgs)
	case "delete":
		return runItemDelete(actionArgs)
	case "help":
		printItemNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown item action: %s\n", action)
		return 1
	}
}

func printItemNounHelp(w *os.File) {
	fmt.Fprint(w, `Usage: fabctl item <action> [flags]

Actions:
  list      List items in a workspace, optionally filtered by --type
  show      Fetch one item (renders the raw payload unless a handler is registered)
  create    Create an item; --from <dir> uploads a local definition
  update    Change display name or description
  delete    Delete an item

Item operations run through per-type workflow hooks when any are registered.
`)
}

// itemFlags are the flags every item action shares.
type itemFlags struct {
	configPath  string
	workspaceID string
	itemID      string
	itemType    string
}

func (f *itemFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "Path to configuration")
	fs.StringVar(&f.workspaceID, "workspace", "", "Workspace id")
	fs.StringVar(&f.itemID, "id", "", "Item id")
	fs.StringVar(&f.itemType, "type", "", "Item type (e.g. Notebook, Report)")
}

func runItemList(args []string) int {
	var f itemFlags
	fs := flag.NewFlagSet("item list", flag.ContinueOnError)
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if f.workspaceID == "" {
		fmt.Fprintln(os.Stderr, "Usage: fabctl item list --workspace <id> [--type <t>]")
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, f.configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	items, err := a.client.ListItems(ctx, f.workspaceID, f.itemType)
	if err != nil {
		return report(err)
	}

	for _, item := range items {
		fmt.Printf("%-36s  %-20s  %s\n", item.ID, item.Type, item.DisplayName)
	}
	return 0
}

func runItemShow(args []string) int {
	var f itemFlags
	fs := flag.NewFlagSet("item show", flag.ContinueOnError)
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if f.workspaceID == "" || f.itemID == "" {
		fmt.Fprintln(os.Stderr, "Usage: fabctl item show --workspace <id> --id <id> [--type <t>]")
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, f.configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	// The dispatcher renders through the default viewer when no after-hook is
	// registered for the type.
	if _, err := a.dispatcher.Read(ctx, f.workspaceID, f.itemID, f.itemType); err != nil {
		return report(err)
	}
	return 0
}

func runItemCreate(args []string) int {
	var f itemFlags
	fs := flag.NewFlagSet("item create", flag.ContinueOnError)
	f.register(fs)
	name := fs.String("name", "", "Display name")
	description := fs.String("description", "", "Description")
	folderID := fs.String("folder", "", "Folder id to create in")
	fromDir := fs.String("from", "", "Local definition directory to upload")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if f.workspaceID == "" || *name == "" || f.itemType == "" {
		fmt.Fprintln(os.Stderr, "Usage: fabctl item create --workspace <id> --name <n> --type <t> [--folder <id>] [--from <dir>]")
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, f.configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	release, err := a.guard.Begin("item create")
	if err != nil {
		return report(err)
	}
	defer release()

	create := fabric.CreateItemRequest{
		DisplayName: *name,
		Type:        f.itemType,
		Description: *description,
		FolderID:    *folderID,
	}

	if *fromDir != "" {
		def, err := a.syncer.BuildDefinition(ctx, *fromDir)
		if err != nil {
			return report(err)
		}
		create.Definition = def
	}

	item, err := a.dispatcher.Create(ctx, f.workspaceID, create)
	if err != nil {
		return report(err)
	}

	fmt.Printf("Created %s %s (%s)\n", item.Type, item.DisplayName, item.ID)
	return 0
}

func runItemUpdate(args []string) int {
	var f itemFlags
	fs := flag.NewFlagSet("item update", flag.ContinueOnError)
	f.register(fs)
	name := fs.String("name", "", "New display name")
	description := fs.String("description", "", "New description")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if f.workspaceID == "" || f.itemID == "" || (*name == "" && *description == "") {
		fmt.Fprintln(os.Stderr, "Usage: fabctl item update --workspace <id> --id <id> --type <t> [--name <n>] [--description <d>]")
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, f.configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	item := fabric.Item{ID: f.itemID, WorkspaceID: f.workspaceID, Type: f.itemType}
	updated, err := a.dispatcher.Update(ctx, item, fabric.UpdateItemRequest{
		DisplayName: *name,
		Description: *description,
	})
	if err != nil {
		return report(err)
	}

	fmt.Printf("Updated %s (%s)\n", updated.DisplayName, updated.ID)
	return 0
}

func runItemDelete(args []string) int {
	var f itemFlags
	fs := flag.NewFlagSet("item delete", flag.ContinueOnError)
	f.register(fs)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if f.workspaceID == "" || f.itemID == "" {
		fmt.Fprintln(os.Stderr, "Usage: fabctl item delete --workspace <id> --id <id> --type <t> [--yes]")
		return 1
	}

	if !*yes && !confirm(fmt.Sprintf("Delete item %s?", f.itemID)) {
		return 0
	}

	ctx := context.Background()
	a, err := newApp(ctx, f.configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	release, err := a.guard.Begin("item delete")
	if err != nil {
		return report(err)
	}
	defer release()

	item := fabric.Item{ID: f.itemID, WorkspaceID: f.workspaceID, Type: f.itemType}
	if err := a.dispatcher.Delete(ctx, item); err != nil {
		return report(err)
	}

	fmt.Printf("Deleted item %s\n", f.itemID)
	return 0
}
