package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mattjoyce/fabctl/internal/fabric"
	"github.com/mattjoyce/fabctl/internal/sync"
)

func runDefinitionNoun(args []string) int {
	if len(args) < 1 {
		printDefinitionNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printDefinitionNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "pull":
		return runDefinitionPull(actionArgs)
	case "push":
		return runDefinitionPush(actionArgs)
	case "diff":
		return runDefinitionDiff(actionArgs)
	case "status":
		return runDefinitionStatus(actionArgs)
	case "help":
		printDefinitionNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown definition action: %s\n", action)
		return 1
	}
}

func printDefinitionNounHelp(w *os.File) {
	fmt.Fprint(w, `Usage: fabctl definition <action> [flags]

Actions:
  pull      Fetch an item's definition into a local directory
  push      Upload the local directory as the item's new definition
  diff      Show local changes against the remote definition
  status    Show per-part sync state against the last pull

A manifest written at pull time tracks what was synced; pull/push remember
the directory per item so later calls can omit --dir.
`)
}

type definitionFlags struct {
	itemFlags
	dir    string
	format string
}

func (f *definitionFlags) register(fs *flag.FlagSet) {
	f.itemFlags.register(fs)
	fs.StringVar(&f.dir, "dir", "", "Local definition directory (default: recorded or derived)")
	fs.StringVar(&f.format, "format", "", "Definition format to request (e.g. ipynb)")
}

// resolveDir picks the local directory for an item: the explicit flag, the
// recorded path from a previous pull, or the derived default.
func (f *definitionFlags) resolveDir(ctx context.Context, a *app, item fabric.Item) (string, error) {
	if f.dir != "" {
		return f.dir, nil
	}
	if recorded, err := a.store.LocalPath(ctx, item.ID); err != nil {
		return "", err
	} else if recorded != "" {
		return recorded, nil
	}

	ws, err := a.client.GetWorkspace(ctx, item.WorkspaceID)
	if err != nil {
		return "", err
	}
	return a.syncer.ItemDir(ws.DisplayName, item), nil
}

// loadItem fetches the item so display names are available for pathing.
func (f *definitionFlags) loadItem(ctx context.Context, a *app) (fabric.Item, error) {
	item, err := a.client.GetItem(ctx, f.workspaceID, f.itemID)
	if err != nil {
		return fabric.Item{}, err
	}
	if f.itemType != "" {
		item.Type = f.itemType
	}
	return *item, nil
}

func runDefinitionPull(args []string) int {
	var f definitionFlags
	fs := flag.NewFlagSet("definition pull", flag.ContinueOnError)
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if f.workspaceID == "" || f.itemID == "" {
		fmt.Fprintln(os.Stderr, "Usage: fabctl definition pull --workspace <id> --id <id> [--type <t>] [--dir <dir>] [--format <f>]")
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, f.configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	release, err := a.guard.Begin("definition pull")
	if err != nil {
		return report(err)
	}
	defer release()

	item, err := f.loadItem(ctx, a)
	if err != nil {
		return report(err)
	}
	dir, err := f.resolveDir(ctx, a, item)
	if err != nil {
		return report(err)
	}

	def, err := a.dispatcher.GetDefinition(ctx, item, f.format)
	if err != nil {
		return report(err)
	}

	if err := a.syncer.Pull(ctx, dir, item, def); err != nil {
		return report(err)
	}
	if err := a.store.SetLocalPath(ctx, item.WorkspaceID, item.ID, dir); err != nil {
		return report(err)
	}

	fmt.Printf("Pulled %d parts into %s\n", len(def.Parts), dir)
	return 0
}

func runDefinitionPush(args []string) int {
	var f definitionFlags
	fs := flag.NewFlagSet("definition push", flag.ContinueOnError)
	f.register(fs)
	force := fs.Bool("force", false, "Push even when the directory has no local changes")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if f.workspaceID == "" || f.itemID == "" {
		fmt.Fprintln(os.Stderr, "Usage: fabctl definition push --workspace <id> --id <id> [--type <t>] [--dir <dir>] [--force]")
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, f.configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	release, err := a.guard.Begin("definition push")
	if err != nil {
		return report(err)
	}
	defer release()

	item, err := f.loadItem(ctx, a)
	if err != nil {
		return report(err)
	}
	dir, err := f.resolveDir(ctx, a, item)
	if err != nil {
		return report(err)
	}

	if !*force {
		dirty, err := a.syncer.Dirty(ctx, dir)
		if err != nil {
			return report(err)
		}
		if !dirty {
			fmt.Println("Nothing to push: no local changes since the last pull.")
			return 0
		}
	}

	def, err := a.syncer.BuildDefinition(ctx, dir)
	if err != nil {
		return report(err)
	}

	if err := a.dispatcher.UpdateDefinition(ctx, item, *def); err != nil {
		return report(err)
	}

	// Re-record the directory as in sync with the remote.
	if err := a.syncer.Pull(ctx, dir, item, def); err != nil {
		return report(err)
	}

	fmt.Printf("Pushed %d parts from %s\n", len(def.Parts), dir)
	return 0
}

func runDefinitionDiff(args []string) int {
	var f definitionFlags
	fs := flag.NewFlagSet("definition diff", flag.ContinueOnError)
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if f.workspaceID == "" || f.itemID == "" {
		fmt.Fprintln(os.Stderr, "Usage: fabctl definition diff --workspace <id> --id <id> [--type <t>] [--dir <dir>]")
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, f.configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	item, err := f.loadItem(ctx, a)
	if err != nil {
		return report(err)
	}
	dir, err := f.resolveDir(ctx, a, item)
	if err != nil {
		return report(err)
	}

	local, err := a.syncer.BuildDefinition(ctx, dir)
	if err != nil {
		return report(err)
	}
	remote, err := a.dispatcher.GetDefinition(ctx, item, f.format)
	if err != nil {
		return report(err)
	}

	out, err := sync.DiffDefinitions(local, remote)
	if err != nil {
		return report(err)
	}
	if out == "" {
		fmt.Println("No differences.")
		return 0
	}
	fmt.Print(out)
	return 0
}

func runDefinitionStatus(args []string) int {
	var f definitionFlags
	fs := flag.NewFlagSet("definition status", flag.ContinueOnError)
	f.register(fs)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if f.itemID == "" {
		fmt.Fprintln(os.Stderr, "Usage: fabctl definition status --id <id> [--dir <dir>]")
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, f.configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	dir := f.dir
	if dir == "" {
		if dir, err = a.store.LocalPath(ctx, f.itemID); err != nil {
			return report(err)
		}
		if dir == "" {
			fmt.Fprintln(os.Stderr, "No recorded directory for this item; pass --dir or pull first.")
			return 1
		}
	}

	statuses, err := a.syncer.Status(ctx, dir)
	if err != nil {
		return report(err)
	}

	clean := true
	for _, st := range statuses {
		if st.State == sync.PartClean {
			continue
		}
		clean = false
		fmt.Printf("%-10s %s\n", st.State, st.Path)
	}
	if clean {
		fmt.Println("Clean: no changes since the last pull.")
	}
	return 0
}
