package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattjoyce/fabctl/internal/tree"
	"github.com/mattjoyce/fabctl/internal/tui/browse"
)

func runTreeNoun(args []string) int {
	if len(args) < 1 {
		printTreeNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printTreeNounHelp(os.Stdout)
		return 0
	}

	switch args[0] {
	case "show":
		return runTreeShow(args[1:])
	case "browse":
		return runTreeBrowse(args[1:])
	case "help":
		printTreeNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown tree action: %s\n", args[0])
		return 1
	}
}

func printTreeNounHelp(w *os.File) {
	fmt.Fprint(w, `Usage: fabctl tree <action> [flags]

Actions:
  show      Print the workspace tree to stdout
  browse    Interactive tree browser (TUI)

The grouping (folder hierarchy vs flat type list) follows the persisted
display style; change it with 'fabctl settings style'.
`)
}

func runTreeShow(args []string) int {
	fs := flag.NewFlagSet("tree show", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration")
	depth := fs.Int("depth", 3, "Maximum depth to expand")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	ctx := context.Background()
	a, err := newApp(ctx, *configPath)
	if err != nil {
		return report(err)
	}
	defer a.Close()

	session := a.treeSession()
	for _, root := range session.Roots() {
		if err := printSubtree(ctx, session, root, 0, *depth); err != nil {
			return report(err)
		}
	}
	return 0
}

func printSubtree(ctx context.Context, session *tree.Session, node *tree.Node, depth, maxDepth int) error {
	fmt.Printf("%s%s\n", strings.Repeat("  ", depth), node.Label)
	if node.Leaf || depth >= maxDepth {
		return nil
	}

	children, err := session.GetChildren(ctx, node)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := printSubtree(ctx, session, child, depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}

func runTreeBrowse(args []string) int {
	fs := flag.NewFlagSet("tree browse", flag.ContinueOnError)
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

	model := browse.New(a.treeSession(), a.store, a.dispatcher, a.hub)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return report(err)
	}
	return 0
}
