package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func runCapacityNoun(args []string) int {
	if len(args) < 1 {
		printCapacityNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printCapacityNounHelp(os.Stdout)
		return 0
	}

	switch args[0] {
	case "list":
		return runCapacityList(args[1:])
	case "help":
		printCapacityNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown capacity action: %s\n", args[0])
		return 1
	}
}

func printCapacityNounHelp(w *os.File) {
	fmt.Fprint(w, `Usage: fabctl capacity <action> [flags]

Actions:
  list      List capacities visible to the caller
`)
}

func runCapacityList(args []string) int {
	fs := flag.NewFlagSet("capacity list", flag.ContinueOnError)
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

	capacities, err := a.client.ListCapacities(ctx)
	if err != nil {
		return report(err)
	}

	for _, c := range capacities {
		fmt.Printf("%-36s  %-8s  %-10s  %s\n", c.ID, c.SKU, c.State, c.DisplayName)
	}
	return 0
}
