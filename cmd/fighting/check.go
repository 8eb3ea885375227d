package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/buildwithgo/fighting"
	"github.com/buildwithgo/fighting/directives"
	"github.com/buildwithgo/fighting/docstring"
	"github.com/buildwithgo/fighting/routers"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	checkMark = "✓"
	crossMark = "✗"
)

var checkSource string

var checkCmd = &cobra.Command{
	Use:   "check [APP_DOC [ACTION_DOC...]]",
	Short: "Report schema errors in documentation",
	Long: `Parse documentation blocks the way the server does at startup.

APP_DOC holds the application description and its @shared definitions.
Each ACTION_DOC is registered as an action named after the file. With
--source, the doc comments of a Go package are checked instead: the
package comment is the application doc, and every function whose comment
has $directives is an action.

Examples:
  fighting check app.md greet.md
  fighting check --source ./examples/hello`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkSource, "source", "", "Go package directory to read doc comments from")
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	appDoc := ""
	actions := map[string]string{}
	switch {
	case checkSource != "":
		src, err := docstring.FromSource(checkSource)
		if err != nil {
			return err
		}
		appDoc = src.Package
		for name, doc := range src.Funcs {
			if _, entries, err := docstring.ParseDirectives(doc); err != nil || len(entries) > 0 {
				actions[name] = doc
			}
		}
	case len(args) > 0:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		appDoc = string(data)
		for _, path := range args[1:] {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			actions[strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))] = string(data)
		}
	default:
		return fmt.Errorf("nothing to check: give documentation files or --source")
	}

	app := fighting.NewApp(fighting.WithRouter(routers.NewTrieRouter()))
	api, err := fighting.New(app, appDoc, fighting.WithDirectives(map[string]fighting.Directive{
		"auth":      directives.Auth("check"),
		"ratelimit": directives.RateLimit(),
		"log":       directives.Log(zerolog.Nop()),
	}))
	if err != nil {
		fmt.Fprintf(out, "  %s application doc\n", crossMark)
		return fmt.Errorf("application doc: %w", err)
	}
	fmt.Fprintf(out, "  %s application doc (%d shared)\n", checkMark, len(api.Shared()))

	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := 0
	for _, name := range names {
		action := strings.ReplaceAll(name, ".", "_")
		err := api.Res("check", action, actions[name], func(*fighting.Context, map[string]any) (any, error) {
			return nil, nil
		})
		if err != nil {
			failed++
			fmt.Fprintf(out, "  %s %s: %v\n", crossMark, name, err)
			continue
		}
		fmt.Fprintf(out, "  %s %s\n", checkMark, name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d actions have errors", failed, len(names))
	}
	return nil
}
