// Command codeindexctl is a direct CLI wrapper around the same tool
// handlers codeindexd exposes over MCP, for scripting and manual
// inspection without a client. It opens its own session against the
// given root, runs one tool call, prints a colorized summary, and exits.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeindexd/codeindexd/internal/registry"
	"github.com/codeindexd/codeindexd/internal/tools"
	"github.com/codeindexd/codeindexd/internal/walker"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("codeindexctl", flag.ContinueOnError)
	raw := fs.Bool("raw", false, "print full JSON output instead of a human-friendly summary")
	root := fs.String("root", ".", "project root to index")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: codeindexctl [--root dir] [--raw] <tool_name> [json_args]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	positional := fs.Args()

	reg := registry.New(registry.Config{WalkerOpts: walker.Options{}})
	srv := tools.NewServer(reg)

	if len(positional) == 0 || positional[0] == "help" {
		fmt.Fprintf(os.Stderr, "Available tools:\n  %s\n", strings.Join(srv.ToolNames(), "\n  "))
		return 0
	}

	toolName := positional[0]

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("indexing "+*root),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWriter(os.Stderr),
	)
	session, err := reg.CreateSession(context.Background(), *root)
	bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		color.Red("error: %v", err)
		return 1
	}
	defer reg.DestroySession(session.ID())

	var extraArgs map[string]any
	if len(positional) > 1 {
		if err := json.Unmarshal([]byte(positional[1]), &extraArgs); err != nil {
			color.Red("error: invalid json args: %v", err)
			return 1
		}
	} else {
		extraArgs = map[string]any{}
	}
	extraArgs["session_id"] = session.ID()
	argsJSON, err := json.Marshal(extraArgs)
	if err != nil {
		color.Red("error: %v", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := srv.CallTool(ctx, toolName, argsJSON)
	if err != nil {
		color.Red("error: %v", err)
		return 1
	}

	text := firstText(result)
	if result.IsError {
		color.Red("error: %s", text)
		return 1
	}

	if *raw {
		printRawJSON(text)
		return 0
	}
	printSummary(toolName, text)
	return 0
}

func firstText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func printRawJSON(text string) {
	var buf json.RawMessage
	if json.Unmarshal([]byte(text), &buf) == nil {
		if pretty, err := json.MarshalIndent(buf, "", "  "); err == nil {
			fmt.Println(string(pretty))
			return
		}
	}
	fmt.Println(text)
}

// printSummary prints a short, colorized summary for the operations this
// CLI is actually used for day to day; anything else falls back to raw
// pretty-printed JSON.
func printSummary(toolName, text string) {
	var arr []any
	if err := json.Unmarshal([]byte(text), &arr); err == nil {
		printArraySummary(toolName, arr)
		return
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		fmt.Println(text)
		return
	}

	switch toolName {
	case "peek", "get_implementation":
		content, _ := data["content"].(string)
		fmt.Println(content)
	case "grep":
		printGrepSummary(data)
	case "create_session":
		root, _ := data["root"].(string)
		sid, _ := data["session_id"].(string)
		color.Green("session %s bound to %s", sid, root)
	default:
		printRawJSON(text)
	}
}

func printArraySummary(toolName string, arr []any) {
	switch toolName {
	case "list_symbols", "search_symbols", "find_tests":
		fmt.Printf("%d symbol(s)\n", len(arr))
		for _, item := range arr {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			kind, _ := m["kind"].(string)
			name, _ := m["name"].(string)
			file, _ := m["file"].(string)
			start := jsonInt(m["start"])
			color.Cyan("  [%s] %s", kind, name)
			fmt.Printf("    %s:%d\n", file, start+1)
		}
	case "find_callers":
		fmt.Printf("%d caller(s)\n", len(arr))
		for _, item := range arr {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			file, _ := m["file"].(string)
			line := jsonInt(m["line"])
			text, _ := m["text"].(string)
			fmt.Printf("  %s:%d  %s\n", file, line, strings.TrimSpace(text))
		}
	default:
		printRawJSON(mustJSON(arr))
	}
}

func printGrepSummary(data map[string]any) {
	matches, _ := data["matches"].([]any)
	truncated, _ := data["truncated"].(bool)
	fmt.Printf("%d match(es)", len(matches))
	if truncated {
		color.Yellow(" (truncated)")
	} else {
		fmt.Println()
	}
	for _, item := range matches {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		file, _ := m["file"].(string)
		line := jsonInt(m["line"])
		text, _ := m["text"].(string)
		fmt.Printf("  %s:%d  %s\n", file, line, strings.TrimSpace(text))
	}
}

func jsonInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
