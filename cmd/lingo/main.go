package main

import (
	"fmt"
	"os"
	"strings"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "config":
		err = cmdConfig()
	case "set-key":
		err = cmdSetKey(os.Args[2:])
	case "lessons":
		err = cmdLessons(os.Args[2:])
	case "say":
		err = cmdSay(os.Args[2:])
	case "leaderboard":
		err = cmdLeaderboard(os.Args[2:])
	case "progress":
		err = cmdProgress(os.Args[2:])
	case "seed":
		err = cmdSeed()
	case "dashboard":
		err = cmdDashboard(os.Args[2:])
	case "activity":
		err = cmdActivity()
	case "ingest":
		err = cmdIngest()
	case "mcp":
		err = cmdMCP(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("lingo %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Lingo - English lessons for Turkish speakers

Usage:
  lingo <command> [arguments]

Setup Commands:
  init                  Create ~/.lingo and a default configuration
  config                Show current configuration
  set-key <api-key>     Store the Gemini API key in secrets.yaml

Lesson Commands:
  lessons [difficulty]  List available lessons
  say <text> [-o file]  Synthesize pronunciation to a WAV file

Progress Commands:
  leaderboard [limit]   Show learners ranked by points
  progress [learner]    Show a learner's completed lessons
  seed                  Load the demo class
  dashboard [learner]   AI analysis of weak topics and recommendations
  activity              Show recorded interaction counts

Integration Commands:
  mcp [--http addr]     Start MCP server (stdio by default)
  ingest                Store interactions consumed from the message queue

Other:
  help                  Show this help message
  version               Show version information

Examples:
  lingo init
  lingo lessons Beginner
  lingo say "Good morning" -o morning.wav
  lingo mcp`)
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
