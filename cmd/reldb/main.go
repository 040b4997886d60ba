// Command reldb is the local, non-networked REPL binary described in §6:
// it opens (or creates) a data root directory, builds an engine and
// executor over it, and runs a read-execute-print loop terminated by ';'.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ovidtal/reldb/internal/bufferpool"
	"github.com/ovidtal/reldb/internal/config"
	"github.com/ovidtal/reldb/internal/engine"
	"github.com/ovidtal/reldb/internal/sql/executor"
)

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".reldb_history"
	}
	return filepath.Join(home, ".reldb_history")
}

func main() {
	var (
		configPath = flag.String("config", "", "optional YAML config path")
		dataRoot   = flag.String("data-dir", "", "data root directory (overrides config)")
		histPath   = flag.String("history", defaultHistoryPath(), "history file path")
		oneShotSQL = flag.String("c", "", "execute one SQL statement and exit (must end with ';')")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *dataRoot != "" {
		cfg.DataRoot = *dataRoot
	}

	level := slog.LevelInfo
	if cfg.Log.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := os.MkdirAll(cfg.DataRoot, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "data-dir: %v\n", err)
		os.Exit(1)
	}

	poolCapacity := cfg.Index.PageCacheCapacity
	if poolCapacity <= 0 {
		poolCapacity = bufferpool.DefaultCapacity
	}

	eng, err := engine.Open(cfg.DataRoot, poolCapacity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = eng.Close() }()

	ex := executor.New(eng)

	if strings.TrimSpace(*oneShotSQL) != "" {
		res, err := ex.ExecSQL(*oneShotSQL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		printResult(res)
		return
	}

	h := NewHistory(*histPath)
	_ = h.Load(2000)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "reldb> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	for _, line := range h.lines {
		_ = rl.SaveHistory(line)
	}

	fmt.Printf("reldb data root: %s\n", cfg.DataRoot)
	fmt.Println("type \\help for help")

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if buf.Len() > 0 {
				buf.Reset()
				rl.SetPrompt("reldb> ")
				continue
			}
			fmt.Println("^C")
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isMetaCommand(line) {
			switch line {
			case "\\q", "quit", "exit":
				return
			case "\\help":
				fmt.Println(`meta commands:
  \q | quit | exit       quit
  \history               print history
  \help                  show this message

sql:
  end statement with ';'
  multiline is supported, the prompt changes to ...> until ';' is seen`)
			case "\\history":
				h.Print(50)
			default:
				fmt.Printf("unknown command: %s\n", line)
			}
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(line)

		if !statementComplete(buf.String()) {
			rl.SetPrompt("...> ")
			continue
		}

		stmt := strings.TrimSpace(buf.String())
		buf.Reset()
		rl.SetPrompt("reldb> ")

		_ = h.Append(stmt)
		_ = rl.SaveHistory(compactOneLine(stmt))

		res, err := ex.ExecSQL(stmt)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		printResult(res)
	}
}

func isMetaCommand(line string) bool {
	return strings.HasPrefix(line, "\\") || line == "quit" || line == "exit"
}

// statementComplete checks for a terminating ';' outside single quotes.
func statementComplete(buf string) bool {
	inQuote := false
	for _, r := range buf {
		if r == '\'' {
			inQuote = !inQuote
			continue
		}
		if r == ';' && !inQuote {
			return true
		}
	}
	return false
}

func printResult(res *executor.Result) {
	if len(res.Columns) == 0 {
		fmt.Printf("OK (%d affected)\n", res.AffectedRows)
		return
	}

	cols := res.Columns
	rows := res.Rows

	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(c)
	}
	cellText := func(row []any, i int) string {
		if i < len(row) && row[i] != nil {
			return fmt.Sprintf("%v", row[i])
		}
		return "NULL"
	}
	for _, row := range rows {
		for i := range cols {
			if s := cellText(row, i); len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
	}

	printRow := func(values []string) {
		for i := range cols {
			if i > 0 {
				fmt.Print(" | ")
			}
			fmt.Print(padRight(values[i], widths[i]))
		}
		fmt.Println()
	}

	printRow(cols)
	for i := range cols {
		if i > 0 {
			fmt.Print("-+-")
		}
		fmt.Print(strings.Repeat("-", widths[i]))
	}
	fmt.Println()

	for _, row := range rows {
		out := make([]string, len(cols))
		for i := range cols {
			out[i] = cellText(row, i)
		}
		printRow(out)
	}
	fmt.Printf("(%d rows)\n", res.AffectedRows)
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
