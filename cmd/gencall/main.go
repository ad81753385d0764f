// Command gencall generates text and study content from the command line.
//
// Usage:
//
//	gencall [-config file] [-env file] <command> [flags]
//
// Commands: raw, batch, email, daily, grc, scenario, history.
// Results are written to stdout as JSON, logs to stderr.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dan-solli/gencall/pkg/config"
	"github.com/dan-solli/gencall/pkg/content"
	"github.com/dan-solli/gencall/pkg/gencall"
	"github.com/dan-solli/gencall/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "gencall: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	global := flag.NewFlagSet("gencall", flag.ContinueOnError)
	configPath := global.String("config", "", "path to a YAML/JSON/TOML config file")
	envFile := global.String("env", config.DefaultEnvFile, "path to a .env file")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		return errors.New("missing command: raw, batch, email, daily, grc, scenario or history")
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		return err
	}

	g, err := gencall.New(ctx, *cfg, logger.New(cfg.Log, os.Stderr))
	if err != nil {
		return err
	}
	defer g.Close()

	command, rest := global.Arg(0), global.Args()[1:]
	out, err := dispatch(ctx, g, command, rest)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func dispatch(ctx context.Context, g *gencall.Gencall, command string, args []string) (any, error) {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)

	switch command {
	case "raw":
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		result, err := g.Client().Generate(ctx, g.Request(strings.Join(fs.Args(), " ")))
		if err != nil {
			return nil, err
		}
		return map[string]any{"text": result.Text, "attempts": result.Attempts}, nil

	case "batch":
		n := fs.Int("n", 2, "number of completions")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		results, err := g.Client().GenerateBatch(ctx, g.Request(strings.Join(fs.Args(), " ")), *n, g.BatchOptions())
		if err != nil {
			return nil, err
		}
		texts := make([]string, len(results))
		for i, r := range results {
			texts[i] = r.Text
		}
		return texts, nil

	case "email":
		subject := fs.String("subject", "", "email subject")
		prompt := fs.String("prompt", "", "full prompt, overrides the subject template")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		text, err := g.Content().Email(ctx, *subject, *prompt)
		if err != nil {
			return nil, err
		}
		return map[string]string{"email": text}, nil

	case "daily":
		subject := fs.String("subject", "", "topic of the series")
		frequency := fs.Int("frequency", 1, "emails to generate (1-4)")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return g.Content().DailyEmails(ctx, *subject, *frequency)

	case "grc":
		category := fs.String("category", "Random", "one of: "+strings.Join(content.GRCCategories, ", "))
		difficulty := fs.String("difficulty", "Medium", "Easy, Medium or Hard")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return g.Content().GRCQuestion(ctx, *category, *difficulty)

	case "scenario":
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		scenario := strings.Join(fs.Args(), " ")
		if scenario == "" || scenario == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read scenario: %w", err)
			}
			scenario = string(data)
		}
		return g.Content().ScenarioQuestions(ctx, scenario)

	case "history":
		limit := fs.Int("limit", 20, "number of generations to show")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if g.History() == nil {
			return nil, errors.New("history needs trace.db_path (GENCALL_TRACE_DB_PATH)")
		}
		return g.History().Recent(ctx, *limit)

	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
}
