package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/claude/fitcoach/internal/api"
	"github.com/claude/fitcoach/internal/config"
	"github.com/claude/fitcoach/internal/dashboard"
	"github.com/claude/fitcoach/internal/logging"
	"github.com/claude/fitcoach/internal/mcp"
	"github.com/claude/fitcoach/internal/session"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const usage = `commands:
  load [force]          load today's workout
  start                 start the workout clock
  pause                 pause or resume the workout clock
  set REPS [WEIGHT]     log a completed set
  rounds N              record rounds completed on the current exercise
  note TEXT             set notes on the current exercise
  done                  complete the current exercise
  skip                  skip the current exercise
  finish                retry completing the day
  regen                 regenerate the plan and reload today
  rest [pause|reset|cancel]
  status                show the session
  dash [RANGE]          show the dashboard (1w, 1m, 3m, 6m, 1y)
  help
  quit`

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (embedded mode)")
	remote := flag.String("remote", "", "control API URL of a running fitcoach daemon")
	apiKey := flag.String("api-key", "", "control API key (remote mode)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fitcoach-cli", Version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ds mcp.Workout
	if *remote != "" {
		ds = mcp.NewHTTPClient(strings.TrimRight(*remote, "/"), *apiKey)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		// Console stays free for the prompt; logs go to the configured file only.
		log, closer := logging.New(cfg.Log, io.Discard)
		defer func() { _ = closer.Close() }()

		loc, err := cfg.Session.Location()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		client := api.NewClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout(), http.DefaultTransport)
		ctrl := session.New(client, log, session.Options{
			Location:    loc,
			DefaultRest: cfg.Session.DefaultRestSeconds,
			OnEvent:     func(e session.Event) { fmt.Fprintln(os.Stdout, formatEvent(e)) },
		})
		defer ctrl.Close()
		ds = mcp.NewLocal(ctrl, dashboard.New(client, log, loc))
	}

	r := &repl{ds: ds, out: os.Stdout}
	if err := r.run(ctx, os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type repl struct {
	ds  mcp.Workout
	out io.Writer
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(r.out, "> ")
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(sc.Text())
		if line == "quit" || line == "exit" {
			return nil
		}
		if line != "" {
			if err := r.exec(ctx, line); err != nil {
				fmt.Fprintf(r.out, "error: %s\n", describe(err))
			}
		}
		fmt.Fprint(r.out, "> ")
	}
	return sc.Err()
}

func (r *repl) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		fmt.Fprintln(r.out, usage)
	case "load":
		snap, err := r.ds.Load(ctx, len(args) > 0 && args[0] == "force")
		if err != nil {
			return err
		}
		r.printSnapshot(snap)
	case "start":
		snap, err := r.ds.Start(ctx)
		if err != nil {
			return err
		}
		r.printSnapshot(snap)
	case "pause":
		paused, err := r.ds.TogglePause(ctx)
		if err != nil {
			return err
		}
		if paused {
			fmt.Fprintln(r.out, "paused")
		} else {
			fmt.Fprintln(r.out, "resumed")
		}
	case "set":
		if len(args) < 1 {
			return fmt.Errorf("usage: set REPS [WEIGHT]")
		}
		reps, err := strconv.Atoi(args[0])
		if err != nil || reps < 1 {
			return fmt.Errorf("reps must be a positive integer")
		}
		var weight float64
		if len(args) > 1 {
			weight, err = strconv.ParseFloat(args[1], 64)
			if err != nil || weight < 0 {
				return fmt.Errorf("weight must be a non-negative number")
			}
		}
		n, err := r.ds.LogSet(ctx, reps, weight)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "%d set(s) logged\n", n)
	case "rounds":
		if len(args) != 1 {
			return fmt.Errorf("usage: rounds N")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("rounds must be a non-negative integer")
		}
		if err := r.ds.UpdateProgress(ctx, session.ProgressUpdate{Rounds: &n}); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "%d round(s)\n", n)
	case "note":
		notes := strings.TrimSpace(strings.TrimPrefix(line, cmd))
		if err := r.ds.UpdateProgress(ctx, session.ProgressUpdate{Notes: &notes}); err != nil {
			return err
		}
		fmt.Fprintln(r.out, "notes updated")
	case "done":
		snap, err := r.ds.CompleteExercise(ctx)
		if err != nil {
			return err
		}
		r.printSnapshot(snap)
	case "skip":
		snap, err := r.ds.SkipExercise(ctx)
		if err != nil {
			return err
		}
		r.printSnapshot(snap)
	case "finish":
		snap, err := r.ds.FinishDay(ctx)
		if err != nil {
			return err
		}
		r.printSnapshot(snap)
	case "regen":
		snap, err := r.ds.Regenerate(ctx)
		if snap.SessionID != "" {
			r.printSnapshot(snap)
		}
		return err
	case "rest":
		action := mcp.RestStart
		if len(args) > 0 {
			action = args[0]
		}
		rest, err := r.ds.Rest(ctx, action)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "rest %s %d/%ds\n", rest.State, rest.Remaining, rest.Total)
	case "status":
		snap, err := r.ds.Snapshot(ctx)
		if err != nil {
			return err
		}
		r.printSnapshot(snap)
	case "dash":
		q := dashboard.Query{}
		if len(args) > 0 {
			q.Range = args[0]
		}
		ov, err := r.ds.Dashboard(ctx, q)
		if ov == nil {
			return err
		}
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(ov)
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

func (r *repl) printSnapshot(s session.Snapshot) {
	if !s.Loaded {
		if s.Error != "" {
			fmt.Fprintf(r.out, "no workout: %s\n", s.Error)
		} else {
			fmt.Fprintln(r.out, "no workout loaded")
		}
		return
	}
	fmt.Fprintf(r.out, "%s  %s  %d/%d  elapsed %s\n", s.Date, s.DayState, min(s.Cursor+1, s.Total), s.Total, clock(s.WorkoutElapsed))
	for _, ex := range s.Exercises {
		mark := " "
		if s.Current != nil && ex.Index == s.Current.Index {
			mark = ">"
		}
		fmt.Fprintf(r.out, "%s %-10s %s [%s]", mark, ex.Status, ex.Name, ex.BlockName)
		if n := len(ex.Progress.LoggedSets()); n > 0 {
			fmt.Fprintf(r.out, " %d set(s)", n)
		}
		fmt.Fprintln(r.out)
	}
}

func formatEvent(e session.Event) string {
	switch e.Type {
	case session.EventExerciseCompleted:
		return fmt.Sprintf("* completed %s", e.Name)
	case session.EventExerciseSkipped:
		return fmt.Sprintf("* skipped %s", e.Name)
	case session.EventDayCompleted:
		return "* workout complete"
	case session.EventRestComplete:
		return "* rest over"
	default:
		return fmt.Sprintf("* %s", e.Type)
	}
}

// describe adds a retry hint to errors the backend may recover from.
func describe(err error) string {
	var se *session.Error
	var re *mcp.RemoteError
	if (errors.As(err, &se) && se.Retryable()) || (errors.As(err, &re) && re.Retryable) {
		return err.Error() + " (try again)"
	}
	return err.Error()
}

func clock(secs int) string {
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
