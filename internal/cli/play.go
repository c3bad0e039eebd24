package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"math-quiz-service/internal/app"
	"math-quiz-service/internal/config"
	"math-quiz-service/internal/domain"
	"math-quiz-service/internal/infra/sqlite"
	"math-quiz-service/internal/problemgen"
	"github.com/spf13/cobra"
)

const localPlayerID = "local"

// NewPlayCmd runs a single game in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		operation string
		user      string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play one timed round in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := domain.ParseOperation(operation)
			if err != nil {
				return fmt.Errorf("%w: %q", err, operation)
			}
			return runPlay(cmd.Context(), *configPath, op, user, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&operation, "operation", "o", string(domain.Addition), "addition, subtraction, multiplication or division")
	cmd.Flags().StringVarP(&user, "user", "u", "", "name to put on the leaderboard (empty plays anonymously)")
	return cmd
}

func runPlay(ctx context.Context, configPath string, op domain.Operation, user string, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	path := cfg.Game.ProgressPath
	if path == "" {
		if path, err = sqlite.DefaultPath(); err != nil {
			return err
		}
	}
	progress, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer progress.Close()

	b, err := connectBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	scores := newScoreStore(b)

	player := domain.Player{ID: user, DisplayName: user}
	progressID := user
	if progressID == "" {
		progressID = localPlayerID
	}
	engine := app.NewEngine(
		problemgen.NewGenerator(),
		app.PlayerProgress(progress, progressID),
		app.NewLeaderboardReporter(scores, nil, app.StaticIdentity(player)),
		app.WithFeedbackWindow(0),
		app.WithRunner(func(f func()) { f() }),
	)

	state, err := engine.Start(ctx, op)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s at level %d. %ds on the clock, type q to stop.\n", op, state.Level, state.TimeRemaining)
	prompt(out, state)

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(config.TTLDuration(cfg.Game.TickInterval, time.Second))
	defer ticker.Stop()

	for !state.IsGameOver() {
		select {
		case <-ctx.Done():
			state = engine.End(ctx)
		case line, ok := <-lines:
			line = strings.TrimSpace(line)
			if !ok || line == "q" {
				state = engine.End(ctx)
				continue
			}
			if line == "" {
				continue
			}
			correct, err := engine.SubmitAnswer(ctx, line)
			if err != nil {
				state = engine.Snapshot()
				continue
			}
			state = engine.Snapshot()
			feedback(out, correct, state)
			prompt(out, state)
		case <-ticker.C:
			var changed bool
			state, changed = engine.Tick(ctx)
			if changed && !state.IsGameOver() && (state.TimeRemaining == 10 || state.TimeRemaining <= 5) {
				fmt.Fprintf(out, "\n%ds left\n", state.TimeRemaining)
			}
		}
	}

	fmt.Fprintf(out, "\nGame over! Final score %d (level %d).\n", state.Score, state.Level)
	top, err := scores.TopScores(ctx, op, 5)
	if err == nil && len(top) > 0 {
		fmt.Fprintf(out, "Top %s scores:\n", op)
		for i, e := range top {
			fmt.Fprintf(out, "%2d. %-16s %d\n", i+1, e.DisplayName, e.Score)
		}
	}
	return nil
}

func prompt(out io.Writer, s domain.GameState) {
	fmt.Fprintf(out, "[%2ds | %d pts] %d %s %d = ", s.TimeRemaining, s.Score, s.Problem.Operand1, s.Operation.Symbol(), s.Problem.Operand2)
}

func feedback(out io.Writer, correct bool, s domain.GameState) {
	change := 0
	if s.LastScoreChange != nil {
		change = *s.LastScoreChange
	}
	switch {
	case correct && s.LeveledUp:
		fmt.Fprintf(out, "Correct! %+d points, +%ds. Level up: %d\n", change, app.TimeBonus, s.Level)
	case correct:
		fmt.Fprintf(out, "Correct! %+d points, +%ds\n", change, app.TimeBonus)
	default:
		fmt.Fprintf(out, "Wrong! %+d points\n", change)
	}
}
