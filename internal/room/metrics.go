package room

import (
	"context"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/game"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	moverHuman    = "human"
	moverComputer = "computer"
)

var meter = otel.Meter("room")

var (
	movesCounter    metric.Int64Counter
	staleCounter    metric.Int64Counter
	finishedCounter metric.Int64Counter
)

func init() {
	var err error
	if movesCounter, err = meter.Int64Counter("tictactoe.moves",
		metric.WithDescription("Moves applied, by who made them")); err != nil {
		otel.Handle(err)
	}
	if staleCounter, err = meter.Int64Counter("tictactoe.opponent.stale",
		metric.WithDescription("Scheduled computer moves discarded because the game changed")); err != nil {
		otel.Handle(err)
	}
	if finishedCounter, err = meter.Int64Counter("tictactoe.games.finished",
		metric.WithDescription("Games finished, by result")); err != nil {
		otel.Handle(err)
	}
}

// recordMove counts an applied move and, when it ended the game, the result.
func recordMove(ctx context.Context, mover string, out game.Outcome) {
	movesCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("player", mover)))
	if out.IsTerminal() {
		recordFinished(ctx, out)
	}
}

func recordStale(ctx context.Context) {
	staleCounter.Add(ctx, 1)
}

func recordFinished(ctx context.Context, out game.Outcome) {
	result := string(out.Status)
	if out.Status == game.StatusWon {
		result = "won_" + string(out.Winner)
	}
	finishedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
