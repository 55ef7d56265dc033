package cleaning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"msomcli/internal/dataset"
)

// TracerName identifies cleaning pipeline spans.
const TracerName = "msomcli.cleaning"

// Pipeline applies the ordered cleaning catalogue to one partition's
// tables. A Pipeline instance owns its tables for the duration of Run;
// separate partitions use separate instances and may run concurrently.
type Pipeline struct {
	rules  []Rule
	logger *slog.Logger
	tracer trace.Tracer
	runID  string
}

// New creates a pipeline with the default rule catalogue.
func New(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()
	return &Pipeline{
		rules:  Rules(),
		logger: logger.With("run_id", runID),
		tracer: otel.Tracer(TracerName),
		runID:  runID,
	}
}

// RunID returns the unique identifier of this pipeline run.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run parses timestamps once, then applies every rule strictly in
// catalogue order, mutating the tables in place through replace-on-write
// filters. Rules themselves never fail; the only error paths are caller
// cancellation between rules and a broken referential invariant, which
// indicates a rule-ordering bug rather than bad data.
func (p *Pipeline) Run(ctx context.Context, t *dataset.Tables) ([]RuleReport, error) {
	start := time.Now()
	p.logger.InfoContext(ctx, "starting data cleanup",
		"orders", len(t.Orders),
		"events", len(t.Events),
	)

	ctx, span := p.tracer.Start(ctx, "cleaning.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("cleaning.run_id", p.runID),
			attribute.Int("cleaning.orders_in", len(t.Orders)),
			attribute.Int("cleaning.events_in", len(t.Events)),
		),
	)
	defer span.End()

	t.ParseTimes()

	reports := make([]RuleReport, 0, len(p.rules))
	for _, rule := range p.rules {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cleanup cancelled")
			return reports, fmt.Errorf("cleanup cancelled before rule %s: %w", rule.ID, err)
		}
		reports = append(reports, p.applyRule(ctx, rule, t))
	}

	if err := t.CheckConsistent(); err != nil {
		span.SetStatus(codes.Error, "referential invariant broken")
		return reports, fmt.Errorf("post-cleanup consistency check: %w", err)
	}

	span.SetAttributes(
		attribute.Int("cleaning.orders_out", len(t.Orders)),
		attribute.Int("cleaning.events_out", len(t.Events)),
	)
	span.SetStatus(codes.Ok, "cleanup completed")

	p.logger.InfoContext(ctx, "finished data cleanup",
		"orders", len(t.Orders),
		"events", len(t.Events),
		"duration", time.Since(start),
	)
	return reports, nil
}

func (p *Pipeline) applyRule(ctx context.Context, rule Rule, t *dataset.Tables) RuleReport {
	report := RuleReport{
		RuleID:       rule.ID,
		RuleName:     rule.Name,
		OrdersBefore: len(t.Orders),
		EventsBefore: len(t.Events),
	}

	_, span := p.tracer.Start(ctx, fmt.Sprintf("cleaning.rule.%s", rule.ID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("rule.id", rule.ID),
			attribute.Bool("rule.row_level", rule.RowLevel()),
		),
	)
	defer span.End()

	start := time.Now()
	report.RemovedFraction = rule.Apply(t)
	report.Duration = time.Since(start)
	report.OrdersAfter = len(t.Orders)
	report.EventsAfter = len(t.Events)

	span.SetAttributes(
		attribute.Int("rule.orders_removed", report.OrdersBefore-report.OrdersAfter),
		attribute.Int("rule.events_removed", report.EventsBefore-report.EventsAfter),
	)

	p.logger.InfoContext(ctx, "applied cleaning rule",
		"rule", rule.ID,
		"orders_before", report.OrdersBefore,
		"orders_after", report.OrdersAfter,
		"events_before", report.EventsBefore,
		"events_after", report.EventsAfter,
		"removed_fraction", report.RemovedFraction,
		"duration", report.Duration,
	)
	return report
}
