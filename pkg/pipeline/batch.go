package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/getmockd/specimport/pkg/session"
)

// Outcome is the result of creating one session.
type Outcome struct {
	Name string
	Err  error
}

// Report summarizes a hand-off.
type Report struct {
	Created int
	Failed  int

	// Skipped counts requests whose spec could not be built.
	Skipped int

	// Outcomes are in plan order, one per attempted item.
	Outcomes []Outcome

	// Aborted is set when ctx ended before every batch was issued.
	Aborted bool
}

// CreateSessions hands every prepared item of plan to creator, batchSize at a
// time. Items inside a batch run concurrently and fail independently; batches
// start at most once per batch pause. When ctx ends no further batch is
// issued and ctx's error is returned with the partial report.
func (p *Pipeline) CreateSessions(ctx context.Context, creator session.Creator, plan *Plan) (Report, error) {
	report := Report{}
	if plan == nil {
		return report, nil
	}
	report.Skipped = len(plan.Skipped)

	limit := rate.Inf
	if p.batchPause > 0 {
		limit = rate.Every(p.batchPause)
	}
	limiter := rate.NewLimiter(limit, 1)

	log := p.logger.With("collection", plan.Collection)
	for start := 0; start < len(plan.Items); start += p.batchSize {
		if err := ctx.Err(); err != nil {
			report.Aborted = true
			return report, err
		}
		if err := limiter.Wait(ctx); err != nil {
			report.Aborted = true
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			return report, err
		}

		end := min(start+p.batchSize, len(plan.Items))
		outcomes := p.runBatch(ctx, creator, plan.Collection, plan.Items[start:end])

		created := 0
		for _, o := range outcomes {
			if o.Err != nil {
				report.Failed++
				log.Warn("session creation failed", "name", o.Name, "error", o.Err)
				continue
			}
			created++
		}
		report.Created += created
		report.Outcomes = append(report.Outcomes, outcomes...)
		log.Info("batch done", "from", start, "size", len(outcomes), "created", created)
	}
	return report, nil
}

// runBatch creates items concurrently. Errors are collected per item, so one
// failure never cancels its siblings.
func (p *Pipeline) runBatch(ctx context.Context, creator session.Creator, collection string, items []Prepared) []Outcome {
	outcomes := make([]Outcome, len(items))

	var g errgroup.Group
	g.SetLimit(p.batchSize)
	for i, item := range items {
		g.Go(func() error {
			err := creator.Create(ctx, session.Session{
				Collection: collection,
				Name:       item.Name,
				Spec:       item.Spec,
				Original:   item.Original,
			})
			outcomes[i] = Outcome{Name: item.Name, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
