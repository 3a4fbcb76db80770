package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mdherunjalal99/ShopeeTracker/internal/discount"
	"github.com/mdherunjalal99/ShopeeTracker/internal/model"
	"github.com/mdherunjalal99/ShopeeTracker/internal/shopee"
	"github.com/mdherunjalal99/ShopeeTracker/internal/workbook"
)

// DefaultWorkers is the worker-pool size when the caller does not ask
// for one.
const DefaultWorkers = 4

// PriceSource fetches one product's current price. Satisfied by
// *shopee.Fetcher; tests substitute fakes.
type PriceSource interface {
	FetchPrice(ctx context.Context, ref model.ProductRef, var1, var2 string) (int64, error)
}

// RunRecorder persists run history. Satisfied by *store.Store; a nil
// recorder disables history.
type RunRecorder interface {
	CreateRun(jobID, workbookPath string, startedAt time.Time) (int64, error)
	FinishRun(id int64, status string, total, processed int, errMsg string, finishedAt time.Time) error
}

// Engine orchestrates one run: load the workbook, fetch prices with a
// bounded worker pool, merge results, recompute discounts and persist
// the output. The engine goroutine is the sole writer of the workbook;
// workers only touch the job status.
type Engine struct {
	fetcher  PriceSource
	registry *Registry
	recorder RunRecorder
	logger   *slog.Logger

	resolve func(string) (model.ProductRef, error)
	now     func() time.Time
}

// NewEngine creates an engine. recorder may be nil.
func NewEngine(fetcher PriceSource, registry *Registry, recorder RunRecorder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		fetcher:  fetcher,
		registry: registry,
		recorder: recorder,
		logger:   logger,
		resolve:  shopee.ResolveLink,
		now:      time.Now,
	}
}

// Submit registers a new job and runs it in the background. The
// returned status can be polled until it reaches a terminal state.
func (e *Engine) Submit(path string, workers int) *Status {
	status := NewStatus(uuid.New().String())
	e.registry.Add(status)
	go func() {
		_ = e.Run(context.Background(), status, path, workers)
	}()
	return status
}

// Run executes one job synchronously, persisting the updated workbook
// back to path. Row-level failures are absorbed into the data; only
// workbook parse and persistence failures make the job fail.
func (e *Engine) Run(ctx context.Context, status *Status, path string, workers int) error {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var runID int64
	if e.recorder != nil {
		id, err := e.recorder.CreateRun(status.ID(), path, time.Now())
		if err != nil {
			e.logger.Warn("run history unavailable", "error", err)
		} else {
			runID = id
		}
	}

	wb, err := workbook.Load(path)
	if err != nil {
		e.logger.Error("workbook rejected", "job", status.ID(), "path", path, "error", err)
		status.Fail(err.Error())
		e.finishRun(runID, status)
		return err
	}
	defer wb.Close()

	rows := wb.Rows()
	status.Start(rows)
	e.logger.Info("job started", "job", status.ID(), "rows", len(rows), "workers", workers)

	today := e.now()
	// Column bookkeeping happens before any worker starts; the fetch
	// phase never touches the workbook.
	if _, err := wb.EnsureDateColumn(today); err != nil {
		status.Fail(err.Error())
		e.finishRun(runID, status)
		return err
	}

	points := e.fetchAll(ctx, status, rows, workers)

	for i, row := range rows {
		if err := wb.RecordPrice(row, today, points[i]); err != nil {
			status.Fail(err.Error())
			e.finishRun(runID, status)
			return err
		}
	}

	for _, row := range rows {
		if err := wb.SetDiscount(row, e.discountFor(row, today)); err != nil {
			status.Fail(err.Error())
			e.finishRun(runID, status)
			return err
		}
	}

	if err := wb.Save(path); err != nil {
		e.logger.Error("workbook save failed", "job", status.ID(), "path", path, "error", err)
		status.Fail(err.Error())
		e.finishRun(runID, status)
		return err
	}

	status.Complete(path)
	e.finishRun(runID, status)
	e.logger.Info("job completed", "job", status.ID(), "path", path)
	return nil
}

// fetchAll runs the bounded worker pool over all rows and returns one
// observation per row, indexed like rows. Tasks are independent and
// may complete in any order; each completion increments progress
// exactly once.
func (e *Engine) fetchAll(ctx context.Context, status *Status, rows []*model.ProductRow, workers int) []model.PricePoint {
	type task struct {
		idx int
		row *model.ProductRow
	}

	points := make([]model.PricePoint, len(rows))
	var pointsMu sync.Mutex

	tasks := make(chan task, len(rows))
	for i, row := range rows {
		tasks <- task{idx: i, row: row}
	}
	close(tasks)

	if workers > len(rows) && len(rows) > 0 {
		workers = len(rows)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				point := e.fetchRow(ctx, t.row)

				pointsMu.Lock()
				points[t.idx] = point
				pointsMu.Unlock()

				var price *int64
				if point.OK {
					p := point.Price
					price = &p
				}
				status.RecordRow(t.idx, price)
			}
		}()
	}
	wg.Wait()

	return points
}

// fetchRow resolves and fetches one row, turning every failure into a
// tagged observation instead of an error path.
func (e *Engine) fetchRow(ctx context.Context, row *model.ProductRow) model.PricePoint {
	ref, err := e.resolve(row.Link)
	if err != nil {
		e.logger.Warn("link rejected", "link", row.Link, "error", err)
		return model.PricePoint{Failure: model.FailureBadLink}
	}

	price, err := e.fetcher.FetchPrice(ctx, ref, row.Var1, row.Var2)
	if err != nil {
		e.logger.Warn("fetch failed", "link", row.Link, "error", err)
		return model.PricePoint{Failure: shopee.FailureKindOf(err)}
	}

	return model.PricePoint{Price: price, OK: true}
}

// discountFor recomputes a row's discount from its history. The
// average covers successful observations from days before today; when
// either the average or today's price is missing the cell stays blank.
func (e *Engine) discountFor(row *model.ProductRow, today time.Time) *float64 {
	current, ok := row.PriceOn(today)
	if !ok || !current.OK {
		return nil
	}
	pct, ok := discount.Percent(row.SuccessfulPricesBefore(today), current.Price)
	if !ok {
		return nil
	}
	return &pct
}

func (e *Engine) finishRun(runID int64, status *Status) {
	if e.recorder == nil || runID == 0 {
		return
	}
	snap := status.Snapshot()
	if err := e.recorder.FinishRun(runID, string(snap.State), snap.Total, snap.Progress, snap.Error, time.Now()); err != nil {
		e.logger.Warn("run history update failed", "error", err)
	}
}
