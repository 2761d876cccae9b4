package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"DrawdownSentinel/internal/analyzer"
	"DrawdownSentinel/internal/collector"
	"DrawdownSentinel/internal/config"
	"DrawdownSentinel/internal/recorder"
	"DrawdownSentinel/internal/registry"
	"DrawdownSentinel/internal/report"
	"DrawdownSentinel/internal/storage"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the cron-driven upload pipeline.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Store     storage.Storage
	Registry  *registry.Registry
	Recorder  recorder.Recorder
	Coins     []config.Coin
	Interval  string
	Window    int
	Delay     time.Duration
	Ctx       context.Context

	runMu sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, store storage.Storage, reg *registry.Registry, rec recorder.Recorder, cfg *config.Config) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Store:     store,
		Registry:  reg,
		Recorder:  rec,
		Coins:     cfg.Coins,
		Interval:  cfg.Analysis.ChartInterval,
		Window:    cfg.Analysis.ChartWindow,
		Delay:     cfg.RequestDelay(),
		Ctx:       ctx,
	}
}

// RegisterAll registers the periodic upload task.
func (s *Scheduler) RegisterAll(uploadCron string) error {
	if _, err := s.Cron.AddFunc(uploadCron, s.uploadTask); err != nil {
		return fmt.Errorf("register upload task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the upload task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.uploadTask()
}

// uploadTask walks the configured coins sequentially. A failing coin is
// logged and recorded but never stops the rest of the batch; the delay
// between coins keeps the pipeline under upstream rate limits. At most
// one task runs at a time: a cron firing while a RunNow (or a slow
// previous firing) is still in flight is skipped, not queued.
func (s *Scheduler) uploadTask() {
	if !s.runMu.TryLock() {
		log.Println("[WARN] upload task already running, skipping this trigger")
		return
	}
	defer s.runMu.Unlock()

	log.Printf("[INFO] running upload task for %d coins", len(s.Coins))

	if err := s.Registry.Load(s.Ctx); err != nil {
		log.Printf("[ERROR] load registry: %v, registry updates skipped this run", err)
	}

	for i, coin := range s.Coins {
		if i > 0 {
			time.Sleep(s.Delay)
		}
		if err := s.ProcessCoin(coin); err != nil {
			log.Printf("[ERROR] process %s (%s): %v", coin.Name, coin.Symbol, err)
			s.tryRecordRun(&recorder.RunSnapshot{
				Coin:   coin.Name,
				Symbol: coin.Symbol,
				Status: "ERROR",
				Note:   err.Error(),
			})
		}
	}

	if err := s.Registry.Save(s.Ctx); err != nil {
		log.Printf("[ERROR] save registry: %v", err)
	}
	log.Println("[INFO] upload task finished")
}

// ProcessCoin fetches, analyzes, and publishes the artifacts for one coin.
func (s *Scheduler) ProcessCoin(coin config.Coin) error {
	series, err := s.Collector.Collect(coin.Symbol)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	res, err := analyzer.Analyze(series.DailyBars)
	if err != nil {
		return fmt.Errorf("analyze daily series: %w", err)
	}
	if res.Summary == nil {
		return fmt.Errorf("no data in daily series")
	}

	// Summary extremes come from the long daily history; the chart comes
	// from the finer-grained recent window when one is configured.
	chartPoints := res.Points
	if s.Interval == "1hour" {
		chartRes, err := analyzer.Analyze(series.ChartBars)
		if err != nil {
			return fmt.Errorf("analyze chart series: %w", err)
		}
		chartPoints = chartRes.Points
	}

	entry, changed := s.Registry.Observe(coin.Name, res.Summary)
	if changed {
		log.Printf("[INFO] %s: registry extremes updated (ATH %.8g, ATL %.8g)",
			coin.Name, entry.ATH, entry.ATL)
	} else if entry.ATH > res.Summary.ATH {
		// The persisted ATH predates the fetch window.
		log.Printf("[INFO] %s: registry ATH %.8g from %s, drawdown vs registry %.2f%%",
			coin.Name, entry.ATH, entry.ATHTime().Format("2006-01-02"),
			analyzer.DrawdownAgainst(res.Summary.LastClose, entry.ATH))
	}

	rep := report.Build(coin.Symbol, s.Interval, res.Summary, chartPoints, s.Window, series.FetchedAt)

	jsonBody, err := report.RenderJSON(rep)
	if err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	jsonKey := report.JSONKey(coin.Name)
	if err := s.upload(jsonKey, jsonBody, "application/json"); err != nil {
		return fmt.Errorf("upload json: %w", err)
	}

	htmlBody, err := report.RenderHTML(rep)
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	if err := s.upload(report.HTMLKey(coin.Name), htmlBody, "text/html; charset=utf-8"); err != nil {
		return fmt.Errorf("upload html: %w", err)
	}

	s.tryRecordRun(&recorder.RunSnapshot{
		Coin:         coin.Name,
		Symbol:       coin.Symbol,
		CurrentPrice: res.Summary.LastClose,
		ATH:          res.Summary.ATH,
		ATHTime:      res.Summary.ATHTime,
		ATL:          res.Summary.ATL,
		ATLTime:      res.Summary.ATLTime,
		DrawdownPct:  res.Summary.DrawdownPercent,
		ChartPoints:  len(rep.DrawdownData),
		FileKey:      jsonKey,
		Status:       "OK",
	})

	log.Printf("[INFO] %s: price %.8g, drawdown %.2f%%, %d chart points",
		coin.Name, res.Summary.LastClose, res.Summary.DrawdownPercent, len(rep.DrawdownData))
	return nil
}

func (s *Scheduler) upload(key string, body []byte, contentType string) error {
	err := s.Store.Put(s.Ctx, &storage.Object{
		Key:          key,
		ContentType:  contentType,
		CacheControl: storage.CacheControlPublic,
		Body:         body,
	})
	evt := &recorder.UploadEvent{Key: key, Bytes: len(body), ContentType: contentType, Status: "OK"}
	if err != nil {
		evt.Status = "ERROR"
		evt.Note = err.Error()
	}
	if rerr := s.Recorder.RecordUpload(evt); rerr != nil {
		log.Printf("[ERROR] record upload: %v", rerr)
	}
	return err
}

func (s *Scheduler) tryRecordRun(snap *recorder.RunSnapshot) {
	if err := s.Recorder.RecordRun(snap); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}
}
