// Command server exposes the backtest pipeline over HTTP: submit a run
// against a tick CSV, poll its status, then download the trade table as
// CSV or the resampled bars as Arrow IPC.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"orb-backtest/services/arrowpipeline"
	"orb-backtest/services/config"
	"orb-backtest/services/csvio"
	"orb-backtest/services/engine"
	"orb-backtest/services/monitoring"
	"orb-backtest/services/report"
)

const version = "1.0.0"

// Job statuses, in lifecycle order.
const (
	statusQueued    = "queued"
	statusRunning   = "running"
	statusCompleted = "completed"
	statusFailed    = "failed"
)

// Job tracks one submitted backtest from queue to result. Exactly one
// of Input (a server-side path) and CSV (inline tick data) is set.
type Job struct {
	ID          string
	Status      string
	Input       string
	CSV         string
	Params      engine.Params
	SubmittedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
	Err         string
	Dropped     int
	Result      *engine.Result
	Recorder    *report.Recorder
}

// jobStore is an in-memory job registry shared by handlers and workers.
type jobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[string]*Job)}
}

func (s *jobStore) put(j *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
}

func (s *jobStore) get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

// update mutates a job under the store lock so handlers never observe a
// half-written status.
func (s *jobStore) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		fn(j)
	}
}

// view returns a copy of the job under the read lock.
func (s *jobStore) view(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// BacktestService wires the HTTP API to the worker pool.
type BacktestService struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *jobStore
	queue  chan string
	wg     sync.WaitGroup
}

func NewBacktestService(cfg *config.Config, logger *zap.Logger) *BacktestService {
	return &BacktestService{
		cfg:    cfg,
		logger: logger,
		store:  newJobStore(),
		queue:  make(chan string, 64),
	}
}

// start launches the worker pool.
func (s *BacktestService) start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// stop drains the queue and waits for in-flight jobs.
func (s *BacktestService) stop() {
	close(s.queue)
	s.wg.Wait()
}

func (s *BacktestService) worker(workerID int) {
	defer s.wg.Done()

	for jobID := range s.queue {
		s.logger.Debug("worker picked job",
			zap.Int("worker_id", workerID),
			zap.String("job_id", jobID),
		)
		s.runJob(jobID)
	}
}

func (s *BacktestService) runJob(jobID string) {
	job, ok := s.store.get(jobID)
	if !ok {
		return
	}

	start := time.Now()
	s.store.update(jobID, func(j *Job) {
		j.Status = statusRunning
		j.StartedAt = start
	})
	s.logger.Info("starting backtest",
		zap.String("job_id", jobID),
		zap.String("input", job.Input),
		zap.Bool("inline", job.CSV != ""),
	)

	rec := report.NewRecorder()
	res, dropped, err := s.execute(job, rec)
	finished := time.Now()

	if err != nil {
		s.logger.Error("backtest failed",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		s.store.update(jobID, func(j *Job) {
			j.Status = statusFailed
			j.FinishedAt = finished
			j.Err = err.Error()
		})
		monitoring.ObserveRun(statusFailed, 0, 0, finished.Sub(start).Seconds())
		return
	}

	s.store.update(jobID, func(j *Job) {
		j.Status = statusCompleted
		j.FinishedAt = finished
		j.Dropped = dropped
		j.Result = &res
		j.Recorder = rec
	})
	monitoring.ObserveRun(statusCompleted, res.Rows, len(res.Trades), finished.Sub(start).Seconds())
	s.logger.Info("backtest completed",
		zap.String("job_id", jobID),
		zap.Duration("execution_time", finished.Sub(start)),
		zap.Int("trades", len(res.Trades)),
	)
}

func (s *BacktestService) execute(job *Job, rec *report.Recorder) (engine.Result, int, error) {
	rep := report.Multi(&report.Zap{L: s.logger.With(zap.String("job_id", job.ID))}, rec)

	loadStart := time.Now()
	var (
		ticks   []engine.Tick
		dropped int
		err     error
	)
	if job.CSV != "" {
		ticks, dropped, err = csvio.ReadTicksFrom(strings.NewReader(job.CSV))
	} else {
		ticks, dropped, err = csvio.ReadTicks(job.Input)
	}
	if err != nil {
		return engine.Result{}, 0, fmt.Errorf("load ticks: %w", err)
	}
	rep.StageDone(engine.StageLoad, time.Since(loadStart))
	rep.Count(engine.CountRows, len(ticks))
	rep.Count(engine.CountDropped, dropped)

	res, err := engine.Run(ticks, job.Params, rep)
	if err != nil {
		return engine.Result{}, 0, err
	}
	return res, dropped, nil
}

// jobRequest is the POST body. Ticks come either from a server-side
// path (input) or inline (csv), never both. Zero-valued strategy fields
// fall back to the server's configured defaults.
type jobRequest struct {
	Input           string  `json:"input"`
	CSV             string  `json:"csv"`
	IntervalMinutes int     `json:"interval_minutes"`
	SignalTime      string  `json:"signal_time"`
	SessionOpen     string  `json:"session_open"`
	SessionClose    string  `json:"session_close"`
	CostRate        float64 `json:"cost_rate"`
}

func (s *BacktestService) paramsFor(req jobRequest) (engine.Params, error) {
	strat := s.cfg.Strategy
	if req.IntervalMinutes > 0 {
		strat.IntervalMinutes = req.IntervalMinutes
	}
	if req.SignalTime != "" {
		strat.SignalTime = req.SignalTime
	}
	if req.SessionOpen != "" {
		strat.SessionOpen = req.SessionOpen
	}
	if req.SessionClose != "" {
		strat.SessionClose = req.SessionClose
	}
	if req.CostRate > 0 {
		strat.CostRate = req.CostRate
	}
	merged := config.Config{Strategy: strat}
	return merged.Params()
}

func (s *BacktestService) setupHTTPRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/backtests", s.handleSubmit)
		api.GET("/backtests/:job_id", s.handleStatus)
		api.GET("/backtests/:job_id/trades.csv", s.handleTradesCSV)
		api.GET("/backtests/:job_id/bars.arrow", s.handleBarsArrow)
		api.GET("/health", s.handleHealthCheck)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *BacktestService) handleSubmit(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if (req.Input == "") == (req.CSV == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide exactly one of input and csv"})
		return
	}
	if req.Input != "" {
		if _, err := os.Stat(req.Input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("input %q not readable: %v", req.Input, err)})
			return
		}
	}
	params, err := s.paramsFor(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job := &Job{
		ID:          uuid.New().String(),
		Status:      statusQueued,
		Input:       req.Input,
		CSV:         req.CSV,
		Params:      params,
		SubmittedAt: time.Now(),
	}
	s.store.put(job)

	select {
	case s.queue <- job.ID:
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "job queue full"})
		return
	}

	s.logger.Info("job accepted", zap.String("job_id", job.ID))
	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": job.Status})
}

func (s *BacktestService) handleStatus(c *gin.Context) {
	job, ok := s.store.view(c.Param("job_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job"})
		return
	}

	resp := gin.H{
		"job_id":       job.ID,
		"status":       job.Status,
		"submitted_at": job.SubmittedAt.UTC().Format(time.RFC3339),
	}
	if job.Input != "" {
		resp["input"] = job.Input
	} else {
		resp["source"] = "inline"
	}
	if job.Err != "" {
		resp["error"] = job.Err
	}
	if job.Status == statusCompleted && job.Result != nil {
		durations := make(map[string]string, len(job.Recorder.Stages))
		for stage, d := range job.Recorder.Stages {
			durations[stage] = d.String()
		}
		resp["rows"] = job.Result.Rows
		resp["dropped_rows"] = job.Dropped
		resp["bars"] = len(job.Result.Bars)
		resp["signal_days"] = job.Result.SignalDays
		resp["signals"] = job.Result.SignalCount
		resp["trades"] = len(job.Result.Trades)
		resp["stage_durations"] = durations
		resp["summary"] = report.NewSummaryReport(job.Result.Summary)
	}
	c.JSON(http.StatusOK, resp)
}

// completedJob fetches a job that has a result, mapping the two failure
// cases to their HTTP statuses.
func (s *BacktestService) completedJob(c *gin.Context) (Job, bool) {
	job, ok := s.store.view(c.Param("job_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job"})
		return Job{}, false
	}
	if job.Status != statusCompleted || job.Result == nil {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("job is %s", job.Status)})
		return Job{}, false
	}
	return job, true
}

func (s *BacktestService) handleTradesCSV(c *gin.Context) {
	job, ok := s.completedJob(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_trades.csv", job.ID))
	if err := csvio.WriteTradesTo(c.Writer, job.Result.Trades); err != nil {
		s.logger.Error("writing trades response", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (s *BacktestService) handleBarsArrow(c *gin.Context) {
	job, ok := s.completedJob(c)
	if !ok {
		return
	}

	data, err := arrowpipeline.NewEncoder().EncodeBars(job.Result.Bars)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/vnd.apache.arrow.stream", data)
}

func (s *BacktestService) handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"version":   version,
	})
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml")
	addr := flag.String("addr", "", "Listen address (defaults to server.addr)")
	flag.Parse()

	// ORB_* variables from a local .env override the config file.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *addr == "" {
		*addr = cfg.Server.Addr
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting backtest service",
		zap.String("version", version),
		zap.String("environment", cfg.Environment),
		zap.String("addr", *addr),
	)

	service := NewBacktestService(cfg, logger)
	service.start(cfg.Server.Workers)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	service.setupHTTPRoutes(router)

	srv := &http.Server{Addr: *addr, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	service.stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	logger.Info("stopped")
}
