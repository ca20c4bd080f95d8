package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type mailJob struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

type worker struct {
	id         int
	workerPool chan chan mailJob
	jobChannel chan mailJob
	logger     *slog.Logger
}

func newWorker(id int, workerPool chan chan mailJob, logger *slog.Logger) *worker {
	return &worker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan mailJob),
		logger:     logger,
	}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup, processFunc func(mailJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.workerPool <- w.jobChannel

			select {
			case job := <-w.jobChannel:
				w.logger.Debug("mail worker processing job", "worker_id", w.id, "recipient", job.Recipient)
				processFunc(job)
			case <-ctx.Done():
				w.logger.Debug("mail worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

type ClientConfig struct {
	RelayURL     string
	APIKey       string
	SendTimeout  time.Duration
	MaxWorkers   int
	JobQueueSize int
}

// RelayClient posts messages to an HTTP mail relay. Send delivers inline for
// the workflow's best-effort path; Enqueue hands the message to the worker
// pool for background retry traffic.
type RelayClient struct {
	relayURL    string
	apiKey      string
	sendTimeout time.Duration
	httpClient  *http.Client
	logger      *slog.Logger

	jobQueue   chan mailJob
	workerPool chan chan mailJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewRelayClient(config ClientConfig, logger *slog.Logger) *RelayClient {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 64
	}
	sendTimeout := config.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	client := &RelayClient{
		relayURL:    config.RelayURL,
		apiKey:      config.APIKey,
		sendTimeout: sendTimeout,
		httpClient:  &http.Client{Timeout: sendTimeout},
		logger:      logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan mailJob, jobQueueSize),
		workerPool: make(chan chan mailJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	client.startWorkerPool()

	return client
}

func (c *RelayClient) startWorkerPool() {
	c.once.Do(func() {
		for i := 0; i < c.maxWorkers; i++ {
			w := newWorker(i, c.workerPool, c.logger)
			w.start(c.ctx, &c.wg, c.processJob)
		}

		c.wg.Add(1)
		go c.dispatch()

		c.logger.Info("mail relay worker pool started",
			"max_workers", c.maxWorkers,
			"queue_size", cap(c.jobQueue))
	})
}

func (c *RelayClient) dispatch() {
	defer c.wg.Done()

	for {
		select {
		case job := <-c.jobQueue:
			select {
			case jobChannel := <-c.workerPool:
				select {
				case jobChannel <- job:
				case <-c.ctx.Done():
					return
				}
			case <-c.ctx.Done():
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *RelayClient) Shutdown() {
	c.logger.Info("shutting down mail relay client")
	c.cancel()
	c.wg.Wait()
	c.logger.Info("mail relay client shutdown complete")
}

// Send posts one message to the relay and reports whether it was accepted.
func (c *RelayClient) Send(ctx context.Context, recipient, subject, body string) (bool, error) {
	if c.relayURL == "" {
		return false, fmt.Errorf("mail relay url not configured")
	}

	payload, err := json.Marshal(mailJob{Recipient: recipient, Subject: subject, Body: body})
	if err != nil {
		return false, fmt.Errorf("marshal mail payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.relayURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, nil
	}
	return true, nil
}

// Enqueue hands the message to the background pool. Drops with a warning when
// the queue is saturated rather than blocking a request path.
func (c *RelayClient) Enqueue(recipient, subject, body string) {
	select {
	case c.jobQueue <- mailJob{Recipient: recipient, Subject: subject, Body: body}:
	default:
		c.logger.Warn("mail job queue full, dropping message", "recipient", recipient, "subject", subject)
	}
}

func (c *RelayClient) processJob(job mailJob) {
	delivered, err := c.Send(c.ctx, job.Recipient, job.Subject, job.Body)
	if err != nil {
		c.logger.Warn("background mail send failed", "recipient", job.Recipient, "error", err)
		return
	}
	if !delivered {
		c.logger.Warn("background mail not accepted by relay", "recipient", job.Recipient)
	}
}
