// Команда loadtest нагружает HTTP API заказов сценариями создания и чтения.
package main

import (
	"bytes"
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
	"sync"
	"syscall"
	"time"

	"github.com/vladislavdragonenkov/orderdesk/internal/app"
	"github.com/vladislavdragonenkov/orderdesk/internal/auth"
)

const (
	envAuthSecret = "ORDERDESK_AUTH_SECRET"

	methodCreate = "POST /orders"
	methodGet    = "GET /orders/{id}"
	methodList   = "GET /orders"

	statusTransportError = "transport_error"
)

type loadMode string

const (
	modeCreate     loadMode = "create"
	modeCreateGet  loadMode = "create-get"
	modeCreateList loadMode = "create-list"
)

type config struct {
	baseURL     string
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	timeout     time.Duration
	mode        loadMode
	token       string
	partnerID   string
	productIDs  []string
	quantity    int
	outputPath  string
}

func parseConfig(args []string, getenv func(string) string) (config, error) {
	var (
		cfg          config
		modeValue    string
		productValue string
		secret       string
		userID       string
		role         string
	)

	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.baseURL, "url", "http://localhost:8080", "base URL of the orders API")
	fs.IntVar(&cfg.total, "total", 400, "total scenarios to execute in count mode; in duration mode only used when explicitly set")
	fs.DurationVar(&cfg.duration, "duration", 0, "optional time-based run duration (e.g. 10m, 15m)")
	fs.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent workers")
	fs.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-request timeout")
	fs.StringVar(&modeValue, "mode", string(modeCreate), "load mode: create | create-get | create-list")
	fs.StringVar(&cfg.token, "token", "", "bearer token; issued from -secret when empty")
	fs.StringVar(&secret, "secret", "", "token signing secret (fallback: "+envAuthSecret+", then dev secret)")
	fs.StringVar(&userID, "user", "loadtest", "user id for the issued token")
	fs.StringVar(&role, "role", string(auth.RoleEmployee), "role for the issued token")
	fs.StringVar(&cfg.partnerID, "partner", "partner-1", "partner id for created orders")
	fs.StringVar(&productValue, "products", "product-1", "comma-separated product ids for order items")
	fs.IntVar(&cfg.quantity, "quantity", 1, "quantity per order item")
	fs.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	mode, err := parseMode(modeValue)
	if err != nil {
		return cfg, err
	}
	cfg.mode = mode

	for _, id := range strings.Split(productValue, ",") {
		if id = strings.TrimSpace(id); id != "" {
			cfg.productIDs = append(cfg.productIDs, id)
		}
	}
	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	cfg.partnerID = strings.TrimSpace(cfg.partnerID)

	switch {
	case cfg.baseURL == "":
		return cfg, errors.New("url is required")
	case cfg.duration < 0:
		return cfg, errors.New("duration must be >= 0")
	case cfg.duration == 0 && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when duration is not set")
	case cfg.duration > 0 && cfg.totalSet && cfg.total <= 0:
		return cfg, errors.New("total must be > 0 when explicitly set with duration")
	case cfg.concurrency <= 0:
		return cfg, errors.New("concurrency must be > 0")
	case cfg.timeout <= 0:
		return cfg, errors.New("timeout must be > 0")
	case cfg.partnerID == "":
		return cfg, errors.New("partner is required")
	case len(cfg.productIDs) == 0:
		return cfg, errors.New("at least one product is required")
	case cfg.quantity <= 0:
		return cfg, errors.New("quantity must be > 0")
	}

	if cfg.token == "" {
		if secret == "" {
			secret = getenv(envAuthSecret)
		}
		if secret == "" {
			secret = app.DevAuthSecret
		}
		cfg.token, err = auth.NewSigner(secret).Issue(userID, auth.Role(role))
		if err != nil {
			return cfg, fmt.Errorf("issue token: %w", err)
		}
	}

	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch mode := loadMode(strings.TrimSpace(value)); mode {
	case modeCreate, modeCreateGet, modeCreateList:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Getenv)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Transport: &http.Transport{
		MaxIdleConns:        cfg.concurrency,
		MaxIdleConnsPerHost: cfg.concurrency,
	}}

	result := run(ctx, cfg, client)
	printReport(os.Stdout, result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}

	if result.FailedScenarios > 0 {
		os.Exit(1)
	}
}

// run прогоняет сценарии пулом воркеров и возвращает сводный отчёт.
func run(ctx context.Context, cfg config, client *http.Client) report {
	startedAt := time.Now()
	col := newCollector()
	lt := &loadTester{cfg: cfg, client: client, col: col}

	jobs := make(chan int, cfg.concurrency*2)
	var wg sync.WaitGroup
	for i := 0; i < cfg.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				_ = lt.runScenario(ctx)
			}
		}()
	}

	dispatchJobs(ctx, jobs, cfg)
	wg.Wait()

	return col.buildReport(startedAt, time.Since(startedAt))
}

func dispatchJobs(ctx context.Context, jobs chan<- int, cfg config) {
	defer close(jobs)

	var deadline <-chan time.Time
	if cfg.duration > 0 {
		timer := time.NewTimer(cfg.duration)
		defer timer.Stop()
		deadline = timer.C
	}

	for i := 0; ; i++ {
		if (cfg.duration <= 0 || cfg.totalSet) && i >= cfg.total {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case jobs <- i:
		}
	}
}

type loadTester struct {
	cfg    config
	client *http.Client
	col    *collector
}

type apiEnvelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type createdOrder struct {
	ID string `json:"id"`
}

func (lt *loadTester) runScenario(ctx context.Context) error {
	start := time.Now()
	scenarioStatus := strconv.Itoa(http.StatusOK)
	var err error
	defer func() {
		lt.col.record(scenarioMethod, time.Since(start), scenarioStatus, err == nil)
	}()

	var env apiEnvelope
	env, scenarioStatus, err = lt.call(ctx, methodCreate, http.MethodPost, "/orders", lt.orderPayload())
	if err != nil {
		return err
	}

	var order createdOrder
	if err = json.Unmarshal(env.Data, &order); err != nil || order.ID == "" {
		err = errors.New("create response returned empty order id")
		return err
	}

	switch lt.cfg.mode {
	case modeCreateGet:
		_, scenarioStatus, err = lt.call(ctx, methodGet, http.MethodGet, "/orders/"+order.ID, nil)
	case modeCreateList:
		_, scenarioStatus, err = lt.call(ctx, methodList, http.MethodGet, "/orders", nil)
	}
	return err
}

func (lt *loadTester) orderPayload() []byte {
	items := make([]map[string]any, 0, len(lt.cfg.productIDs))
	for _, id := range lt.cfg.productIDs {
		items = append(items, map[string]any{"productId": id, "quantity": lt.cfg.quantity})
	}
	body, _ := json.Marshal(map[string]any{
		"date":       time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"partnerId":  lt.cfg.partnerID,
		"note":       "loadtest",
		"orderItems": items,
	})
	return body
}

// call выполняет запрос и учитывает его в collector. Успех: только 2xx.
func (lt *loadTester) call(ctx context.Context, method, httpMethod, path string, body []byte) (apiEnvelope, string, error) {
	ctx, cancel := context.WithTimeout(ctx, lt.cfg.timeout)
	defer cancel()

	start := time.Now()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, httpMethod, lt.cfg.baseURL+path, reader)
	if err != nil {
		lt.col.record(method, time.Since(start), statusTransportError, false)
		return apiEnvelope{}, statusTransportError, err
	}
	req.Header.Set("Authorization", "Bearer "+lt.cfg.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := lt.client.Do(req)
	if err != nil {
		lt.col.record(method, time.Since(start), statusTransportError, false)
		return apiEnvelope{}, statusTransportError, err
	}
	defer resp.Body.Close()

	var env apiEnvelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	status := strconv.Itoa(resp.StatusCode)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300 && decodeErr == nil
	lt.col.record(method, time.Since(start), status, ok)

	switch {
	case decodeErr != nil:
		return env, status, fmt.Errorf("decode %s response: %w", method, decodeErr)
	case !ok:
		return env, status, fmt.Errorf("%s: %d %s", method, resp.StatusCode, env.Message)
	}
	return env, status, nil
}
