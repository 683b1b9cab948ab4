package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"gorod-sporta/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

type stats struct {
	sent     uint64
	ok       uint64
	errCount uint64
	errTexts map[string]uint64
	mu       sync.Mutex
}

type completeResponse struct {
	Success bool   `json:"success"`
	Coins   int64  `json:"coins"`
	Reward  int64  `json:"reward"`
	Error   string `json:"error"`
}

func main() {
	baseURL := flag.String("url", "http://127.0.0.1:3000", "api base url")
	platformID := flag.Int64("user", 0, "platform user id")
	platform := flag.String("platform", "telegram", "telegram or vk")
	taskDay := flag.Int("day", 0, "task day number")
	kind := flag.String("type", "", "declared verification type")
	data := flag.String("data", "", "verification data sent as a string")
	workers := flag.Int("workers", 2, "number of concurrent workers")
	count := flag.Int("count", 2, "total requests (ignored if -forever)")
	forever := flag.Bool("forever", false, "run until interrupted")
	delay := flag.Duration("delay", 0, "delay between requests per worker (e.g. 10ms)")
	verbose := flag.Bool("verbose", false, "log every request")
	checkDB := flag.Bool("check-db", false, "poll the user's coin balance")
	poll := flag.Duration("poll", time.Second, "db poll interval (e.g. 200ms)")
	flag.Parse()

	if *platformID == 0 || *taskDay == 0 {
		fmt.Println("usage: go run ./scripts/complete_task.go --user <id> --day <n> [--platform vk] [--type qr --data GYM01] [--workers 2] [--count 100|--forever] [--delay 0ms] [--check-db] [--poll 1s]")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		cancel()
	}()

	var st stats
	st.errTexts = make(map[string]uint64)

	var watcher *dbWatcher
	if *checkDB {
		w, err := startDBWatcher(ctx, *platform, *platformID, *poll)
		if err != nil {
			fmt.Printf("db watcher failed: %v\n", err)
			os.Exit(1)
		}
		watcher = w
	}

	body := map[string]any{
		"platformId":       *platformID,
		"platform":         *platform,
		"taskDay":          *taskDay,
		"verificationType": *kind,
		"verificationData": *data,
	}
	endpoint := *baseURL + "/api/complete-task"

	run := func(id int) {
		for {
			if !*forever {
				n := atomic.AddUint64(&st.sent, 1)
				if n > uint64(*count) {
					return
				}
			} else {
				atomic.AddUint64(&st.sent, 1)
			}

			resp, err := completeTask(endpoint, body)
			switch {
			case err != nil:
				st.record(err.Error())
				fmt.Printf("[W%d] transport error: %v\n", id, err)
			case resp.Error != "":
				st.record(resp.Error)
				if *verbose {
					fmt.Printf("[W%d] rejected: %s\n", id, resp.Error)
				}
			default:
				atomic.AddUint64(&st.ok, 1)
				fmt.Printf("[W%d] ok reward=%d coins=%d\n", id, resp.Reward, resp.Coins)
			}

			if *delay > 0 {
				select {
				case <-time.After(*delay):
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			default:
			}
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			run(id + 1)
		}(i)
	}
	wg.Wait()

	if watcher != nil {
		watcher.Stop()
	}

	st.mu.Lock()
	fmt.Printf("summary sent=%d ok=%d errors=%d error_texts=%v\n", st.sent, st.ok, st.errCount, st.errTexts)
	st.mu.Unlock()
}

func (s *stats) record(text string) {
	atomic.AddUint64(&s.errCount, 1)
	s.mu.Lock()
	s.errTexts[text]++
	s.mu.Unlock()
}

func completeTask(endpoint string, body map[string]any) (*completeResponse, error) {
	agent := fiber.Post(endpoint).JSON(body).Timeout(10 * time.Second)
	if err := agent.Parse(); err != nil {
		return nil, err
	}
	var resp completeResponse
	code, _, errs := agent.Struct(&resp)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if code >= fiber.StatusInternalServerError {
		return nil, fmt.Errorf("status %d: %s", code, resp.Error)
	}
	return &resp, nil
}

type dbWatcher struct {
	pool        *pgxpool.Pool
	column      string
	platformID  int64
	lastCoins   int64
	changeCount int
	cancel      context.CancelFunc
	done        chan struct{}
}

func startDBWatcher(ctx context.Context, platform string, platformID int64, poll time.Duration) (*dbWatcher, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.GetDSN())
	if err != nil {
		return nil, err
	}

	column := "telegram_id"
	if platform == "vk" {
		column = "vk_id"
	}

	wctx, cancel := context.WithCancel(ctx)
	w := &dbWatcher{
		pool:       pool,
		column:     column,
		platformID: platformID,
		lastCoins:  -1,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	go w.loop(wctx, poll)
	return w, nil
}

func (w *dbWatcher) loop(ctx context.Context, poll time.Duration) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var coins int64
			err := w.pool.QueryRow(ctx,
				`SELECT coins FROM users WHERE `+w.column+` = $1`,
				w.platformID,
			).Scan(&coins)
			if err != nil {
				continue
			}
			if w.lastCoins >= 0 && coins != w.lastCoins {
				w.changeCount++
				fmt.Printf("db-watch change: coins %d -> %d\n", w.lastCoins, coins)
			}
			w.lastCoins = coins
		}
	}
}

func (w *dbWatcher) Stop() {
	w.cancel()
	<-w.done
	w.pool.Close()
	fmt.Printf("db-watch summary coins=%d changes=%d\n", w.lastCoins, w.changeCount)
}
