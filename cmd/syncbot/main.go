package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/remeh/sizedwaitgroup"

	"tickarena/client"
	"tickarena/logging"
	"tickarena/protocol"
	"tickarena/sim"
)

// syncbot：无界面客户端群，随机游走，结束时报告预测与权威位置的偏差
func main() {
	var (
		url      string
		room     string
		bots     int
		parallel int
		fps      int
		duration time.Duration
	)
	logOpts := logging.DefaultOptions("syncbot.log")
	logOpts.Level = "info"
	logOpts.RegisterFlags(flag.CommandLine)
	flag.StringVar(&url, "url", "ws://localhost:2567", "server websocket base url")
	flag.StringVar(&room, "room", "room-1", "room to join or create")
	flag.IntVar(&bots, "bots", 4, "number of simulated clients")
	flag.IntVar(&parallel, "parallel", 8, "max concurrent joins")
	flag.IntVar(&fps, "fps", 60, "client frame rate (independent of the fixed tick)")
	flag.DurationVar(&duration, "duration", 10*time.Second, "how long each bot runs")
	flag.Parse()

	base, err := logging.New(logOpts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := base.Sugar()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		mu      sync.Mutex
		clients []*client.Client
	)
	swg := sizedwaitgroup.New(parallel)
	for i := 0; i < bots; i++ {
		swg.Add()
		go func(i int) {
			defer swg.Done()
			joinCtx, stop := context.WithTimeout(ctx, 5*time.Second)
			defer stop()
			c, err := client.Join(joinCtx, url, room, client.Options{
				Header: http.Header{"X-Client-Id": {fmt.Sprintf("syncbot-%d", i)}},
				Logger: logger.With("bot", i),
			})
			if err != nil {
				logger.Warnf("bot %d: %v", i, err)
				return
			}
			mu.Lock()
			clients = append(clients, c)
			mu.Unlock()
		}(i)
	}
	swg.Wait()
	if len(clients) == 0 {
		fmt.Fprintln(os.Stderr, "no bot could join", url)
		os.Exit(1)
	}

	runCtx, stop := context.WithTimeout(ctx, duration)
	defer stop()
	var wg sync.WaitGroup
	for i, c := range clients {
		wg.Add(1)
		go func(i int, c *client.Client) {
			defer wg.Done()
			defer c.Close()
			walker := newRandomWalk(int64(i))
			if err := c.Run(runCtx, fps, walker); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
				logger.Warnf("bot %d stopped: %v", i, err)
			}
			report(c)
		}(i, c)
	}
	wg.Wait()
}

// randomWalk 每隔一段时间随机换一个方向组合
type randomWalk struct {
	rng   *rand.Rand
	cur   sim.Input
	until int
}

func newRandomWalk(seed int64) *randomWalk {
	return &randomWalk{rng: rand.New(rand.NewSource(seed))}
}

func (w *randomWalk) Poll() sim.Input {
	if w.until <= 0 {
		w.cur = sim.Input{
			Left:  w.rng.Intn(3) == 0,
			Right: w.rng.Intn(3) == 0,
			Up:    w.rng.Intn(3) == 0,
			Down:  w.rng.Intn(3) == 0,
		}
		w.until = 10 + w.rng.Intn(50)
	}
	w.until--
	return w.cur
}

func report(c *client.Client) {
	w := c.World()
	local, ok := w.Local()
	if !ok {
		fmt.Printf("%s: never saw own entity\n", c.SessionID())
		return
	}
	diff := local.Display.Sub(local.Target)
	fmt.Printf("%s: ticks=%d predicted=(%.0f,%.0f) authoritative=(%.0f,%.0f) ack=%.0f drift=%.1f remotes=%d\n",
		c.SessionID(), w.Tick(), local.Display.X(), local.Display.Y(), local.Target.X(), local.Target.Y(),
		local.Fields[protocol.FieldTick], diff.Len(), len(w.Entities())-1)
}
