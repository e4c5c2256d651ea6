package main

import (
	"buddy-chat/client"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Config drives the bot swarm. Every variable is prefixed with TESTER_.
type Config struct {
	ServerURL string        `envconfig:"SERVER_URL" default:"ws://localhost:8080/ws" validate:"required,url"`
	Bots      int           `envconfig:"BOTS" default:"6" validate:"min=2,max=1000"`
	Phrase    string        `envconfig:"PHRASE" default:"hello buddy" validate:"required"`
	KeyDelay  time.Duration `envconfig:"KEY_DELAY" default:"20ms"`
	Settle    time.Duration `envconfig:"SETTLE" default:"1s"`
	Colours   bool          `envconfig:"COLOURS" default:"true"`
	LogLevel  string        `envconfig:"LOG_LEVEL" default:"INFO"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Tester error: %v\n", err)
		os.Exit(1)
	}
}

// run connects a swarm of bots, lets the paired ones type a phrase,
// disconnects half of them and prints what every bot observed.
func run() error {
	var config Config
	if err := envconfig.Process("TESTER", &config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Connect and register every bot, one after the other
	bots := make([]*bot, 0, config.Bots)
	for i := 1; i <= config.Bots; i++ {
		c, err := client.Dial(ctx, config.ServerURL, log, 256)
		if err != nil {
			return err
		}
		b := newBot(fmt.Sprintf("bot-%02d", i), c)
		bots = append(bots, b)
		go b.listen()
		if err = c.Init(b.name); err != nil {
			return fmt.Errorf("%s init: %w", b.name, err)
		}
	}
	if !sleep(ctx, config.Settle) {
		return ctx.Err()
	}

	// 2. Paired bots type the phrase, one key at a time
	var wg sync.WaitGroup
	for _, b := range bots {
		if b.currentBuddy() == "" {
			continue
		}
		wg.Add(1)
		go func(b *bot) {
			defer wg.Done()
			for _, r := range config.Phrase {
				if err := b.client.Type(string(r)); err != nil {
					log.Warn("Typing failed", "bot", b.name, "error", err)
					return
				}
				if !sleep(ctx, config.KeyDelay) {
					return
				}
			}
			// One backspace, so the buddy sees a delete too
			if err := b.client.Delete(1); err != nil {
				log.Warn("Delete failed", "bot", b.name, "error", err)
			}
		}(b)
	}
	wg.Wait()
	if !sleep(ctx, config.Settle) {
		return ctx.Err()
	}

	// 3. Every other bot leaves, the rest should be repaired
	for i, b := range bots {
		if i%2 == 1 {
			_ = b.client.Close()
			b.markGone()
		}
	}
	if !sleep(ctx, config.Settle) {
		return ctx.Err()
	}

	render(bots, config.Colours)
	for _, b := range bots {
		_ = b.client.Close()
	}
	return nil
}

type bot struct {
	mu       sync.Mutex
	name     string
	client   *client.Client
	buddy    string
	buddies  []string
	received string
	deleted  int
	left     int
	gone     bool
}

func newBot(name string, c *client.Client) *bot {
	return &bot{name: name, client: c}
}

func (b *bot) listen() {
	for evt := range b.client.Events() {
		b.mu.Lock()
		switch evt.Kind {
		case "registered":
			if evt.Buddy != nil {
				b.assign(*evt.Buddy)
			}
		case "buddy-assigned":
			b.assign(evt.Name)
		case "buddy-left":
			b.buddy = ""
			b.left++
		case "chat-add":
			b.received += evt.Payload
		case "chat-delete":
			b.deleted += evt.Count
		}
		b.mu.Unlock()
	}
}

func (b *bot) assign(name string) {
	b.buddy = name
	b.buddies = append(b.buddies, name)
}

func (b *bot) currentBuddy() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buddy
}

func (b *bot) markGone() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gone = true
}

func render(bots []*bot, colours bool) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Bot", "Status", "Buddy", "Buddies", "Left", "Received", "Deleted"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	paint := func(s string, c color.Color) string {
		if !colours {
			return s
		}
		return color.New(color.BgBlack, c).Render(s)
	}

	for _, b := range bots {
		b.mu.Lock()
		status := paint("PAIRED", color.FgGreen)
		switch {
		case b.gone:
			status = paint("GONE", color.FgGray)
		case b.buddy == "":
			status = paint("WAITING", color.FgYellow)
		}
		table.Append([]string{
			b.name,
			status,
			b.buddy,
			strconv.Itoa(len(b.buddies)),
			strconv.Itoa(b.left),
			fmt.Sprintf("%q", b.received),
			strconv.Itoa(b.deleted),
		})
		b.mu.Unlock()
	}
	table.Render()
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
