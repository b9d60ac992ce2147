package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"slotwatch/internal/booking"
	"slotwatch/internal/browser"
	"slotwatch/internal/browser/chrome"
	"slotwatch/internal/browser/htmlpage"
	"slotwatch/internal/components/chrono"
	"slotwatch/internal/components/telemetry"
	"slotwatch/internal/config"
	"slotwatch/internal/notify"
	"slotwatch/internal/state"
	"slotwatch/internal/watch"
)

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(*configPath, os.LookupEnv)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newClock() (chrono.StandardImpl, error) {
	clock, err := chrono.NewStandardImpl()
	if err != nil {
		return chrono.StandardImpl{}, fmt.Errorf("load time zone: %w", err)
	}
	return clock, nil
}

func openStore(ctx context.Context, cfg config.Config, clock chrono.API) (state.Store, error) {
	store, err := state.Open(ctx, cfg.State, clock)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	return store, nil
}

func openConfiguredStore(ctx context.Context) (state.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	clock, err := newClock()
	if err != nil {
		return nil, err
	}
	return openStore(ctx, cfg, clock)
}

func closeStore(store state.Store) {
	if closer, ok := store.(io.Closer); ok {
		closer.Close()
	}
}

func openBrowser(cfg config.BrowserConfig, tel telemetry.API) watch.OpenBrowser {
	return func(ctx context.Context) (browser.Browser, error) {
		if cfg.Driver == "chrome" {
			return chrome.New(ctx, chrome.Options{
				ExecPath:          cfg.ExecPath,
				Headful:           cfg.Headful,
				NavigationTimeout: cfg.Timeout(),
			}, tel), nil
		}
		return htmlpage.New(htmlpage.Options{
			Timeout:          cfg.Timeout(),
			MinInterval:      cfg.MinInterval(),
			CloudflareBypass: cfg.CloudflareBypass,
			UserAgent:        cfg.UserAgent,
		}, tel), nil
	}
}

func newBroadcaster(cfg config.Config, tel telemetry.API) notify.Broadcaster {
	senders := map[notify.Channel]notify.Sender{
		notify.ChannelSMS: notify.SMS{
			Gateway: notify.NewNexmo(notify.NexmoOptions{
				ApiKey:    cfg.Nexmo.ApiKey,
				ApiSecret: cfg.Nexmo.ApiSecret,
				BaseUrl:   cfg.Nexmo.BaseUrl,
			}, tel),
			From: cfg.Nexmo.From,
		},
	}
	if cfg.Smtp.Server != "" {
		senders[notify.ChannelEmail] = notify.NewEmail(cfg.Smtp, cfg.EmailSubject)
	}
	return notify.NewBroadcaster(senders, tel)
}

func newRunner(cfg config.Config, clock chrono.API, store state.Store, out io.Writer, tel telemetry.API) watch.Runner {
	detector := watch.NewDetector(
		store,
		newBroadcaster(cfg, tel),
		cfg.Recipients,
		watch.Message{
			LoginUrl:        cfg.EntryUrl,
			LicenceNumber:   cfg.LicenceNumber,
			ReferenceNumber: cfg.ReferenceNumber,
		},
		tel,
	)
	return watch.NewRunner(
		openBrowser(cfg.Browser, tel),
		watch.RunnerOptions{
			EntryUrl: cfg.EntryUrl,
			Credentials: booking.Credentials{
				LicenceNumber:   cfg.LicenceNumber,
				ReferenceNumber: cfg.ReferenceNumber,
			},
			Location: clock.Location(),
			Output:   out,
		},
		detector,
		tel,
	)
}
