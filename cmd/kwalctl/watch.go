package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kwal/kwalctl/internal/config"
	"github.com/kwal/kwalctl/internal/device"
	"github.com/kwal/kwalctl/internal/edit"
	"github.com/kwal/kwalctl/internal/panel"
	"github.com/kwal/kwalctl/internal/stream"
	"github.com/kwal/kwalctl/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the live watch panel",
	Long: `Open a terminal panel mirroring the controller's live state.

The panel follows the controller's push channel: sliders, the active
pattern and color set, and the playing audio fragment update as they
change, including changes made from other clients. Key presses adjust
the controller directly.`,
	Example: `  # Watch the default controller
  kwalctl watch
  # Or simply (watch is the default):
  kwalctl

  # Watch a specific controller
  kwalctl watch --controller studio
  kwalctl watch --device 192.168.4.16`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !ui.IsTerminal() {
		return fmt.Errorf("the watch panel requires a terminal (try 'kwalctl status' instead)")
	}

	client, name, err := resolveClient()
	if err != nil {
		return err
	}
	if err := client.Ping(); err != nil {
		return fmt.Errorf("controller not reachable at %s: %w", client.BaseURL, err)
	}

	registry, _ := config.LoadRegistry()

	rec := panel.NewReconciler()
	patterns := panel.NewListCache[device.Pattern]()
	colors := panel.NewListCache[device.ColorSet]()

	refreshLists := func() {
		_ = patterns.Load(func() ([]device.Pattern, string, error) {
			list, err := client.Patterns()
			if err != nil {
				return nil, "", err
			}
			return list.Patterns, list.ActivePattern, nil
		})
		_ = colors.Load(func() ([]device.ColorSet, string, error) {
			list, err := client.Colors()
			if err != nil {
				return nil, "", err
			}
			return list.Colors, list.ActiveColor, nil
		})
	}

	var sc *stream.Client
	// After a drop the controller may have rebooted with fresh ids, so
	// recovery re-fetches everything before reconnecting the push channel.
	reload := func() {
		refreshLists()
		_ = sc.Connect()
	}
	sc = stream.NewClient(client.EventsURL(), client.Ping, reload)
	if registry != nil {
		if interval := registry.PollInterval(); interval > 0 {
			sc.SetPollInterval(interval)
		}
	}

	// Rapid key repeats on the sliders coalesce into one write each.
	previewDelay := edit.DefaultPreviewDelay
	if registry != nil {
		if d := registry.PreviewDelay(); d > 0 {
			previewDelay = d
		}
	}
	brightnessSched := edit.NewPreviewScheduler(previewDelay)
	volumeSched := edit.NewPreviewScheduler(previewDelay)

	actions := ui.Actions{
		SetBrightness: func(pct int) error {
			brightnessSched.Schedule(func() { _ = client.SetBrightness(pct) })
			return nil
		},
		SetVolume: func(pct int) error {
			volumeSched.Schedule(func() { _ = client.SetAudioLevel(pct) })
			return nil
		},
		NextPattern:  client.NextPattern,
		PrevPattern:  client.PrevPattern,
		NextColor:    client.NextColor,
		PrevColor:    client.PrevColor,
		NextFragment: client.NextFragment,
		Vote:         client.Vote,
	}

	refreshLists()

	model := ui.NewWatchModel(name, rec.Snapshot(), actions)
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Push data flows into the program as messages; the model itself
	// never touches the network.
	rec.OnChange(func(s panel.DeviceState) {
		p.Send(ui.StateMsg(s))
	})
	sc.OnStateChange(func(s stream.ConnectionState) {
		p.Send(ui.ConnMsg(s))
	})

	sc.OnState(func(ev device.StateEvent) {
		rec.ApplyState(ev)
		patterns.SetActiveByID(ev.PatternID)
		colors.SetActiveByID(ev.ColorID)
	})
	sc.OnFragment(rec.ApplyFragment)
	sc.OnLight(func(ev device.LightEvent) {
		rec.ApplyLight(ev)
		patterns.SetActiveByID(ev.Pattern)
		colors.SetActiveByID(ev.Color)
	})
	sc.OnPatterns(func(list device.PatternList) {
		patterns.ReplaceFromPush(list.Patterns, list.ActivePattern)
	})
	sc.OnColors(func(list device.ColorList) {
		colors.ReplaceFromPush(list.Colors, list.ActiveColor)
	})
	sc.OnResume(refreshLists)

	if err := sc.Connect(); err != nil {
		// The poll loop is already probing; the panel shows the state.
		fmt.Printf("Push channel not yet up, recovering: %v\n", err)
	}
	defer sc.Disconnect()
	defer brightnessSched.Stop()
	defer volumeSched.Stop()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("watch panel error: %w", err)
	}
	return nil
}
