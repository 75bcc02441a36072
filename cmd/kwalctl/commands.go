package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kwal/kwalctl/internal/config"
	"github.com/kwal/kwalctl/internal/device"
	"github.com/kwal/kwalctl/internal/discovery"
	"github.com/kwal/kwalctl/internal/edit"
	"github.com/kwal/kwalctl/internal/panel"
)

// Command flags
var (
	deviceIP       string
	devicePort     int
	controllerName string
	scanTimeout    int
	saveLabel      string
	paramOverrides []string
	colorAHex      string
	colorBHex      string
	previewOnly    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&deviceIP, "device", "", "Controller IP address (skips discovery)")
	rootCmd.PersistentFlags().IntVar(&devicePort, "port", 80, "Controller HTTP port")
	rootCmd.PersistentFlags().StringVar(&controllerName, "controller", "", "Controller name (e.g. studio for kwal-studio.local)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(colorsCmd)
	rootCmd.AddCommand(brightnessCmd)
	rootCmd.AddCommand(volumeCmd)
	rootCmd.AddCommand(audioCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(restartCmd)
}

// resolveClient builds a device client from flags, the saved registry, or
// discovery, in that order. Returns the client plus the controller name
// used for display and registry updates.
func resolveClient() (*device.Client, string, error) {
	if deviceIP != "" {
		name := controllerName
		if name == "" {
			name = deviceIP
		}
		return device.NewClient(deviceIP, devicePort), name, nil
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}

	name := controllerName
	if name == "" && registry.Preferences != nil {
		name = registry.Preferences.DefaultController
	}
	if name == "" {
		name = "kwal"
	}

	if known := registry.GetController(name); known != nil && known.LastIP != "" {
		port := known.Port
		if port == 0 {
			port = 80
		}
		client := device.NewClient(known.LastIP, port)
		// Stale addresses happen when DHCP reassigns; fall through to
		// discovery only if the remembered address is dead.
		if client.Ping() == nil {
			return client, name, nil
		}
	}

	if registry.Preferences != nil && !registry.Preferences.AutoDiscover {
		return nil, "", fmt.Errorf("controller %q not reachable and auto-discovery is disabled; use --device", name)
	}

	fmt.Printf("Looking for %s on the network...\n", name)
	scanner := discovery.NewScanner()
	if registry.Preferences != nil && registry.Preferences.DiscoverTimeout > 0 {
		scanner.Timeout = time.Duration(registry.Preferences.DiscoverTimeout) * time.Second
	}
	found, err := scanner.WaitFor(name)
	if err != nil {
		return nil, "", fmt.Errorf("discovery failed: %w (use --device to specify an address)", err)
	}

	registry.UpdateLastSeen(name, found.IP, found.Port)
	if err := registry.Save(); err != nil {
		fmt.Printf("Warning: could not save controller address: %v\n", err)
	}

	return device.NewClient(found.IP, found.Port), name, nil
}

// scanCmd discovers controllers on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for kwal controllers on the network",
	Long: `Scan for kwal controllers using mDNS/DNS-SD discovery.

Controllers advertise as HTTP services with hostnames like kwal.local or
kwal-studio.local. Discovered controllers are remembered in the config
registry so later commands can skip discovery.`,
	Example: `  # Scan with the default 10 second timeout
  kwalctl scan

  # Quick 3-second scan
  kwalctl scan --timeout 3`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for kwal controllers (timeout: %ds)...\n\n", scanTimeout)

	controllers, err := discovery.Scan(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(controllers) == 0 {
		fmt.Println("No controllers found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the controller is powered on and connected to WiFi")
		fmt.Println("  - Check that you are on the same network segment")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --device flag to specify the IP manually")
		return nil
	}

	fmt.Printf("Found %d controller(s):\n\n", len(controllers))

	registry, regErr := config.LoadRegistry()
	for i, c := range controllers {
		fmt.Printf("%d. %s\n", i+1, c.Hostname)
		fmt.Printf("   Name: %s\n", c.Name)
		fmt.Printf("   IP:   %s:%d\n", c.IP, c.Port)
		if fw := c.GetMetadata("fw"); fw != "" {
			fmt.Printf("   FW:   %s\n", fw)
		}
		fmt.Println()
		if regErr == nil {
			registry.UpdateLastSeen(c.Name, c.IP, c.Port)
		}
	}
	if regErr == nil {
		if err := registry.Save(); err != nil {
			fmt.Printf("Warning: could not update config registry: %v\n", err)
		}
	}

	fmt.Println("Use 'kwalctl status --controller <name>' to check a controller")
	fmt.Println("Use 'kwalctl use <name>' to make one the default")

	return nil
}

// useCmd sets the default controller
var useCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default controller",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		registry.SetDefaultController(args[0])
		if err := registry.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Printf("Default controller set to %q\n", args[0])
		return nil
	},
}

// statusCmd shows controller health
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show controller health and component status",
	Long: `Query the controller's health endpoint and display firmware version,
per-component health, and boot status.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, name, err := resolveClient()
	if err != nil {
		return err
	}

	health, err := client.Health()
	if err != nil {
		return fmt.Errorf("failed to query health: %w", err)
	}

	fmt.Printf("Controller: %s (%s)\n", name, client.BaseURL)
	fmt.Printf("Firmware:   %s\n", health.Firmware)
	if health.RTCTempC != nil {
		fmt.Printf("RTC temp:   %.1f°C\n", *health.RTCTempC)
	}
	if health.CalendarDate != "" {
		fmt.Printf("Calendar:   %s\n", health.CalendarDate)
	}
	fmt.Printf("Timers:     %d/%d\n", health.Timers, health.MaxTimers)
	fmt.Println()

	fmt.Println("Components:")
	for i, comp := range device.ComponentNames {
		var mark, note string
		switch {
		case health.ComponentAbsent(i):
			mark, note = "·", "absent"
		case health.ComponentOK(i):
			mark, note = "✓", "ok"
		default:
			mark, note = "✗", "unhealthy"
		}
		fmt.Printf("  %s %-10s %s (boot: %s)\n", mark, comp, note, health.BootStatusString(i))
	}

	return nil
}

// patternsCmd manages light patterns
var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List and control light patterns",
	RunE:  runPatternsList,
}

func init() {
	patternsCmd.AddCommand(&cobra.Command{
		Use:   "select <id>",
		Short: "Select a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := resolveClient()
			if err != nil {
				return err
			}
			if err := client.SelectPattern(args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Pattern %s selected\n", args[0])
			return nil
		},
	})
	patternsCmd.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "Cycle to the next pattern",
		RunE:  simpleAction(func(c *device.Client) error { return c.NextPattern() }, "Next pattern"),
	})
	patternsCmd.AddCommand(&cobra.Command{
		Use:   "prev",
		Short: "Cycle to the previous pattern",
		RunE:  simpleAction(func(c *device.Client) error { return c.PrevPattern() }, "Previous pattern"),
	})
	patternsCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := resolveClient()
			if err != nil {
				return err
			}
			list, err := client.DeletePattern(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("✓ Pattern %s deleted (%d remaining)\n", args[0], len(list.Patterns))
			return nil
		},
	})
	patternsCmd.AddCommand(patternsSetCmd)
}

func runPatternsList(cmd *cobra.Command, args []string) error {
	client, _, err := resolveClient()
	if err != nil {
		return err
	}
	list, err := client.Patterns()
	if err != nil {
		return fmt.Errorf("failed to fetch patterns: %w", err)
	}

	fmt.Printf("%d pattern(s):\n\n", len(list.Patterns))
	for _, p := range list.Patterns {
		marker := " "
		if p.ID == list.ActivePattern {
			marker = "→"
		}
		fmt.Printf("%s %-10s %s\n", marker, p.ID, p.Label)
		for _, def := range device.PatternParams {
			if v, ok := p.Params[def.Key]; ok {
				fmt.Printf("    %-18s %g\n", def.Label, v)
			}
		}
	}
	return nil
}

// patternsSetCmd edits pattern parameters through an edit session, so the
// save keeps or creates an entry by the same label rule the editor uses.
var patternsSetCmd = &cobra.Command{
	Use:   "set <id>",
	Short: "Adjust pattern parameters and save or preview",
	Long: `Adjust one or more parameters of a pattern.

Saving under the pattern's existing label updates it in place; a new
--label creates a copy and leaves the original untouched. With --preview
the draft is only pushed as a speculative preview and nothing is saved.`,
	Example: `  # Speed up "Calm" in place
  kwalctl patterns set p1 --param gradient_speed=4

  # Make a tweaked copy under a new name
  kwalctl patterns set p1 --param led_hz=30 --label "Calm Fast"

  # Try parameters without saving
  kwalctl patterns set p1 --param led_hz=30 --preview`,
	Args: cobra.ExactArgs(1),
	RunE: runPatternsSet,
}

func init() {
	patternsSetCmd.Flags().StringArrayVar(&paramOverrides, "param", nil, "Parameter override key=value (repeatable)")
	patternsSetCmd.Flags().StringVar(&saveLabel, "label", "", "Label to save under (defaults to the current label)")
	patternsSetCmd.Flags().BoolVar(&previewOnly, "preview", false, "Push a speculative preview instead of saving")
}

func runPatternsSet(cmd *cobra.Command, args []string) error {
	client, _, err := resolveClient()
	if err != nil {
		return err
	}
	cache := panel.NewListCache[device.Pattern]()
	if err := cache.Load(func() ([]device.Pattern, string, error) {
		list, err := client.Patterns()
		if err != nil {
			return nil, "", err
		}
		return list.Patterns, list.ActivePattern, nil
	}); err != nil {
		return fmt.Errorf("failed to fetch patterns: %w", err)
	}
	target, ok := cache.Get(args[0])
	if !ok {
		return fmt.Errorf("pattern %q not found", args[0])
	}

	session := edit.NewSession[device.Pattern]("pattern", edit.Hooks[device.Pattern]{
		Save: func(id, label string, draft device.Pattern) error {
			return client.SavePattern(device.PatternSave{
				ID:     id,
				Label:  label,
				Params: draft.Params,
				Select: true,
			})
		},
		Select: client.SelectPattern,
	})
	// A pushed list replacement means ids may have shifted under the
	// edit; the cache drops the session in that case.
	cache.OnDiscard(session.Discard)
	session.BeginEdit(target)

	for _, override := range paramOverrides {
		key, value, ok := strings.Cut(override, "=")
		if !ok {
			return fmt.Errorf("invalid --param %q (want key=value)", override)
		}
		def, found := device.ParamByKey(key)
		if !found {
			return fmt.Errorf("unknown parameter %q", key)
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		clamped := def.Clamp(v)
		session.UpdateDraft(func(p *device.Pattern) {
			if p.Params == nil {
				p.Params = make(map[string]float64)
			}
			p.Params[def.Key] = clamped
		})
	}

	draft, _ := session.Draft()

	if previewOnly {
		client.PreviewPattern(draft.Params)
		fmt.Println("Preview pushed (not saved)")
		return nil
	}

	label := saveLabel
	if label == "" {
		label = target.Label
	}
	if err := session.Save(label); err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	if label == target.Label {
		fmt.Printf("✓ Pattern %q updated\n", label)
	} else {
		fmt.Printf("✓ Saved as new pattern %q\n", label)
	}
	return nil
}

// colorsCmd manages color sets
var colorsCmd = &cobra.Command{
	Use:   "colors",
	Short: "List and control color sets",
	RunE:  runColorsList,
}

func init() {
	colorsCmd.AddCommand(&cobra.Command{
		Use:   "select <id>",
		Short: "Select a color set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := resolveClient()
			if err != nil {
				return err
			}
			if err := client.SelectColor(args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Color set %s selected\n", args[0])
			return nil
		},
	})
	colorsCmd.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "Cycle to the next color set",
		RunE:  simpleAction(func(c *device.Client) error { return c.NextColor() }, "Next color set"),
	})
	colorsCmd.AddCommand(&cobra.Command{
		Use:   "prev",
		Short: "Cycle to the previous color set",
		RunE:  simpleAction(func(c *device.Client) error { return c.PrevColor() }, "Previous color set"),
	})
	colorsCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved color set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := resolveClient()
			if err != nil {
				return err
			}
			list, err := client.DeleteColor(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("✓ Color set %s deleted (%d remaining)\n", args[0], len(list.Colors))
			return nil
		},
	})
	colorsCmd.AddCommand(colorsSetCmd)
}

func runColorsList(cmd *cobra.Command, args []string) error {
	client, _, err := resolveClient()
	if err != nil {
		return err
	}
	list, err := client.Colors()
	if err != nil {
		return fmt.Errorf("failed to fetch colors: %w", err)
	}

	fmt.Printf("%d color set(s):\n\n", len(list.Colors))
	for _, c := range list.Colors {
		marker := " "
		if c.ID == list.ActiveColor {
			marker = "→"
		}
		fmt.Printf("%s %-10s %-20s %s %s\n", marker, c.ID, c.Label, c.ColorAHex, c.ColorBHex)
	}
	return nil
}

// colorsSetCmd edits a color pair through an edit session, with the same
// label rule as patterns set: keep the label to update in place, change
// it to save a copy.
var colorsSetCmd = &cobra.Command{
	Use:   "set <id>",
	Short: "Adjust a color set's pair and save or preview",
	Long: `Adjust one or both colors of a color set.

Saving under the set's existing label updates it in place; a new --label
creates a copy and leaves the original untouched. With --preview the
draft is only pushed as a speculative preview and nothing is saved.`,
	Example: `  # Warm up "Sunset" in place
  kwalctl colors set c1 --a '#ff4500'

  # Make a tweaked copy under a new name
  kwalctl colors set c1 --b '#00ced1' --label "Sunset Teal"

  # Try a pair without saving
  kwalctl colors set c1 --a '#ff4500' --b '#2e0854' --preview`,
	Args: cobra.ExactArgs(1),
	RunE: runColorsSet,
}

func init() {
	colorsSetCmd.Flags().StringVar(&colorAHex, "a", "", "First gradient color (#rrggbb)")
	colorsSetCmd.Flags().StringVar(&colorBHex, "b", "", "Second gradient color (#rrggbb)")
	colorsSetCmd.Flags().StringVar(&saveLabel, "label", "", "Label to save under (defaults to the current label)")
	colorsSetCmd.Flags().BoolVar(&previewOnly, "preview", false, "Push a speculative preview instead of saving")
}

func runColorsSet(cmd *cobra.Command, args []string) error {
	client, _, err := resolveClient()
	if err != nil {
		return err
	}
	cache := panel.NewListCache[device.ColorSet]()
	if err := cache.Load(func() ([]device.ColorSet, string, error) {
		list, err := client.Colors()
		if err != nil {
			return nil, "", err
		}
		return list.Colors, list.ActiveColor, nil
	}); err != nil {
		return fmt.Errorf("failed to fetch colors: %w", err)
	}
	target, ok := cache.Get(args[0])
	if !ok {
		return fmt.Errorf("color set %q not found", args[0])
	}

	session := edit.NewSession[device.ColorSet]("colors", edit.Hooks[device.ColorSet]{
		Save: func(id, label string, draft device.ColorSet) error {
			return client.SaveColors(device.ColorSave{
				ID:        id,
				Label:     label,
				ColorAHex: draft.ColorAHex,
				ColorBHex: draft.ColorBHex,
				Select:    true,
			})
		},
		Select: client.SelectColor,
	})
	// A pushed list replacement means ids may have shifted under the
	// edit; the cache drops the session in that case.
	cache.OnDiscard(session.Discard)
	session.BeginEdit(target)

	if colorAHex != "" {
		hex, err := parseHexColor(colorAHex)
		if err != nil {
			return fmt.Errorf("invalid --a: %w", err)
		}
		session.UpdateDraft(func(c *device.ColorSet) { c.ColorAHex = hex })
	}
	if colorBHex != "" {
		hex, err := parseHexColor(colorBHex)
		if err != nil {
			return fmt.Errorf("invalid --b: %w", err)
		}
		session.UpdateDraft(func(c *device.ColorSet) { c.ColorBHex = hex })
	}

	draft, _ := session.Draft()

	if previewOnly {
		client.PreviewColors(draft.ColorAHex, draft.ColorBHex)
		fmt.Println("Preview pushed (not saved)")
		return nil
	}

	label := saveLabel
	if label == "" {
		label = target.Label
	}
	if err := session.Save(label); err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	if label == target.Label {
		fmt.Printf("✓ Color set %q updated\n", label)
	} else {
		fmt.Printf("✓ Saved as new color set %q\n", label)
	}
	return nil
}

// brightnessCmd sets the light level
var brightnessCmd = &cobra.Command{
	Use:   "brightness <pct>",
	Short: "Set brightness (0-100)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pct, err := parsePct(args[0])
		if err != nil {
			return err
		}
		client, _, err := resolveClient()
		if err != nil {
			return err
		}
		if err := client.SetBrightness(pct); err != nil {
			return err
		}
		fmt.Printf("✓ Brightness set to %d%%\n", pct)
		return nil
	},
}

// volumeCmd sets the audio level
var volumeCmd = &cobra.Command{
	Use:   "volume <pct>",
	Short: "Set audio volume (0-100)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pct, err := parsePct(args[0])
		if err != nil {
			return err
		}
		client, _, err := resolveClient()
		if err != nil {
			return err
		}
		if err := client.SetAudioLevel(pct); err != nil {
			return err
		}
		fmt.Printf("✓ Volume set to %d%%\n", pct)
		return nil
	},
}

// audioCmd controls fragment playback
var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Control audio fragment playback",
}

func init() {
	audioCmd.AddCommand(&cobra.Command{
		Use:   "next",
		Short: "Skip to the next fragment",
		RunE:  simpleAction(func(c *device.Client) error { return c.NextFragment() }, "Next fragment"),
	})
	audioCmd.AddCommand(&cobra.Command{
		Use:   "play <dir> <file>",
		Short: "Play a specific fragment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid dir: %w", err)
			}
			file, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid file: %w", err)
			}
			client, _, err := resolveClient()
			if err != nil {
				return err
			}
			if err := client.PlayFragment(dir, file); err != nil {
				return err
			}
			fmt.Printf("✓ Playing fragment %d/%d\n", dir, file)
			return nil
		},
	})
}

// voteCmd adjusts the playing fragment's score
var voteCmd = &cobra.Command{
	Use:   "vote <up|down>",
	Short: "Vote on the currently playing fragment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var delta int
		switch args[0] {
		case "up":
			delta = 1
		case "down":
			delta = -1
		default:
			return fmt.Errorf("vote takes 'up' or 'down', got %q", args[0])
		}
		client, _, err := resolveClient()
		if err != nil {
			return err
		}
		if err := client.Vote(delta); err != nil {
			return err
		}
		fmt.Printf("✓ Voted %s\n", args[0])
		return nil
	},
}

// restartCmd reboots the controller
var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the controller",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := resolveClient()
		if err != nil {
			return err
		}
		if err := client.Restart(); err != nil {
			return err
		}
		fmt.Println("✓ Restart requested; the controller will be back in a few seconds")
		return nil
	},
}

// simpleAction wraps a no-argument device write into a RunE.
func simpleAction(fn func(*device.Client) error, doneMsg string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		client, _, err := resolveClient()
		if err != nil {
			return err
		}
		if err := fn(client); err != nil {
			return err
		}
		fmt.Printf("✓ %s\n", doneMsg)
		return nil
	}
}

// parseHexColor normalizes a gradient color to "#rrggbb" form.
func parseHexColor(s string) (string, error) {
	hex := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "#")
	if len(hex) != 6 {
		return "", fmt.Errorf("color %q must be 6 hex digits", s)
	}
	for _, r := range hex {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", fmt.Errorf("color %q must be 6 hex digits", s)
		}
	}
	return "#" + hex, nil
}

func parsePct(s string) (int, error) {
	pct, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q: %w", s, err)
	}
	if pct < 0 || pct > 100 {
		return 0, fmt.Errorf("percentage must be 0-100, got %d", pct)
	}
	return pct, nil
}
