// Package config manages the kwalctl user configuration file.
//
// A YAML registry stores known controllers (nickname, last seen address)
// and application preferences such as the default controller, the
// reconnect poll interval, and the preview debounce delay. Stored in
// platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/kwalctl/config.yaml or $HOME/.config/kwalctl/config.yaml
//   - macOS: $HOME/.config/kwalctl/config.yaml
//   - Windows: %LOCALAPPDATA%\kwalctl\config.yaml
//
// The global registry uses sync.Once for safe initialization; file writes
// go through a temp-file rename so a crash cannot corrupt the registry.
package config
