package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ChangeHandler is notified whenever the repo-local config file changes on
// disk and is successfully re-parsed.
type ChangeHandler func(cfg Config)

// Watcher hot-reloads the repo-local config file for the `chat` REPL,
// grounded on the teacher's pkg/config.Watcher (viper.WatchConfig plus a
// registered-handler broadcast).
type Watcher struct {
	mu             sync.RWMutex
	userGlobalPath string
	repoLocalPath  string
	current        Config
	handlers       []ChangeHandler
	v              *viper.Viper
}

// NewWatcher loads the initial configuration and prepares a Watcher that
// can later be started to react to changes in repoLocalPath.
func NewWatcher(userGlobalPath, repoLocalPath string) (*Watcher, error) {
	cfg, err := Load(userGlobalPath, repoLocalPath)
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(repoLocalPath)

	return &Watcher{
		userGlobalPath: userGlobalPath,
		repoLocalPath:  repoLocalPath,
		current:        cfg,
		v:              v,
	}, nil
}

// AddHandler registers a callback invoked after every successful reload.
func (w *Watcher) AddHandler(h ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Start begins watching the repo-local config file for changes. Reload
// failures are ignored; the previously loaded configuration stays in
// effect, matching the teacher's "bad edit doesn't crash the watcher"
// behavior.
func (w *Watcher) Start() {
	w.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := Load(w.userGlobalPath, w.repoLocalPath)
		if err != nil {
			return
		}
		w.mu.Lock()
		w.current = cfg
		handlers := append([]ChangeHandler(nil), w.handlers...)
		w.mu.Unlock()
		for _, h := range handlers {
			h(cfg)
		}
	})
	w.v.WatchConfig()
}

// GetConfig returns the most recently loaded configuration.
func (w *Watcher) GetConfig() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}
