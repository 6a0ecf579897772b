package nav

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/knowyourrights/kyr/internal/fileutil"
)

// DefaultDebounce is the delay before an external write is applied.
const DefaultDebounce = 100 * time.Millisecond

// locationFile is the on-disk form of the mirrored location.
type locationFile struct {
	Location  string    `yaml:"location"`
	UpdatedAt time.Time `yaml:"updated_at"`
	PID       int       `yaml:"pid,omitempty"`
}

// ReadLocation loads a location previously saved with WriteLocation.
func ReadLocation(path string) (Location, error) {
	var f locationFile
	if err := fileutil.ReadYAML(path, &f); err != nil {
		return Location{}, err
	}
	if f.Location == "" {
		return Location{}, fmt.Errorf("%s: no location", path)
	}
	return ParseLocation(f.Location)
}

// WriteLocation atomically saves loc to path.
func WriteLocation(path string, loc Location) error {
	return fileutil.WriteYAMLAtomic(path, locationFile{
		Location:  loc.String(),
		UpdatedAt: time.Now().UTC(),
		PID:       os.Getpid(),
	}, 0o644)
}

// FileSync mirrors a Navigator to a YAML file and follows external edits of
// that file. Every navigator change is written out; a write by another
// process that names a different location is applied with Navigate.
type FileSync struct {
	path     string
	nav      *Navigator
	logger   *slog.Logger
	debounce time.Duration

	watcher     *fsnotify.Watcher
	unsubscribe func()

	mu    sync.Mutex
	last  string
	timer *time.Timer

	done    chan struct{}
	stopped chan struct{}
}

// NewFileSync creates a sync for path. Call Start to begin.
func NewFileSync(path string, n *Navigator, logger *slog.Logger) *FileSync {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileSync{
		path:     filepath.Clean(path),
		nav:      n,
		logger:   logger,
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// SetDebounceDelay must be called before Start.
func (s *FileSync) SetDebounceDelay(d time.Duration) {
	s.debounce = d
}

// Start writes the current location and begins watching the file.
func (s *FileSync) Start() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("location sync: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("location sync: %w", err)
	}
	// Watch the directory; atomic renames replace the file's inode.
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("location sync: watch %s: %w", dir, err)
	}
	s.watcher = watcher

	s.persist(s.nav.Current())
	s.unsubscribe = s.nav.OnChange(func(c Change) { s.persist(c.Location) })

	go s.eventLoop()
	return nil
}

// Close stops watching. Pending debounced events are dropped.
func (s *FileSync) Close() error {
	if s.watcher == nil {
		return nil
	}
	s.unsubscribe()
	close(s.done)
	err := s.watcher.Close()
	<-s.stopped

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return err
}

func (s *FileSync) persist(loc Location) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enc := loc.String()
	if enc == s.last {
		return
	}
	s.last = enc
	if err := WriteLocation(s.path, loc); err != nil {
		s.logger.Warn("Failed to save location", "path", s.path, "error", err)
	}
}

func (s *FileSync) eventLoop() {
	defer close(s.stopped)

	for {
		select {
		case <-s.done:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			s.mu.Lock()
			if s.timer != nil {
				s.timer.Stop()
			}
			s.timer = time.AfterFunc(s.debounce, s.apply)
			s.mu.Unlock()

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("Location watcher error", "error", err)
		}
	}
}

// apply reads the file and navigates if it names a new location.
func (s *FileSync) apply() {
	select {
	case <-s.done:
		return
	default:
	}

	loc, err := ReadLocation(s.path)
	if err != nil {
		s.logger.Debug("Ignoring unreadable location file", "path", s.path, "error", err)
		return
	}

	enc := loc.String()
	s.mu.Lock()
	s.timer = nil
	if enc == s.last {
		s.mu.Unlock()
		return
	}
	s.last = enc
	s.mu.Unlock()

	if s.nav.Current().Equal(loc) {
		return
	}
	s.logger.Info("Following external navigation", "location", enc)
	s.nav.Navigate(loc)
}
