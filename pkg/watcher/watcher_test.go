package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer(t *testing.T) {
	t.Run("coalesces a burst", func(t *testing.T) {
		d := NewDebouncer(50 * time.Millisecond)
		var calls atomic.Int32
		for i := 0; i < 10; i++ {
			d.Trigger(func() { calls.Add(1) })
			time.Sleep(10 * time.Millisecond)
		}
		time.Sleep(150 * time.Millisecond)
		if n := calls.Load(); n != 1 {
			t.Errorf("expected 1 call, got %d", n)
		}
	})

	t.Run("cancel drops the pending call", func(t *testing.T) {
		d := NewDebouncer(50 * time.Millisecond)
		var called atomic.Bool
		d.Trigger(func() { called.Store(true) })
		d.Cancel()
		time.Sleep(100 * time.Millisecond)
		if called.Load() {
			t.Error("cancelled callback ran")
		}
	})

	t.Run("zero selects the default", func(t *testing.T) {
		if got := NewDebouncer(0).Duration(); got != DefaultDebounceDuration {
			t.Errorf("got %v, want %v", got, DefaultDebounceDuration)
		}
	})
}

// datasetFiles writes the four dataset files, the alcohol one in a sibling
// directory, and returns them in load order.
func datasetFiles(t *testing.T) []string {
	t.Helper()
	root := t.TempDir()
	extra := filepath.Join(root, "alcohol")
	if err := os.Mkdir(extra, 0o755); err != nil {
		t.Fatal(err)
	}
	paths := []string{
		filepath.Join(root, "MentalDisorder_Age.csv"),
		filepath.Join(root, "gdp_ppp_per_capita.csv"),
		filepath.Join(root, "country_population.csv"),
		filepath.Join(extra, "Alcohol_GDP.csv"),
	}
	for _, p := range paths {
		writeCSV(t, p, "Country Name,Code\n")
	}
	return paths
}

func writeCSV(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

type batches struct {
	mu  sync.Mutex
	got [][]string
}

func (b *batches) record(paths []string) {
	b.mu.Lock()
	b.got = append(b.got, paths)
	b.mu.Unlock()
}

func (b *batches) all() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.got)
}

// startWatcher starts a watcher over paths and stops it at cleanup.
func startWatcher(t *testing.T, paths []string, opts ...WatcherOption) *Watcher {
	t.Helper()
	w, err := NewWatcher(paths, opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestNewWatcher_Paths(t *testing.T) {
	if _, err := NewWatcher([]string{"", "  "}); !errors.Is(err, ErrNoPaths) {
		t.Errorf("expected ErrNoPaths, got %v", err)
	}

	paths := datasetFiles(t)
	w, err := NewWatcher(append(paths, paths[1], paths[0]))
	if err != nil {
		t.Fatal(err)
	}
	got := w.Paths()
	if len(got) != 4 || !slices.IsSorted(got) {
		t.Errorf("expected 4 sorted unique paths, got %v", got)
	}
}

func TestWatcher_ReportsChangedDataset(t *testing.T) {
	paths := datasetFiles(t)
	rec := &batches{}
	startWatcher(t, paths, WithDebounceDuration(50*time.Millisecond), WithOnChange(rec.record))

	time.Sleep(100 * time.Millisecond)
	writeCSV(t, paths[3], "Country,Code,Year\n")
	time.Sleep(300 * time.Millisecond)

	got := rec.all()
	if len(got) == 0 || !slices.Equal(got[len(got)-1], []string{paths[3]}) {
		t.Errorf("expected a batch with %s, got %v", paths[3], got)
	}
}

func TestWatcher_BatchesBurst(t *testing.T) {
	paths := datasetFiles(t)
	rec := &batches{}
	startWatcher(t, paths,
		WithDebounceDuration(150*time.Millisecond),
		WithPollInterval(30*time.Millisecond),
		WithForcePoll(true),
		WithOnChange(rec.record),
	)

	time.Sleep(50 * time.Millisecond)
	writeCSV(t, paths[1], "Country Name,Code,2014\nNorway,NOR,65000\n")
	writeCSV(t, paths[2], "Country Name,Code,2014\nNorway,NOR,5137000\n")
	time.Sleep(500 * time.Millisecond)

	got := rec.all()
	if len(got) != 1 {
		t.Fatalf("expected one batch for the burst, got %v", got)
	}
	want := []string{paths[1], paths[2]}
	slices.Sort(want)
	if !slices.Equal(got[0], want) {
		t.Errorf("batch = %v, want %v", got[0], want)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	paths := datasetFiles(t)
	rec := &batches{}
	startWatcher(t, paths[:1], WithDebounceDuration(30*time.Millisecond), WithOnChange(rec.record))

	time.Sleep(100 * time.Millisecond)
	writeCSV(t, filepath.Join(filepath.Dir(paths[0]), "notes.txt"), "x")
	time.Sleep(200 * time.Millisecond)

	if got := rec.all(); len(got) != 0 {
		t.Errorf("unexpected change notification %v", got)
	}
}

func TestWatcher_ChangedChannel(t *testing.T) {
	paths := datasetFiles(t)
	w := startWatcher(t, paths,
		WithDebounceDuration(50*time.Millisecond),
		WithPollInterval(100*time.Millisecond),
		WithForcePoll(true),
	)
	if !w.IsPolling() {
		t.Error("expected polling mode")
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(paths[0], []byte("Country,Code,Year,Age Group,Schizophrenia\n"), 0o644)
	}()

	select {
	case got := <-w.Changed():
		if !slices.Equal(got, paths[:1]) {
			t.Errorf("expected [%s], got %v", paths[0], got)
		}
	case <-time.After(time.Second):
		t.Error("timeout waiting for change notification")
	}
}

func TestWatcher_EnvForcePoll(t *testing.T) {
	t.Setenv(ForcePollEnvVar, "yes")
	w := startWatcher(t, datasetFiles(t), WithPollInterval(25*time.Millisecond))
	if !w.IsPolling() {
		t.Fatalf("expected polling mode when %s is set", ForcePollEnvVar)
	}
}

func TestWatcher_DatasetRemoved(t *testing.T) {
	paths := datasetFiles(t)
	var removed atomic.Bool
	startWatcher(t, paths,
		WithPollInterval(50*time.Millisecond),
		WithForcePoll(true),
		WithOnError(func(err error) {
			if errors.Is(err, ErrFileRemoved) {
				removed.Store(true)
			}
		}),
	)

	time.Sleep(80 * time.Millisecond)
	if err := os.Remove(paths[2]); err != nil {
		t.Fatal(err)
	}
	time.Sleep(250 * time.Millisecond)

	if !removed.Load() {
		t.Error("expected ErrFileRemoved")
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w, err := NewWatcher(datasetFiles(t))
	if err != nil {
		t.Fatal(err)
	}
	if w.IsStarted() {
		t.Error("watcher should not be started initially")
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
	w.Stop()
	if w.IsStarted() {
		t.Error("watcher should be stopped")
	}
	w.Stop()
}

func TestEnvBool(t *testing.T) {
	for value, want := range map[string]bool{
		"1": true, "true": true, "TRUE": true, "yes": true, "y": true, "on": true,
		"0": false, "false": false, "": false, "invalid": false,
	} {
		t.Setenv("MHV_TEST_ENV_BOOL", value)
		if got := envBool("MHV_TEST_ENV_BOOL"); got != want {
			t.Errorf("envBool(%q) = %v, want %v", value, got, want)
		}
	}
}
