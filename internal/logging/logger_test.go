package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func readLog(t *testing.T, dir string, cat Category) string {
	t.Helper()
	date := time.Now().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(dir, ".medstore", "logs", date+"_"+string(cat)+".log"))
	if err != nil {
		t.Fatalf("reading %s log: %v", cat, err)
	}
	return string(data)
}

func TestAllCategoriesLog(t *testing.T) {
	tempDir := t.TempDir()
	defer CloseAll()

	if err := Initialize(tempDir, Options{DebugMode: true, Level: "debug"}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	categories := []Category{
		CategoryBoot, CategoryCatalog, CategoryCart, CategoryCheckout,
		CategoryAPI, CategoryStore, CategoryPayment, CategoryUI,
	}
	for _, cat := range categories {
		Get(cat).Info("hello from %s", cat)
	}
	CloseAll()

	for _, cat := range categories {
		content := readLog(t, tempDir, cat)
		if !strings.Contains(content, "hello from "+string(cat)) {
			t.Errorf("category %s: message missing from log, got %q", cat, content)
		}
	}
}

func TestInitializeConcurrentWithGet(t *testing.T) {
	tempDir := t.TempDir()
	defer CloseAll()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := Initialize(tempDir, Options{DebugMode: true}); err != nil {
				t.Errorf("Initialize failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			CartDebug("concurrent")
			Get(CategoryCatalog).Info("concurrent")
		}()
	}
	wg.Wait()
}

func TestProductionModeWritesNothing(t *testing.T) {
	tempDir := t.TempDir()
	defer CloseAll()

	if err := Initialize(tempDir, Options{DebugMode: false}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	Cart("should not be written")

	if _, err := os.Stat(filepath.Join(tempDir, ".medstore", "logs")); !os.IsNotExist(err) {
		t.Errorf("expected no logs directory in production mode, stat err=%v", err)
	}
}

func TestCategoryFilter(t *testing.T) {
	tempDir := t.TempDir()
	defer CloseAll()

	err := Initialize(tempDir, Options{
		DebugMode:  true,
		Categories: map[string]bool{"api": false},
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if IsCategoryEnabled(CategoryAPI) {
		t.Error("api category should be disabled")
	}
	if !IsCategoryEnabled(CategoryCart) {
		t.Error("unlisted categories should default to enabled")
	}

	// No-op logger must be safe to use
	Get(CategoryAPI).With("k", "v").Error("ignored %d", 1)
}

func TestLevelFiltering(t *testing.T) {
	tempDir := t.TempDir()
	defer CloseAll()

	if err := Initialize(tempDir, Options{DebugMode: true, Level: "warn"}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	StoreDebug("debug line")
	StoreWarn("warn line")
	CloseAll()

	content := readLog(t, tempDir, CategoryStore)
	if strings.Contains(content, "debug line") {
		t.Error("debug line should be filtered at warn level")
	}
	if !strings.Contains(content, "warn line") {
		t.Error("warn line missing")
	}
}

func TestJSONFormat(t *testing.T) {
	tempDir := t.TempDir()
	defer CloseAll()

	if err := Initialize(tempDir, Options{DebugMode: true, JSONFormat: true}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	Get(CategoryCheckout).With("order_id", "42").Info("order created")
	CloseAll()

	content := readLog(t, tempDir, CategoryCheckout)
	if !strings.Contains(content, `"order_id":"42"`) {
		t.Errorf("expected structured field in JSON output, got %q", content)
	}
	if !strings.Contains(content, `"cat":"checkout"`) {
		t.Errorf("expected category field in JSON output, got %q", content)
	}
}

func TestInitializeRequiresWorkspace(t *testing.T) {
	if err := Initialize("", Options{}); err == nil {
		t.Error("expected error for empty workspace")
	}
}

func TestTimer(t *testing.T) {
	timer := StartTimer(CategoryCatalog, "op")
	if d := timer.StopWithThreshold(time.Hour); d < 0 {
		t.Errorf("unexpected negative duration %v", d)
	}
}
