package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/hivenet/teachhanna/internal/exclude"
	"github.com/hivenet/teachhanna/internal/model"
)

// recordingProcessor captures every input it receives.
type recordingProcessor struct {
	mu     sync.Mutex
	inputs []model.RawInput
	status model.DeliveryStatus
}

func (p *recordingProcessor) ProcessItem(ctx context.Context, in model.RawInput) model.ItemResult {
	p.mu.Lock()
	p.inputs = append(p.inputs, in)
	p.mu.Unlock()

	status := p.status
	if status == "" {
		status = model.StatusDelivered
	}
	return model.ItemResult{Ref: in.Ref(), Status: status, Stage: model.StageDeliver, Attempts: 1}
}

func (p *recordingProcessor) seen() []model.RawInput {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.RawInput, len(p.inputs))
	copy(out, p.inputs)
	return out
}

func exclusionList(t *testing.T, artifact string) *exclude.List {
	t.Helper()
	path := filepath.Join(t.TempDir(), "excluded_domains.json")
	if err := os.WriteFile(path, []byte(artifact), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	l, err := exclude.Load(path)
	if err != nil {
		t.Fatalf("load exclusions: %v", err)
	}
	return l
}

func TestDispatcher_ExcludedItemsShortCircuit(t *testing.T) {
	excl := exclusionList(t, `[{"domain": "blocked.com"}]`)
	proc := &recordingProcessor{}
	d := NewDispatcher(excl, proc, nil, 2)

	items := []model.RawInput{
		{URL: "https://example.com/a", SourceType: model.SourceWeb},
		{URL: "https://blocked.com/b", SourceType: model.SourceWeb},
		{URL: "https://sub.blocked.com/c", SourceType: model.SourceWeb},
		{Text: "a manual fact", SourceType: model.SourceManual},
	}

	summary := d.Run(context.Background(), items, nil, nil)

	if summary.Total != 4 {
		t.Errorf("expected 4 items, got %d", summary.Total)
	}
	if summary.SkippedExcluded != 2 {
		t.Errorf("expected 2 excluded, got %d", summary.SkippedExcluded)
	}
	if summary.Delivered != 2 {
		t.Errorf("expected 2 delivered, got %d", summary.Delivered)
	}

	// Conservation: excluded items never reach the processor.
	if got := len(proc.seen()); got != 2 {
		t.Errorf("expected 2 processor invocations, got %d", got)
	}
}

func TestDispatcher_SharedTagsMerged(t *testing.T) {
	excl, err := exclude.Load("")
	if err != nil {
		t.Fatalf("load exclusions: %v", err)
	}
	proc := &recordingProcessor{}
	d := NewDispatcher(excl, proc, nil, 1)

	items := []model.RawInput{
		{Text: "fact one", SourceType: model.SourceManual, Tags: []string{"own"}},
	}
	summary := d.Run(context.Background(), items, []string{"batch"}, []string{"Entity"})

	if summary.Delivered != 1 {
		t.Fatalf("expected 1 delivered, got %d", summary.Delivered)
	}

	seen := proc.seen()
	if len(seen) != 1 {
		t.Fatalf("expected 1 processed input, got %d", len(seen))
	}
	tags := append([]string{}, seen[0].Tags...)
	sort.Strings(tags)
	if len(tags) != 2 || tags[0] != "batch" || tags[1] != "own" {
		t.Errorf("expected union of item and batch tags, got %v", seen[0].Tags)
	}
	if len(seen[0].RelatedEntities) != 1 || seen[0].RelatedEntities[0] != "Entity" {
		t.Errorf("expected batch entities merged, got %v", seen[0].RelatedEntities)
	}
}

func TestDispatcher_ItemFailuresDoNotAbort(t *testing.T) {
	excl, _ := exclude.Load("")
	proc := &recordingProcessor{status: model.StatusFailedPermanent}
	d := NewDispatcher(excl, proc, nil, 3)

	items := make([]model.RawInput, 5)
	for i := range items {
		items[i] = model.RawInput{Text: "fact", SourceType: model.SourceManual}
	}

	summary := d.Run(context.Background(), items, nil, nil)
	if summary.Total != 5 {
		t.Errorf("expected all 5 items processed, got %d", summary.Total)
	}
	if summary.FailedPermanent != 5 {
		t.Errorf("expected 5 permanent failures, got %d", summary.FailedPermanent)
	}
	if summary.Failed() != 5 {
		t.Errorf("expected Failed()=5, got %d", summary.Failed())
	}
}

func TestDispatcher_LargeBatchCompletes(t *testing.T) {
	excl, _ := exclude.Load("")
	proc := &recordingProcessor{}
	d := NewDispatcher(excl, proc, nil, 1)

	// Far more items than the pool's channel buffers hold; submission must
	// not block on result collection.
	items := make([]model.RawInput, 40)
	for i := range items {
		items[i] = model.RawInput{Text: fmt.Sprintf("fact %d", i), SourceType: model.SourceManual}
	}

	done := make(chan model.BatchSummary, 1)
	go func() {
		done <- d.Run(context.Background(), items, nil, nil)
	}()

	select {
	case summary := <-done:
		if summary.Total != 40 || summary.Delivered != 40 {
			t.Errorf("expected all 40 delivered, got %s", summary.String())
		}
	case <-time.After(10 * time.Second):
		t.Fatal("batch run did not complete")
	}
}

func TestDispatcher_EmptyBatch(t *testing.T) {
	excl, _ := exclude.Load("")
	d := NewDispatcher(excl, &recordingProcessor{}, nil, 2)

	summary := d.Run(context.Background(), nil, nil, nil)
	if summary.Total != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
}

func TestReadURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := "https://example.com/a\n# comment\n\nhttps://example.com/b\nhttps://example.com/a\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	urls, err := ReadURLs(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"https://example.com/a", "https://example.com/b"}
	if len(urls) != len(want) || urls[0] != want[0] || urls[1] != want[1] {
		t.Errorf("expected %v, got %v", want, urls)
	}
}
