package bridge

import (
	"sync"
	"testing"
)

func TestCancelFiresListenersOnce(t *testing.T) {
	signal := NewCancelSignal()
	count := 0
	signal.OnCancel(func() { count++ })

	signal.Cancel()
	signal.Cancel()
	signal.Cancel()

	if count != 1 {
		t.Errorf("expected listener fired once, got %d", count)
	}
	if !signal.Cancelled() {
		t.Error("expected Cancelled() true after Cancel")
	}
}

func TestCancelLateListenerRunsImmediately(t *testing.T) {
	signal := NewCancelSignal()
	signal.Cancel()

	ran := false
	signal.OnCancel(func() { ran = true })

	if !ran {
		t.Error("expected listener registered after firing to run immediately")
	}
}

func TestCancelMultipleListeners(t *testing.T) {
	signal := NewCancelSignal()
	var order []int
	signal.OnCancel(func() { order = append(order, 1) })
	signal.OnCancel(func() { order = append(order, 2) })

	signal.Cancel()

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("expected listeners run in registration order, got %v", order)
	}
}

func TestCancelConcurrent(t *testing.T) {
	signal := NewCancelSignal()
	var mu sync.Mutex
	count := 0
	signal.OnCancel(func() {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			signal.Cancel()
		}()
	}
	wg.Wait()

	if count != 1 {
		t.Errorf("expected one firing across concurrent cancels, got %d", count)
	}
}

func TestCancelUnfired(t *testing.T) {
	signal := NewCancelSignal()
	if signal.Cancelled() {
		t.Error("expected Cancelled() false before Cancel")
	}
}
