package eventstate

import (
	"testing"

	"motiond/internal/detector"
	"motiond/internal/event"
	"motiond/internal/frame"
)

func seqFrame(seq uint64) *frame.Frame {
	f := frame.New(4, 4)
	f.Seq = seq
	return f
}

func countKind(calls []event.Call, k event.Kind) int {
	n := 0
	for _, c := range calls {
		if c.Kind == k {
			n++
		}
	}
	return n
}

func TestHappyPathFiresFirstMotionOnceAndEndMotionWithSameEventID(t *testing.T) {
	cfg := Config{MinimumMotionFrames: 2, EventGap: 5, PreCapture: 3}
	m := New("cam0", cfg)

	var allCalls []event.Call
	for seq := uint64(1); seq <= 100; seq++ {
		motion := seq >= 40 && seq <= 60
		v := detector.Verdict{Motion: motion}
		allCalls = append(allCalls, m.Tick(seqFrame(seq), v, false)...)
	}
	// Drain the gap.
	for i := 0; i < cfg.EventGap+1; i++ {
		allCalls = append(allCalls, m.Tick(seqFrame(100+uint64(i)), detector.Verdict{Motion: false}, false)...)
	}

	if countKind(allCalls, event.FirstMotion) != 1 {
		t.Fatalf("expected exactly one FirstMotion, got %d", countKind(allCalls, event.FirstMotion))
	}
	if countKind(allCalls, event.EndMotion) != 1 {
		t.Fatalf("expected exactly one EndMotion, got %d", countKind(allCalls, event.EndMotion))
	}

	var firstID, endID uint64
	for _, c := range allCalls {
		if c.Kind == event.FirstMotion {
			firstID = c.EventID
		}
		if c.Kind == event.EndMotion {
			endID = c.EventID
		}
	}
	if firstID == 0 || firstID != endID {
		t.Fatalf("expected matching non-zero event_id, got first=%d end=%d", firstID, endID)
	}
}

func TestMinimumMotionFramesZeroSkipsArming(t *testing.T) {
	cfg := Config{MinimumMotionFrames: 0, EventGap: 1, PreCapture: 0}
	m := New("cam0", cfg)
	calls := m.Tick(seqFrame(1), detector.Verdict{Motion: true}, false)
	if countKind(calls, event.FirstMotion) != 1 {
		t.Fatalf("expected FirstMotion on the very first motion frame, got %d", countKind(calls, event.FirstMotion))
	}
}

func TestEventGapZeroEndsEventImmediately(t *testing.T) {
	cfg := Config{MinimumMotionFrames: 1, EventGap: 0, PreCapture: 0}
	m := New("cam0", cfg)
	m.Tick(seqFrame(1), detector.Verdict{Motion: true}, false)
	calls := m.Tick(seqFrame(2), detector.Verdict{Motion: false}, false)
	if countKind(calls, event.EndMotion) != 1 {
		t.Fatalf("expected immediate EndMotion when event_gap=0, got %d", countKind(calls, event.EndMotion))
	}
}

func TestArmingDropsBackToIdleOnNonMotionFrame(t *testing.T) {
	cfg := Config{MinimumMotionFrames: 3, EventGap: 2, PreCapture: 0}
	m := New("cam0", cfg)
	m.Tick(seqFrame(1), detector.Verdict{Motion: true}, false)
	calls := m.Tick(seqFrame(2), detector.Verdict{Motion: false}, false)
	if len(calls) != 0 {
		t.Fatalf("expected no calls when arming drops back to idle, got %v", calls)
	}
	calls = m.Tick(seqFrame(3), detector.Verdict{Motion: true}, false)
	calls = append(calls, m.Tick(seqFrame(4), detector.Verdict{Motion: true}, false)...)
	calls = append(calls, m.Tick(seqFrame(5), detector.Verdict{Motion: true}, false)...)
	if countKind(calls, event.FirstMotion) != 1 {
		t.Fatalf("expected arming to restart cleanly after the drop, got %d FirstMotion", countKind(calls, event.FirstMotion))
	}
}

func TestPreCaptureRingDrainsOnEventOnset(t *testing.T) {
	cfg := Config{MinimumMotionFrames: 1, EventGap: 1, PreCapture: 2}
	m := New("cam0", cfg)
	m.Tick(seqFrame(1), detector.Verdict{Motion: false}, false)
	m.Tick(seqFrame(2), detector.Verdict{Motion: false}, false)
	calls := m.Tick(seqFrame(3), detector.Verdict{Motion: true}, false)

	var seqs []uint64
	for _, c := range calls {
		if c.Kind == event.ImageDetected {
			seqs = append(seqs, c.Image.Seq)
		}
	}
	if len(seqs) < 2 {
		t.Fatalf("expected pre-capture drain plus current frame ImageDetected calls, got %v", seqs)
	}
	for i := 1; i < len(seqs); i++ {
		if seqs[i] < seqs[i-1] {
			t.Fatalf("expected drained frames in increasing sequence order, got %v", seqs)
		}
	}
}

func TestStopCascadesToEndMotionWhenEventOpen(t *testing.T) {
	cfg := Config{MinimumMotionFrames: 1, EventGap: 10, PreCapture: 0}
	m := New("cam0", cfg)
	m.Tick(seqFrame(1), detector.Verdict{Motion: true}, false)
	calls := m.Stop()
	if countKind(calls, event.EndMotion) != 1 {
		t.Fatalf("expected Stop to cascade into EndMotion, got %d", countKind(calls, event.EndMotion))
	}
}

func TestStopWithNoOpenEventOnlyFiresStop(t *testing.T) {
	m := New("cam0", Config{MinimumMotionFrames: 1, EventGap: 1})
	calls := m.Stop()
	if len(calls) != 1 || calls[0].Kind != event.Stop {
		t.Fatalf("expected only Stop when idle, got %v", calls)
	}
}
