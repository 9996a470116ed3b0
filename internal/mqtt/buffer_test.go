package mqtt

import "testing"

func msg(topic string) bufferedMsg {
	return bufferedMsg{topic: topic, payload: []byte("p")}
}

func TestRingBufferPushDrain(t *testing.T) {
	r := newRingBuffer(4)

	if r.len() != 0 {
		t.Error("new buffer not empty")
	}
	if got := r.drainAll(); got != nil {
		t.Errorf("drain of empty buffer = %v", got)
	}

	r.push(msg("a"))
	r.push(msg("b"))
	r.push(msg("c"))
	if r.len() != 3 {
		t.Errorf("len = %d, want 3", r.len())
	}

	got := r.drainAll()
	if len(got) != 3 {
		t.Fatalf("drained %d, want 3", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].topic != want {
			t.Errorf("got[%d] = %s, want %s", i, got[i].topic, want)
		}
	}
	if r.len() != 0 {
		t.Error("buffer not empty after drain")
	}
}

func TestRingBufferOverflowDropsOldest(t *testing.T) {
	r := newRingBuffer(3)

	for _, topic := range []string{"a", "b", "c", "d", "e"} {
		r.push(msg(topic))
	}
	if r.len() != 3 {
		t.Fatalf("len = %d, want capacity 3", r.len())
	}

	got := r.drainAll()
	for i, want := range []string{"c", "d", "e"} {
		if got[i].topic != want {
			t.Errorf("got[%d] = %s, want %s", i, got[i].topic, want)
		}
	}
}

func TestRingBufferReusableAfterDrain(t *testing.T) {
	r := newRingBuffer(2)
	r.push(msg("a"))
	r.push(msg("b"))
	r.push(msg("c")) // overflow
	r.drainAll()

	r.push(msg("x"))
	got := r.drainAll()
	if len(got) != 1 || got[0].topic != "x" {
		t.Errorf("got %v after reuse", got)
	}
}
