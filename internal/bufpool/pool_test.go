package bufpool

import "testing"

func TestGetReturnsBufferAtLeastSize(t *testing.T) {
	b := Get()
	defer Put(b)
	if cap(b.B) < Size {
		t.Fatalf("cap(b.B) = %d, want >= %d", cap(b.B), Size)
	}
	if len(b.B) != 0 {
		t.Fatalf("len(b.B) = %d, want 0", len(b.B))
	}
}

func TestPutResetsBeforeReuse(t *testing.T) {
	b := Get()
	b.B = append(b.B, "not empty"...)
	Put(b)

	b2 := Get()
	defer Put(b2)
	if len(b2.B) != 0 {
		t.Fatalf("reused buffer has len %d, want 0 after Put/Get round trip", len(b2.B))
	}
}
