// File: geometry/circular_buffer_test.go
package geometry

import "testing"

func TestCircularBufferPushWithoutWrapAround(t *testing.T) {
	b := NewCircularBuffer[int](4, 0)
	b.Push(1)
	b.Push(2)
	b.Push(3)
	if b.At(0) != 0 || b.At(1) != 1 || b.At(2) != 2 {
		t.Fatalf("unexpected state before wrap: %v %v %v", b.At(0), b.At(1), b.At(2))
	}
	b.Push(4)
	if b.At(0) != 1 || b.At(1) != 2 || b.At(2) != 3 || b.At(3) != 4 {
		t.Fatalf("unexpected state after fill: %v %v %v %v", b.At(0), b.At(1), b.At(2), b.At(3))
	}
	if b.Last() != 4 {
		t.Fatalf("Last() = %v, want 4", b.Last())
	}
}

func TestCircularBufferPushWrapsAround(t *testing.T) {
	b := NewCircularBuffer[int](4, 0)
	for _, v := range []int{1, 2, 3, 4, 5} {
		b.Push(v)
	}
	if b.At(3) != 5 || b.Last() != 5 {
		t.Fatalf("after wrap At(3)=%v Last()=%v, want 5", b.At(3), b.Last())
	}
	b.Push(6)
	if b.At(3) != 6 || b.Last() != 6 {
		t.Fatalf("after second wrap At(3)=%v Last()=%v, want 6", b.At(3), b.Last())
	}
}

func TestCircularBufferRewind(t *testing.T) {
	b := NewCircularBuffer[int](4, 0)
	for _, v := range []int{1, 2, 3, 4} {
		b.Push(v)
	}
	b.Rewind(2)
	if b.Last() != 2 {
		t.Fatalf("after rewind(2) Last() = %v, want 2", b.Last())
	}
	b.Push(10)
	if b.Last() != 10 || b.At(2) != 2 {
		t.Fatalf("push after rewind did not land where expected: Last()=%v At(2)=%v", b.Last(), b.At(2))
	}
}
