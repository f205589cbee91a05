package events

import "testing"

func TestPublisher_NewHeightOrdering(t *testing.T) {
	p := New()
	var order []int
	p.OnNewHeight(func() { order = append(order, 1) })
	p.OnNewHeight(func() { order = append(order, 2) })

	p.PublishNewHeight()

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("order = %v, want [1 2]", order)
	}
}

func TestPublisher_TouchedAddress(t *testing.T) {
	p := New()
	var got []string
	p.OnTouchedAddress(func(address string) { got = append(got, address) })

	p.PublishTouchedAddress("addrA")
	p.PublishTouchedAddress("addrB")

	if len(got) != 2 || got[0] != "addrA" || got[1] != "addrB" {
		t.Fatalf("got = %v, want [addrA addrB]", got)
	}
}

func TestPublisher_NoHandlersIsNoop(t *testing.T) {
	p := New()
	p.PublishNewHeight()
	p.PublishTouchedAddress("addrA")
}
