package cmdbucket

import (
	"testing"

	"github.com/ashgrove/vkforge/internal/arena"
)

type addCmd struct {
	addVal int
}

type mulCmd struct {
	factor int
}

func TestSubmitDispatchesChainInOrder(t *testing.T) {
	a := arena.New(1<<16, arena.SoftFail)
	b := Init(10, a)

	total := 0
	add := func(driver any, cmd *addCmd) { total += cmd.addVal }
	mul := func(driver any, cmd *mulCmd) { total *= cmd.factor }

	head, cmd0 := AddCommand(b, 0, add)
	cmd0.addVal = 5

	p1, cmd1 := AppendCommand(b, head, add)
	cmd1.addVal = 10

	_, cmd2 := AppendCommand(b, p1, mul)
	cmd2.factor = 2

	b.Submit(nil)

	if total != 30 {
		t.Fatalf("expected (0+5+10)*2=30, got %d", total)
	}
}

func TestSubmitOrdersHeadsByKey(t *testing.T) {
	a := arena.New(1<<16, arena.SoftFail)
	b := Init(4, a)

	var order []int
	mk := func(n int) func(driver any, cmd *addCmd) {
		return func(driver any, cmd *addCmd) { order = append(order, n) }
	}

	AddCommand(b, 5, mk(5))
	AddCommand(b, 1, mk(1))
	AddCommand(b, 3, mk(3))

	b.Submit(nil)

	want := []int{1, 3, 5}
	if len(order) != len(want) {
		t.Fatalf("expected %d dispatches, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("dispatch order = %v, want %v", order, want)
		}
	}
}

func TestSubmitClearsHeadsForReuse(t *testing.T) {
	a := arena.New(1<<16, arena.SoftFail)
	b := Init(2, a)

	calls := 0
	AddCommand(b, 0, func(driver any, cmd *addCmd) { calls++ })
	b.Submit(nil)
	b.Submit(nil)

	if calls != 1 {
		t.Fatalf("expected exactly one dispatch across two submits, got %d", calls)
	}
}
