package fn

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"testing"
)

func TestResult_OkErr(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Error("Ok result misreported")
	}
	if v, err := r.Unwrap(); v != 42 || err != nil {
		t.Errorf("Unwrap = (%v, %v)", v, err)
	}

	boom := errors.New("boom")
	e := Err[int](boom)
	if e.IsOk() {
		t.Error("Err result misreported")
	}
	if e.UnwrapOr(7) != 7 {
		t.Error("UnwrapOr fallback not used")
	}
}

func TestFromPair(t *testing.T) {
	if r := FromPair(1, nil); r.IsErr() {
		t.Error("nil error should be ok")
	}
	if r := FromPair(0, errors.New("x")); r.IsOk() {
		t.Error("non-nil error should be err")
	}
}

func TestCollect_FirstError(t *testing.T) {
	boom := errors.New("boom")
	r := Collect([]Result[int]{Ok(1), Err[int](boom), Ok(3)})
	if _, err := r.Unwrap(); !errors.Is(err, boom) {
		t.Errorf("expected first error, got %v", err)
	}

	ok := Collect([]Result[int]{Ok(1), Ok(2)})
	if v, _ := ok.Unwrap(); !reflect.DeepEqual(v, []int{1, 2}) {
		t.Errorf("got %v", v)
	}
}

func TestThen_ShortCircuits(t *testing.T) {
	boom := errors.New("boom")
	first := func(_ context.Context, n int) Result[int] { return Err[int](boom) }
	ran := false
	second := func(_ context.Context, n int) Result[string] {
		ran = true
		return Ok(strconv.Itoa(n))
	}

	r := Then(first, second)(context.Background(), 1)
	if _, err := r.Unwrap(); !errors.Is(err, boom) {
		t.Errorf("error not propagated: %v", err)
	}
	if ran {
		t.Error("second stage ran after failure")
	}
}

func TestThen_PassesValue(t *testing.T) {
	double := func(_ context.Context, n int) Result[int] { return Ok(n * 2) }
	str := func(_ context.Context, n int) Result[string] { return Ok(strconv.Itoa(n)) }
	if v, _ := Then(double, str)(context.Background(), 21).Unwrap(); v != "42" {
		t.Errorf("got %q", v)
	}
}

func TestPipeline_AppliesInOrder(t *testing.T) {
	add := func(n int) Stage[int, int] {
		return func(_ context.Context, v int) Result[int] { return Ok(v + n) }
	}
	v, _ := Pipeline(add(1), add(10), add(100))(context.Background(), 0).Unwrap()
	if v != 111 {
		t.Errorf("got %d", v)
	}
}

func TestTraced_PreservesResult(t *testing.T) {
	boom := errors.New("boom")
	stage := Traced("failing", func(_ context.Context, n int) Result[int] { return Err[int](boom) })
	if _, err := stage(context.Background(), 1).Unwrap(); !errors.Is(err, boom) {
		t.Errorf("traced stage changed the error: %v", err)
	}
}

func TestBatchStage_CollectsInOrder(t *testing.T) {
	stage := BatchStage(4, func(_ context.Context, n int) Result[int] { return Ok(n * n) })
	v, err := stage(context.Background(), []int{1, 2, 3, 4, 5}).Unwrap()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(v, []int{1, 4, 9, 16, 25}) {
		t.Errorf("got %v", v)
	}
}

func TestParMapResult_Order(t *testing.T) {
	in := make([]int, 100)
	for i := range in {
		in[i] = i
	}
	results := ParMapResult(in, 8, func(n int) Result[int] { return Ok(n * 2) })
	for i, r := range results {
		if v, _ := r.Unwrap(); v != i*2 {
			t.Fatalf("index %d: got %d", i, v)
		}
	}
}

func TestBatch(t *testing.T) {
	got := Batch([]int{1, 2, 3, 4, 5}, 2)
	want := [][]int{{1, 2}, {3, 4}, {5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if Batch([]int{1}, 0) != nil {
		t.Error("non-positive size must return nil")
	}
}

func TestUniqueBy(t *testing.T) {
	type kv struct{ k, v string }
	got := UniqueBy([]kv{{"a", "1"}, {"b", "2"}, {"a", "3"}}, func(x kv) string { return x.k })
	if len(got) != 2 || got[0].v != "1" || got[1].v != "2" {
		t.Errorf("got %v", got)
	}
}
