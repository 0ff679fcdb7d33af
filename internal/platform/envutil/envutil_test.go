package envutil

import (
	"reflect"
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{name: "unset", raw: "", want: time.Minute},
		{name: "go duration", raw: "2h", want: 2 * time.Hour},
		{name: "bare seconds", raw: "90", want: 90 * time.Second},
		{name: "garbage", raw: "soon", want: time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("OMEX_TEST_DURATION", tc.raw)
			if got := Duration("OMEX_TEST_DURATION", time.Minute); got != tc.want {
				t.Fatalf("want=%v got=%v", tc.want, got)
			}
		})
	}
}

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("OMEX_TEST_INT", "five")
	if got := Int("OMEX_TEST_INT", 5); got != 5 {
		t.Fatalf("want=5 got=%d", got)
	}
	t.Setenv("OMEX_TEST_INT", " 7 ")
	if got := Int("OMEX_TEST_INT", 5); got != 7 {
		t.Fatalf("want=7 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("OMEX_TEST_BOOL", "off")
	if Bool("OMEX_TEST_BOOL", true) {
		t.Fatalf("want false for off")
	}
	t.Setenv("OMEX_TEST_BOOL", "maybe")
	if !Bool("OMEX_TEST_BOOL", true) {
		t.Fatalf("want default for unknown value")
	}
}

func TestList(t *testing.T) {
	t.Setenv("OMEX_TEST_LIST", " a, ,b ,c")
	want := []string{"a", "b", "c"}
	if got := List("OMEX_TEST_LIST", nil); !reflect.DeepEqual(got, want) {
		t.Fatalf("want=%v got=%v", want, got)
	}
}
