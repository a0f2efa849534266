package util

import (
	"strings"
	"testing"
)

type stringer struct{}

func (stringer) String() string { return "S" }

func TestKeyStringVerbatim(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"abc", "abc"},
		{[]byte("raw"), "raw"},
		{42, "42"},
		{int64(-7), "-7"},
		{uint32(9), "9"},
		{true, "true"},
		{stringer{}, "S"},
	}
	for _, tc := range cases {
		got, err := KeyString(tc.in)
		if err != nil || got != tc.want {
			t.Fatalf("KeyString(%#v) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestKeyStringHashesCanonically(t *testing.T) {
	a, err := KeyString(map[string]int{"a": 1, "b": 2, "c": 3})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(a, "h:") || len(a) != 2+16 {
		t.Fatalf("hashed key %q", a)
	}
	for i := 0; i < 10; i++ {
		b, _ := KeyString(map[string]int{"c": 3, "b": 2, "a": 1})
		if a != b {
			t.Fatalf("map key hash not canonical: %q vs %q", a, b)
		}
	}
	other, _ := KeyString(map[string]int{"a": 1})
	if other == a {
		t.Fatalf("distinct values share a hash")
	}

	type pair struct{ A, B string }
	p1, _ := KeyString(pair{"x", "y"})
	p2, _ := KeyString(pair{"y", "x"})
	if p1 == p2 {
		t.Fatalf("field order ignored")
	}
}

func TestKeyStringErrors(t *testing.T) {
	if _, err := KeyString(nil); err == nil {
		t.Fatalf("nil key should fail")
	}
	if _, err := KeyString(make(chan int)); err == nil {
		t.Fatalf("unencodable key should fail")
	}
}

func TestDigest(t *testing.T) {
	a := Digest("svc", "get")
	if len(a) != 16 || a != Digest("svc", "get") {
		t.Fatalf("digest %q not stable", a)
	}
	if a == Digest("svcg", "et") || a == Digest("svc.get") {
		t.Fatalf("digest ignores part boundaries")
	}
}
