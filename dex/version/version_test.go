// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package version

import "testing"

func TestParseSemVer(t *testing.T) {
	tests := []struct {
		in   string
		want SemVer
		fail bool
	}{
		{in: "0.1.0", want: SemVer{0, 1, 0, "", ""}},
		{in: "1.2.3-pre+dev", want: SemVer{1, 2, 3, "pre", "dev"}},
		{in: "1.2.3-rc.1", want: SemVer{1, 2, 3, "rc.1", ""}},
		{in: "10.20.30+build.7", want: SemVer{10, 20, 30, "", "build.7"}},
		{in: "1.2", fail: true},
		{in: "01.2.3", fail: true},
		{in: "1.2.3+", fail: true},
		{in: "1.2.3-pre_1", fail: true},
		{in: "4294967296.0.0", fail: true},
	}
	for _, tt := range tests {
		v, err := ParseSemVer(tt.in)
		if tt.fail {
			if err == nil {
				t.Errorf("%q: no error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tt.in, err)
			continue
		}
		if *v != tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.in, *v, tt.want)
		}
		if v.String() != tt.in {
			t.Errorf("%q formatted as %q", tt.in, v.String())
		}
	}
}

func TestParse(t *testing.T) {
	if v := Parse("0.1.0-pre+dev"); v != "0.1.0-pre+dev" {
		t.Fatalf("build metadata replaced: %s", v)
	}
	v, err := ParseSemVer(Parse("0.1.0"))
	if err != nil {
		t.Fatalf("stamped version does not parse: %v", err)
	}
	if v.Major != 0 || v.Minor != 1 || v.Patch != 0 || v.PreRelease != "" {
		t.Fatalf("wrong stamped version %+v", v)
	}
	if s := normalize("abc_123.dirty!"); s != "abc123.dirty" {
		t.Fatalf("wrong normalized string %q", s)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("no panic for malformed version")
		}
	}()
	Parse("v1")
}
