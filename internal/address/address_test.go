package address

import "testing"

func TestValidIP(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1":       true,
		"0.0.0.0":         true,
		"192.168.1.254":   true,
		"999.999.999.999": true,
		"1.2.3":           false,
		"1.2.3.4.5":       false,
		"1.2.3.1234":      false,
		"a.b.c.d":         false,
		"":                false,
		" 1.2.3.4":        false,
		"1.2.3.4\n":       false,
		"::1":             false,
	}
	for in, want := range cases {
		if got := ValidIP(in); got != want {
			t.Errorf("ValidIP(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestValidPort(t *testing.T) {
	cases := map[int]bool{
		0:     false,
		80:    false,
		1023:  false,
		1024:  true,
		5000:  true,
		65535: true,
		65536: false,
		-1:    false,
	}
	for in, want := range cases {
		if got := ValidPort(in); got != want {
			t.Errorf("ValidPort(%d) = %v, want %v", in, got, want)
		}
	}
}
