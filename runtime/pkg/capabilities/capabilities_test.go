package capabilities

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"net_admin":      "CAP_NET_ADMIN",
		"CAP_SYS_CHROOT": "CAP_SYS_CHROOT",
		" kill ":         "CAP_KILL",
	}
	for in, expected := range cases {
		if got := Normalize(in); got != expected {
			t.Errorf("Normalize(%q): expected %s, got %s", in, expected, got)
		}
	}
}

func TestKnown(t *testing.T) {
	if !Known("chown") {
		t.Error("CAP_CHOWN should be known")
	}
	if Known("CAP_MAKE_COFFEE") {
		t.Error("CAP_MAKE_COFFEE should not be known")
	}
}

func TestMerge(t *testing.T) {
	base := []string{"CAP_CHOWN", "CAP_KILL"}
	got := Merge(base, []string{"net_admin"}, []string{"kill"})
	expected := []string{"CAP_CHOWN", "CAP_NET_ADMIN"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}

	if got := Merge(base, nil, []string{"ALL"}); len(got) != 0 {
		t.Errorf("dropping ALL should leave nothing, got %v", got)
	}
	if got := Merge(nil, []string{"ALL"}, nil); len(got) != len(capabilityMap) {
		t.Errorf("adding ALL should yield every known capability, got %d", len(got))
	}
	if got := Merge(nil, []string{"ALL"}, []string{"sys_admin"}); len(got) != len(capabilityMap)-1 {
		t.Errorf("adding ALL minus one should yield %d capabilities, got %d", len(capabilityMap)-1, len(got))
	}
	got = Merge(base, []string{"net_bind_service", "kill"}, []string{"ALL"})
	expected = []string{"CAP_KILL", "CAP_NET_BIND_SERVICE"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}
