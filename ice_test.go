package ice

import "testing"

func TestCandidateTypePreference(t *testing.T) {
	cases := []struct {
		t    CandidateType
		want uint32
	}{
		{CandidateTypeHost, 126},
		{CandidateTypePeerReflexive, 110},
		{CandidateTypeServerReflexive, 100},
		{CandidateTypeRelayed, 0},
	}
	for _, c := range cases {
		if got := c.t.Preference(); got != c.want {
			t.Errorf("%s.Preference() = %d, want %d", c.t, got, c.want)
		}
	}
}

func TestCandidateTypeString(t *testing.T) {
	cases := map[CandidateType]string{
		CandidateTypeHost:            "host",
		CandidateTypePeerReflexive:   "prflx",
		CandidateTypeServerReflexive: "srflx",
		CandidateTypeRelayed:         "relay",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", typ, got, want)
		}
	}
}

func TestPairStateString(t *testing.T) {
	cases := map[PairState]string{
		PairStateFrozen:     "Frozen",
		PairStateWaiting:    "Waiting",
		PairStateInProgress: "In-Progress",
		PairStateSucceeded:  "Succeeded",
		PairStateFailed:     "Failed",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", state, got, want)
		}
	}
}
