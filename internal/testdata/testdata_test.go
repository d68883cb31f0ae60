package testdata_test

import (
	"bytes"
	"testing"

	"github.com/codahale/ring/internal/testdata"
)

func TestDRBG(t *testing.T) {
	a, b := testdata.New("example"), testdata.New("example")
	if got, want := a.Data(64), b.Data(64); !bytes.Equal(got, want) {
		t.Errorf("Data(64) = %x, want = %x", got, want)
	}

	c := testdata.New("other")
	if bytes.Equal(a.Data(16), c.Data(16)) {
		t.Error("different labels produced the same output")
	}
}
