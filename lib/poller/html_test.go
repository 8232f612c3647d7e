package poller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	cases := map[string]string{
		"Price dropped to $599":                                "Price dropped to $599",
		"  spaced \n out  ":                                    "spaced out",
		"<b>Dyson V15</b> is now <i>$599.99</i>":               "Dyson V15 is now $599.99",
		"Line one<br>Line two":                                 "Line one Line two",
		"<p>Deal</p><script>alert(1)</script><p>ends soon</p>": "Deal ends soon",
		"Tom &amp; Jerry":                                      "Tom & Jerry",
	}
	for in, want := range cases {
		assert.Equal(t, want, PlainText(in), in)
	}
}
