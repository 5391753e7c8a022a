package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReporter(t *testing.T) {
	{ // messages below the configured level are suppressed
		var buf bytes.Buffer
		r := New(&buf, Warning)
		r.Infof("should not appear")
		assert.Empty(t, buf.String())
	}
	{ // messages at or above the configured level are written with their tag
		var buf bytes.Buffer
		r := New(&buf, Info)
		r.Warningf("disk is %d%% full", 90)
		assert.Contains(t, buf.String(), "[WARNING]")
		assert.Contains(t, buf.String(), "90% full")
	}
	{ // zero counts produce no diagnostic output
		var buf bytes.Buffer
		r := New(&buf, Debug)
		r.NegativeSourceReport(3, 0)
		r.NegativeFluxReport(3, 0)
		assert.Empty(t, buf.String())
	}
	{ // nonzero counts produce a single warning line each
		var buf bytes.Buffer
		r := New(&buf, Debug)
		r.NegativeSourceReport(3, 5)
		r.NegativeFluxReport(3, 2)
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Len(t, lines, 2)
	}
	{ // IterationReport includes keff and residual formatted
		var buf bytes.Buffer
		r := New(&buf, Normal)
		r.IterationReport(12, 1.00034, 5.1e-5, 10*time.Millisecond)
		assert.Contains(t, buf.String(), "iter   12")
		assert.Contains(t, buf.String(), "1.000340")
	}
}
