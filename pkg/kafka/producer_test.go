package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Fatal("expected an error without brokers")
	}
}

func TestParseCompression(t *testing.T) {
	cases := []struct {
		name string
		want kafka.Compression
	}{
		{"gzip", kafka.Gzip},
		{"snappy", kafka.Snappy},
		{"lz4", kafka.Lz4},
		{"zstd", kafka.Zstd},
		{"bogus", kafka.Gzip},
	}
	for _, c := range cases {
		if got := parseCompression(c.name); got != c.want {
			t.Errorf("%s: want %v, got %v", c.name, c.want, got)
		}
	}
}
