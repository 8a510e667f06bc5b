package bandwidth

import (
	"fmt"
	"strings"
	"time"
)

// ChannelSnapshot is a point-in-time view of one channel's cumulative
// counters. Computing snapshots is kept separate from rendering so that the
// aggregate arithmetic stays testable without a logger.
type ChannelSnapshot struct {
	Name       string
	Bytes      uint64
	Messages   uint64
	BitsPerSec float64
	Duration   time.Duration
}

// Mbps returns the channel bandwidth in megabits per second.
func (cs ChannelSnapshot) Mbps() float64 { return cs.BitsPerSec / 1e6 }

// Gbps returns the channel bandwidth in gigabits per second.
func (cs ChannelSnapshot) Gbps() float64 { return cs.Mbps() / 1000 }

// Summary aggregates the snapshots of every monitored channel.
type Summary struct {
	Channels      []ChannelSnapshot
	TotalBytes    uint64
	TotalMessages uint64
	TotalBPS      float64
}

// Snapshot captures a summary over all registered channels, sorted by channel
// name.
func (r *Registry) Snapshot() Summary {
	var summary Summary
	for _, s := range r.List() {
		bytes, messages, bps := s.TotalSnapshot()
		summary.Channels = append(summary.Channels, ChannelSnapshot{
			Name:       s.Name(),
			Bytes:      bytes,
			Messages:   messages,
			BitsPerSec: bps,
			Duration:   s.Duration(),
		})
		summary.TotalBytes += bytes
		summary.TotalMessages += messages
		summary.TotalBPS += bps
	}
	return summary
}

// AverageMbpsPerChannel returns the total bandwidth in Mbps divided by the
// channel count, or 0 when no channels are registered.
func (s Summary) AverageMbpsPerChannel() float64 {
	if len(s.Channels) == 0 {
		return 0
	}
	return s.TotalBPS / 1e6 / float64(len(s.Channels))
}

// String renders the multi-section summary block.
func (s Summary) String() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("-----------------------------------------\n")
	b.WriteString(" BANDWIDTH SUMMARY:\n")
	b.WriteString("-----------------------------------------\n")
	b.WriteString(" + CHANNEL STATISTICS:\n")

	for _, cs := range s.Channels {
		fmt.Fprintf(&b, "  %s:\n", cs.Name)
		fmt.Fprintf(&b, "    Bandwidth: %.2f Mbps (%.2f Gbps)\n", cs.Mbps(), cs.Gbps())
		fmt.Fprintf(&b, "    Total Bytes: %s B (%.2f MB)\n", formatCount(cs.Bytes), float64(cs.Bytes)/1e6)
		fmt.Fprintf(&b, "    Total Messages: %s\n", formatCount(cs.Messages))
		fmt.Fprintf(&b, "    Duration: %.2f s\n", cs.Duration.Seconds())
		b.WriteString("\n")
	}

	b.WriteString(" + SUMMARY:\n")
	fmt.Fprintf(&b, "  Total Channels: %d\n", len(s.Channels))
	fmt.Fprintf(&b, "  Total Bandwidth: %.2f Mbps (%.2f Gbps)\n", s.TotalBPS/1e6, s.TotalBPS/1e9)
	fmt.Fprintf(&b, "  Total Bytes Received: %s B (%.2f MB)\n", formatCount(s.TotalBytes), float64(s.TotalBytes)/1e6)
	fmt.Fprintf(&b, "  Total Messages Received: %s\n", formatCount(s.TotalMessages))
	fmt.Fprintf(&b, "  Average Bandwidth per Channel: %.2f Mbps\n", s.AverageMbpsPerChannel())
	b.WriteString("-----------------------------------------\n")

	return b.String()
}

// formatCount renders n with thousands separators.
func formatCount(n uint64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
