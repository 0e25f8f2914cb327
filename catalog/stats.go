package catalog

// PartStats holds cheap per-column min/max envelopes for a part, computed
// once when the part is written. These are an optional fast-reject layer
// ahead of the authoritative index range pruner: C1's descent over the real
// sparse index is what correctness rests on, so a stale or absent
// PartStats only costs a wasted descent, never a missed row.
type PartStats struct {
	Numeric map[string]NumericFieldStats
}

// NumericFieldStats is the [Min, Max] envelope of one primary key column
// across every row in the part.
type NumericFieldStats struct {
	Min, Max float64
	Present  bool
}

// CanPruneNumeric reports whether the part can be skipped for a query of
// the form "column op queryVal" without inspecting its primary key index
// at all.
func (s PartStats) CanPruneNumeric(column string, op string, queryVal float64) bool {
	stats, ok := s.Numeric[column]
	if !ok || !stats.Present {
		return false
	}
	switch op {
	case "gt":
		return stats.Max <= queryVal
	case "gte":
		return stats.Max < queryVal
	case "lt":
		return stats.Min >= queryVal
	case "lte":
		return stats.Min > queryVal
	case "eq":
		return queryVal < stats.Min || queryVal > stats.Max
	default:
		return false
	}
}

func writeStats(pb *payloadBuffer, s PartStats) {
	pb.writeUint32(uint32(len(s.Numeric)))
	for col, fs := range s.Numeric {
		pb.writeString(col)
		pb.writeFloat64(fs.Min)
		pb.writeFloat64(fs.Max)
		pb.writeBool(fs.Present)
	}
}

func readStats(pb *payloadBuffer) PartStats {
	n := pb.readUint32()
	if n == 0 {
		return PartStats{}
	}
	s := PartStats{Numeric: make(map[string]NumericFieldStats, n)}
	for i := uint32(0); i < n; i++ {
		col := pb.readString()
		s.Numeric[col] = NumericFieldStats{
			Min:     pb.readFloat64(),
			Max:     pb.readFloat64(),
			Present: pb.readBool(),
		}
	}
	return s
}
