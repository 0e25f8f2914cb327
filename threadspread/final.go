package threadspread

import (
	"github.com/coltree/mergetree/mtsettings"
	"github.com/coltree/mergetree/part"
	"github.com/coltree/mergetree/stream"
)

// FinalParams bundles the reader parameters needed for FINAL streams, plus
// the primary-key and sign column names the collapsing merge needs.
type FinalParams struct {
	MaxBlockSize int
	Columns      []string
	Prewhere     *stream.PrewhereSpec
	SortColumns  []string
	SignColumn   string
}

// Final implements C5: one reader stream per part (no thread spreading
// across parts — FINAL needs each part's rows in primary-key order), with
// the primary key and sign columns always present, collapsed per spec.md
// §4.5.
//
// If only one part survives pruning, collapsing degenerates to a row-level
// sign filter: only rows whose sign is exactly 1 are kept, and no cross-part merge is
// needed, so a plain Filter+Expression pair is used instead of
// CollapsingFinal.
func Final(ranges []part.RangesInDataPart, th mtsettings.Thresholds, useCache bool, fp FinalParams) ([]stream.BlockInputStream, error) {
	if len(ranges) == 0 {
		return nil, nil
	}

	readColumns := augmentColumns(fp.Columns, fp.SortColumns, fp.SignColumn)

	perPart := make([]stream.BlockInputStream, 0, len(ranges))
	for _, r := range ranges {
		if len(r.Ranges) == 0 {
			continue
		}
		perPart = append(perPart, stream.NewPartBlockStream(r.Part, fp.MaxBlockSize, readColumns, r.Ranges, useCache, fp.Prewhere))
	}

	if len(perPart) == 0 {
		return nil, nil
	}

	if len(perPart) == 1 {
		const signPositiveColumn = "_final_sign_positive"
		signColumn := fp.SignColumn
		expr := stream.Expression(perPart[0], signPositiveColumn, func(row map[string]any) any {
			return signOf(row[signColumn]) == 1
		})
		return []stream.BlockInputStream{stream.Filter(expr, signPositiveColumn)}, nil
	}

	return []stream.BlockInputStream{stream.CollapsingFinal(perPart, fp.SortColumns, fp.SignColumn)}, nil
}

func signOf(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	default:
		return 0
	}
}

// augmentColumns unions the caller's requested read columns with the
// sort (primary key) columns and the sign column, so the collapsing merge
// always has the columns it needs regardless of what the caller projected.
func augmentColumns(requested, sortColumns []string, signColumn string) []string {
	seen := make(map[string]struct{}, len(requested)+len(sortColumns)+1)
	var out []string
	add := func(c string) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, c := range requested {
		add(c)
	}
	for _, c := range sortColumns {
		add(c)
	}
	add(signColumn)
	return out
}
