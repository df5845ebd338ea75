package chart

import (
	"fmt"
	"math"
	"sort"

	"github.com/rpggio/easybi/internal/domain/dataset"
)

type bucket struct {
	label string
	sum   float64
	count int
}

func (c *Configurator) histogram(ds *dataset.Dataset, x, y string) []Bar {
	if ds.IsNumericColumn(x) && distinct(ds, x) > c.maxCategories {
		return c.binned(ds, x, y)
	}

	var order []string
	buckets := make(map[string]*bucket)
	for _, row := range ds.Rows {
		xv, ok := row[x]
		if !ok || xv == nil {
			continue
		}
		yv, ok := dataset.ToFloat(row[y])
		if !ok {
			continue
		}
		label := dataset.FormatValue(xv)
		b, seen := buckets[label]
		if !seen {
			b = &bucket{label: label}
			buckets[label] = b
			order = append(order, label)
		}
		b.sum += yv
		b.count++
	}

	bars := make([]Bar, 0, len(order))
	for _, label := range order {
		b := buckets[label]
		bars = append(bars, Bar{Label: label, Value: b.sum / float64(b.count), Count: b.count})
	}
	return bars
}

// binned splits a wide numeric x range into equal-width bins.
func (c *Configurator) binned(ds *dataset.Dataset, x, y string) []Bar {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range ds.Rows {
		if v, ok := dataset.ToFloat(row[x]); ok {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) {
		return nil
	}
	width := (hi - lo) / float64(c.bins)
	if width == 0 {
		width = 1
	}

	buckets := make([]bucket, c.bins)
	for i := range buckets {
		from := lo + float64(i)*width
		buckets[i].label = fmt.Sprintf("%g-%g", from, from+width)
	}
	for _, row := range ds.Rows {
		xv, ok := dataset.ToFloat(row[x])
		if !ok {
			continue
		}
		yv, ok := dataset.ToFloat(row[y])
		if !ok {
			continue
		}
		i := int((xv - lo) / width)
		if i >= c.bins {
			i = c.bins - 1
		}
		buckets[i].sum += yv
		buckets[i].count++
	}

	bars := make([]Bar, 0, c.bins)
	for _, b := range buckets {
		if b.count == 0 {
			continue
		}
		bars = append(bars, Bar{Label: b.label, Value: b.sum / float64(b.count), Count: b.count})
	}
	return bars
}

func pie(ds *dataset.Dataset, x, y string) []Slice {
	var order []string
	totals := make(map[string]float64)
	for _, row := range ds.Rows {
		xv, ok := row[x]
		if !ok || xv == nil {
			continue
		}
		value := 1.0
		if y != "" {
			v, ok := dataset.ToFloat(row[y])
			if !ok {
				continue
			}
			value = v
		}
		label := dataset.FormatValue(xv)
		if _, seen := totals[label]; !seen {
			order = append(order, label)
		}
		totals[label] += value
	}

	slices := make([]Slice, 0, len(order))
	for _, label := range order {
		slices = append(slices, Slice{Label: label, Value: totals[label]})
	}
	return slices
}

func points(ds *dataset.Dataset, x, y string, ordered bool) (XKind, []Point) {
	kind := xKind(ds, x)
	categories := make(map[string]int)
	var pts []Point
	for _, row := range ds.Rows {
		xv := row[x]
		if xv == nil {
			continue
		}
		yv, ok := dataset.ToFloat(row[y])
		if !ok {
			continue
		}
		p := Point{Y: yv}
		switch kind {
		case XNumeric:
			p.X, _ = dataset.ToFloat(xv)
		case XTime:
			t, _, _ := dataset.ParseDate(dataset.FormatValue(xv))
			p.X = float64(t.Unix())
			p.Label = dataset.FormatValue(xv)
		default:
			label := dataset.FormatValue(xv)
			idx, seen := categories[label]
			if !seen {
				idx = len(categories)
				categories[label] = idx
			}
			p.X = float64(idx)
			p.Label = label
		}
		pts = append(pts, p)
	}
	if ordered && kind != XCategory {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
	}
	return kind, pts
}

func xKind(ds *dataset.Dataset, x string) XKind {
	if ds.IsNumericColumn(x) {
		return XNumeric
	}
	seen := false
	for _, v := range ds.ColumnValues(x) {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return XCategory
		}
		if _, _, err := dataset.ParseDate(s); err != nil {
			return XCategory
		}
		seen = true
	}
	if seen {
		return XTime
	}
	return XCategory
}

func distinct(ds *dataset.Dataset, column string) int {
	seen := make(map[string]struct{})
	for _, row := range ds.Rows {
		if v := row[column]; v != nil {
			seen[dataset.FormatValue(v)] = struct{}{}
		}
	}
	return len(seen)
}
