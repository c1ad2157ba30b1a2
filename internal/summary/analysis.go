package summary

import (
	"sort"

	"github.com/sadopc/focusring/internal/catalog"
	"github.com/sadopc/focusring/internal/day"
)

// MaxTrendDays bounds the length of a trend query.
const MaxTrendDays = 90

// TrendPoint is one day of a trend.
type TrendPoint struct {
	Date            string  `json:"date"`
	FocusScore      int     `json:"focus_score"`
	ProductiveHours float64 `json:"productive_hours"`
	DistractHours   float64 `json:"distract_hours"`
}

// TrendReport covers a date range. Days without any filled block are
// left out of both the points and the averages.
type TrendReport struct {
	Points              []TrendPoint `json:"trend_data"`
	PeriodAvgScore      float64      `json:"period_avg_score"`
	PeriodAvgProductive float64      `json:"period_avg_productive"`
}

// Trend summarizes each snapshot and averages over days with data.
func Trend(days []day.Snapshot, cat catalog.Catalog) TrendReport {
	var r TrendReport
	var totalScore, totalProductive float64
	for _, s := range days {
		d := Compute(s, cat)
		if d.TotalFilled == 0 {
			continue
		}
		r.Points = append(r.Points, TrendPoint{
			Date:            d.Date,
			FocusScore:      d.FocusScore,
			ProductiveHours: d.ProductiveHours,
			DistractHours:   d.DistractHours,
		})
		totalScore += float64(d.FocusScore)
		totalProductive += d.ProductiveHours
	}
	sort.Slice(r.Points, func(i, j int) bool { return r.Points[i].Date < r.Points[j].Date })
	if n := len(r.Points); n > 0 {
		r.PeriodAvgScore = totalScore / float64(n)
		r.PeriodAvgProductive = totalProductive / float64(n)
	}
	return r
}

// Share is the time one category took in a day.
type Share struct {
	Code       string  `json:"code"`
	Blocks     int     `json:"blocks"`
	Hours      float64 `json:"hours"`
	Percentage float64 `json:"percentage"`
}

// Distribution breaks a day down by category, catalog order first and any
// unresolved codes after, alphabetically.
func Distribution(s day.Snapshot, cat catalog.Catalog) []Share {
	counts := make(map[string]int)
	total := 0
	for _, b := range s.Blocks {
		if b.Filled() {
			counts[*b.Category]++
			total++
		}
	}
	if total == 0 {
		return nil
	}

	var out []Share
	add := func(code string) {
		n := counts[code]
		out = append(out, Share{
			Code:       code,
			Blocks:     n,
			Hours:      float64(n) * HoursPerBlock,
			Percentage: float64(n) / float64(total) * 100,
		})
		delete(counts, code)
	}
	for _, c := range cat.All() {
		if counts[c.Code] > 0 {
			add(c.Code)
		}
	}
	rest := make([]string, 0, len(counts))
	for code := range counts {
		rest = append(rest, code)
	}
	sort.Strings(rest)
	for _, code := range rest {
		add(code)
	}
	return out
}

// Period is a four-hour band of the day.
type Period struct {
	Name      string  `json:"name"`
	FirstSlot int     `json:"first_slot"`
	LastSlot  int     `json:"last_slot"`
	AvgWeight float64 `json:"avg_weight"`
	Filled    int     `json:"filled"`
}

var periods = []Period{
	{Name: "early (04:00-07:59)", FirstSlot: 0, LastSlot: 15},
	{Name: "morning (08:00-11:59)", FirstSlot: 16, LastSlot: 31},
	{Name: "afternoon (12:00-15:59)", FirstSlot: 32, LastSlot: 47},
	{Name: "evening (16:00-19:59)", FirstSlot: 48, LastSlot: 63},
	{Name: "night (20:00-23:59)", FirstSlot: 64, LastSlot: 79},
}

// TimeOfDay averages resolved weights inside each period. Unresolved
// codes count as weight 0.
func TimeOfDay(s day.Snapshot, cat catalog.Catalog) []Period {
	out := make([]Period, len(periods))
	copy(out, periods)
	for i := range out {
		p := &out[i]
		sum := 0
		for slot := p.FirstSlot; slot <= p.LastSlot && slot < len(s.Blocks); slot++ {
			b := s.Blocks[slot]
			if !b.Filled() {
				continue
			}
			p.Filled++
			if c, ok := cat.Lookup(*b.Category); ok {
				sum += c.Weight
			}
		}
		if p.Filled > 0 {
			p.AvgWeight = float64(sum) / float64(p.Filled)
		}
	}
	return out
}
