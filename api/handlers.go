package api

import (
	"fmt"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-gota/gota/dataframe"

	"house-flipping/geo"
	"house-flipping/models"
	"house-flipping/services"
)

// defaultOverviewRows is the overview page size when no limit is given.
const defaultOverviewRows = 100

// defaultPercentile is the extra percentile of /api/stats.
const defaultPercentile = 0.25

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"status": "ok"}
	if snap := s.source.Current(); snap != nil {
		resp["run_id"] = snap.RunID
		resp["source"] = snap.Source
		resp["loaded_at"] = snap.LoadedAt
		resp["rows"] = snap.Table.Nrow()
	} else {
		resp["status"] = "loading"
	}
	render.JSON(w, r, resp)
}

func (s *Server) renderFrame(w http.ResponseWriter, r *http.Request, df dataframe.DataFrame, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, NewFramePayload(df))
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultOverviewRows)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	df, err := s.aggregator.DataOverview(snap.Table, queryList(r, "attributes"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.renderFrame(w, r, firstRows(df, limit), nil)
}

func (s *Server) handleZipcodes(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	zips, err := queryInts(r, "zipcode")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	df, err := s.aggregator.ZipcodeAverages(snap.Table, zips)
	s.renderFrame(w, r, df, err)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := queryFloat(r, "percentile", defaultPercentile)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	df, err := s.aggregator.DescriptiveStats(snap.Table, queryList(r, "attributes"), p)
	s.renderFrame(w, r, df, err)
}

func (s *Server) handlePriceByYearBuilt(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	lo, hi, err := services.IntRange(snap.Table, models.ColYrBuilt)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	from, err := queryInt(r, "from", lo)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	to, err := queryInt(r, "to", hi)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	df, err := s.aggregator.PriceByYearBuilt(snap.Table, from, to)
	s.renderFrame(w, r, df, err)
}

func (s *Server) handlePriceBySeason(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	df, err := s.aggregator.PriceBySeason(snap.Table)
	s.renderFrame(w, r, df, err)
}

func (s *Server) handlePriceByAge(w http.ResponseWriter, r *http.Request) {
	s.renderComparison(w, r, s.aggregator.PriceByAge)
}

func (s *Server) handlePriceByWaterfront(w http.ResponseWriter, r *http.Request) {
	s.renderComparison(w, r, s.aggregator.PriceByWaterfront)
}

func (s *Server) renderComparison(w http.ResponseWriter, r *http.Request,
	compare func(dataframe.DataFrame) (models.GroupComparison, error)) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := compare(snap.Table)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, newComparisonPayload(c))
}

func (s *Server) handlePriceByBasement(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	price, lot, err := s.aggregator.PriceByBasement(snap.Table)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"price": newComparisonPayload(price),
		"lot":   newComparisonPayload(lot),
	})
}

func (s *Server) handleDailyPrice(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	lo, hi, err := services.DateRange(snap.Table)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	from, err := queryDate(r, "from", lo)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	to, err := queryDate(r, "to", hi)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	df, err := s.aggregator.DailyPrice(snap.Table, from, to)
	s.renderFrame(w, r, df, err)
}

func (s *Server) handlePriceDistribution(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	zips, err := queryInts(r, "zipcode")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	lo, err := queryFloat(r, "min", math.Inf(-1))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	hi, err := queryFloat(r, "max", math.Inf(1))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	dist, err := s.aggregator.PriceDistribution(snap.Table, zips, lo, hi)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"min_price": number(dist.MinPrice),
		"max_price": number(dist.MaxPrice),
		"avg_price": number(dist.AvgPrice),
		"rows":      NewFramePayload(dist.Rows),
	})
}

func (s *Server) handleAttributeCounts(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	column := chi.URLParam(r, "column")
	allowed := false
	for _, a := range services.PhysicalAttributes {
		allowed = allowed || a == column
	}
	if !allowed {
		s.fail(w, r, fmt.Errorf("attribute %q: %w", column, errBadQuery))
		return
	}
	df, err := s.aggregator.AttributeCounts(snap.Table, column)
	s.renderFrame(w, r, df, err)
}

func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	report, err := s.selector.Select(snap.Table)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"run_id":        snap.RunID,
		"totals":        newTotalsPayload(report.Totals),
		"opportunities": NewFramePayload(services.OpportunityFrame(report.Opportunities)),
	})
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", s.mapSample)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	fc, err := geo.Markers(snap.Table, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	center, err := geo.Center(snap.Table, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"center":  []interface{}{number(center.Lon()), number(center.Lat())},
		"markers": fc,
	})
}

func (s *Server) handleDensity(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	b, err := s.source.Boundaries(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if b == nil {
		s.fail(w, r, errNoBoundaries)
		return
	}
	limit, err := queryInt(r, "limit", s.mapSample)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	avg, err := s.aggregator.AverageBy(geo.Head(snap.Table, limit),
		[]string{models.ColZipcode}, []string{models.ColPrice})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	fc, err := b.Choropleth(avg, models.ColZipcode, models.ColPrice+"_mean")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, fc)
}

func queryDate(r *http.Request, key, fallback string) (string, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	t, err := services.ParseDate(raw)
	if err != nil {
		return "", err
	}
	return t.Format(services.DateLayout), nil
}

func firstRows(df dataframe.DataFrame, n int) dataframe.DataFrame {
	if n <= 0 || df.Nrow() <= n {
		return df
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return df.Subset(idx)
}
